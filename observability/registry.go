package observability

import (
	"fmt"
	"strings"
	"sync"
)

var (
	observers = map[string]Observer{
		"noop": NoOpObserver{},
		"slog": NewSlogObserver(nil),
		"warn": LevelFilter{Min: LevelWarning, Next: NewSlogObserver(nil)},
	}
	mutex sync.RWMutex
)

// GetObserver returns the observer registered under name. "noop", "slog",
// and "warn" (slog, warnings and errors only) are always available.
func GetObserver(name string) (Observer, error) {
	mutex.RLock()
	defer mutex.RUnlock()

	obs, ok := observers[name]
	if !ok {
		return nil, fmt.Errorf("unknown observer: %s", name)
	}
	return obs, nil
}

// RegisterObserver adds or replaces a named observer.
func RegisterObserver(name string, observer Observer) {
	mutex.Lock()
	defer mutex.Unlock()

	observers[name] = observer
}

// ResolveObservers returns the observer for a comma-separated list of
// registered names, such as "slog,audit". Several names fan out through a
// MultiObserver.
func ResolveObservers(names string) (Observer, error) {
	var resolved []Observer
	for name := range strings.SplitSeq(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		obs, err := GetObserver(name)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, obs)
	}

	switch len(resolved) {
	case 0:
		return nil, fmt.Errorf("unknown observer: %q", names)
	case 1:
		return resolved[0], nil
	default:
		return NewMultiObserver(resolved...), nil
	}
}
