// Package observability carries structured events out of the editing core.
// Every subsystem emits Events through an Observer; the slog-backed observer
// turns them into log records. Level values follow OpenTelemetry severity
// numbers so records map directly onto OTel log severities.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level is an event severity on the OTel SeverityNumber scale.
type Level int

const (
	LevelVerbose Level = 5  // DEBUG range
	LevelInfo    Level = 9  // INFO range
	LevelWarning Level = 13 // WARN range
	LevelError   Level = 17 // ERROR range
)

// severity bands: each entry is the highest level of its range.
var bands = []struct {
	max  Level
	name string
	slog slog.Level
}{
	{4, "TRACE", slog.LevelDebug},
	{8, "DEBUG", slog.LevelDebug},
	{12, "INFO", slog.LevelInfo},
	{16, "WARN", slog.LevelWarn},
	{20, "ERROR", slog.LevelError},
}

// String returns the OTel severity text.
func (l Level) String() string {
	for _, b := range bands {
		if l <= b.max {
			return b.name
		}
	}
	return "FATAL"
}

// SlogLevel maps l to the slog level used when logging it.
func (l Level) SlogLevel() slog.Level {
	for _, b := range bands {
		if l <= b.max {
			return b.slog
		}
	}
	return slog.LevelError
}

// EventType names an event. Packages declare their own constants such as
// "annotations.edit.start" or "drawsync.command".
type EventType string

// Event is one observation. Source names the emitting operation and Data
// holds flat attributes.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives events.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// Emit sends an event stamped with the current time. A nil observer is
// ignored.
func Emit(ctx context.Context, o Observer, t EventType, level Level, source string, data map[string]any) {
	if o == nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	o.OnEvent(ctx, Event{
		Type:      t,
		Level:     level,
		Timestamp: time.Now(),
		Source:    source,
		Data:      data,
	})
}
