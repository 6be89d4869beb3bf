package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/annotations/observability"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		level observability.Level
		text  string
		slog  slog.Level
	}{
		{1, "TRACE", slog.LevelDebug},
		{observability.LevelVerbose, "DEBUG", slog.LevelDebug},
		{observability.LevelInfo, "INFO", slog.LevelInfo},
		{observability.LevelWarning, "WARN", slog.LevelWarn},
		{observability.LevelError, "ERROR", slog.LevelError},
		{21, "FATAL", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := tt.level.String(); got != tt.text {
				t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.text)
			}
			if got := tt.level.SlogLevel(); got != tt.slog {
				t.Errorf("Level(%d).SlogLevel() = %v, want %v", tt.level, got, tt.slog)
			}
		})
	}

	// OTel severity numbers: DEBUG 5, INFO 9, WARN 13, ERROR 17.
	if observability.LevelVerbose != 5 || observability.LevelInfo != 9 ||
		observability.LevelWarning != 13 || observability.LevelError != 17 {
		t.Error("levels drifted from OTel severity numbers")
	}
}

func TestMultiObserver(t *testing.T) {
	a, b := &observability.Recorder{}, &observability.Recorder{}
	multi := observability.NewMultiObserver(nil, a, nil, b)

	multi.OnEvent(context.Background(), observability.Event{Type: "annotations.save"})

	for i, rec := range []*observability.Recorder{a, b} {
		if got := len(rec.OfType("annotations.save")); got != 1 {
			t.Errorf("recorder %d got %d events, want 1", i, got)
		}
	}
	observability.NoOpObserver{}.OnEvent(context.Background(), observability.Event{})
}

func logTo(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level}))
}

func TestSlogObserver_Threshold(t *testing.T) {
	tests := []struct {
		name    string
		level   observability.Level
		handler slog.Level
		logged  bool
	}{
		{"verbose at debug", observability.LevelVerbose, slog.LevelDebug, true},
		{"verbose at info", observability.LevelVerbose, slog.LevelInfo, false},
		{"info at warn", observability.LevelInfo, slog.LevelWarn, false},
		{"warning at warn", observability.LevelWarning, slog.LevelWarn, true},
		{"error at error", observability.LevelError, slog.LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			observability.NewSlogObserver(logTo(&buf, tt.handler)).OnEvent(context.Background(), observability.Event{
				Type:  "drawsync.command",
				Level: tt.level,
			})
			if (buf.Len() > 0) != tt.logged {
				t.Errorf("logged = %v, want %v (%q)", buf.Len() > 0, tt.logged, buf.String())
			}
		})
	}
}

func TestSlogObserver_Record(t *testing.T) {
	var buf bytes.Buffer
	observability.NewSlogObserver(logTo(&buf, slog.LevelDebug)).OnEvent(context.Background(), observability.Event{
		Type:   "annotations.edit.start",
		Level:  observability.LevelInfo,
		Source: "annotations.StartNew",
		Data:   map[string]any{"features": 3},
	})

	out := buf.String()
	for _, want := range []string{"msg=annotations.edit.start", "source=annotations.StartNew", "features=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestSlogObserver_FollowsDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	slog.SetDefault(logTo(&buf, slog.LevelInfo))

	observability.NewSlogObserver(nil).OnEvent(context.Background(), observability.Event{
		Type:   "annotations.save",
		Level:  observability.LevelInfo,
		Source: "annotations.Save",
	})

	if !strings.Contains(buf.String(), "annotations.save") {
		t.Errorf("expected default logger output, got: %q", buf.String())
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range []string{"noop", "slog", "warn"} {
		if obs, err := observability.GetObserver(name); err != nil || obs == nil {
			t.Errorf("GetObserver(%q) = %v, %v", name, obs, err)
		}
	}
	if _, err := observability.GetObserver("nonexistent"); err == nil {
		t.Error("expected error for unknown observer")
	}

	rec := &observability.Recorder{}
	observability.RegisterObserver("test-custom", rec)
	obs, err := observability.GetObserver("test-custom")
	if err != nil {
		t.Fatalf("GetObserver failed: %v", err)
	}
	obs.OnEvent(context.Background(), observability.Event{Type: "layer.update"})
	if len(rec.Events()) != 1 {
		t.Errorf("received %d events, want 1", len(rec.Events()))
	}
}

func TestResolveObservers(t *testing.T) {
	rec := &observability.Recorder{}
	observability.RegisterObserver("test-resolve", rec)

	tests := []struct {
		name    string
		names   string
		wantErr bool
		check   func(observability.Observer) bool
	}{
		{"single", "test-resolve", false, func(o observability.Observer) bool { return o == rec }},
		{"several", "noop, test-resolve", false, func(o observability.Observer) bool {
			_, ok := o.(*observability.MultiObserver)
			return ok
		}},
		{"unknown", "slog,nonexistent", true, nil},
		{"empty", " , ", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs, err := observability.ResolveObservers(tt.names)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(obs) {
				t.Errorf("got %T", obs)
			}
		})
	}
}

func TestLevelFilter(t *testing.T) {
	rec := &observability.Recorder{}
	f := observability.LevelFilter{Min: observability.LevelWarning, Next: rec}

	ctx := context.Background()
	f.OnEvent(ctx, observability.Event{Type: "low", Level: observability.LevelInfo})
	f.OnEvent(ctx, observability.Event{Type: "high", Level: observability.LevelError})

	events := rec.Events()
	if len(events) != 1 || events[0].Type != "high" {
		t.Errorf("events = %+v, want only high", events)
	}
}

func TestEmit(t *testing.T) {
	rec := &observability.Recorder{}
	observability.Emit(context.Background(), rec, "layer.update", observability.LevelVerbose, "annotations.storeLayer", nil)

	events := rec.Events()
	if len(events) != 1 {
		t.Fatalf("recorded %d events, want 1", len(events))
	}
	e := events[0]
	if e.Type != "layer.update" || e.Source != "annotations.storeLayer" {
		t.Errorf("event = %+v", e)
	}
	if e.Data == nil || e.Timestamp.IsZero() {
		t.Error("expected data and timestamp set")
	}

	observability.Emit(context.Background(), nil, "ignored", observability.LevelInfo, "test", nil)
}

func TestRecorder(t *testing.T) {
	rec := &observability.Recorder{}
	ctx := context.Background()
	for _, typ := range []observability.EventType{"a", "b", "a"} {
		rec.OnEvent(ctx, observability.Event{Type: typ})
	}

	if got := len(rec.OfType("a")); got != 2 {
		t.Errorf("OfType(a) = %d, want 2", got)
	}
	if got := len(rec.OfType("c")); got != 0 {
		t.Errorf("OfType(c) = %d, want 0", got)
	}

	rec.Reset()
	if got := len(rec.Events()); got != 0 {
		t.Errorf("Events after Reset = %d, want 0", got)
	}
}
