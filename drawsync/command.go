// Package drawsync speaks to the drawing surface shared by several map
// tools. Outbound, it turns the editing state into DriveCommands; inbound,
// it defines the events the surface reports back. Every command and event
// carries an Owner token so tools sharing the surface never act on each
// other's geometry.
package drawsync

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/annotations/geojson"
)

// Status is the instruction a DriveCommand gives the drawing surface.
type Status string

const (
	StatusStart       Status = "start"
	StatusDrawOrEdit  Status = "drawOrEdit"
	StatusReplace     Status = "replace"
	StatusUpdateStyle Status = "updateStyle"
	StatusClean       Status = "clean"
	StatusStop        Status = "stop"
)

// State is the interaction mode the surface is driven into.
type State string

const (
	StateIdle         State = "idle"
	StateSelect       State = "select"
	StateEditGeometry State = "editGeometry"
	StateDrawNew      State = "drawNew"
	StateStyleSession State = "styleSession"
	StateReplace      State = "replace"
	StateClean        State = "clean"
)

// Owner identifies the subsystem driving the surface. Two owners match only
// when both name and token match.
type Owner struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

// NewOwner returns an Owner with a fresh token.
func NewOwner(name string) Owner {
	return Owner{Name: name, Token: uuid.NewString()}
}

// Owns reports whether other designates the same subsystem as o.
func (o Owner) Owns(other Owner) bool {
	return o.Name == other.Name && o.Token == other.Token
}

// IsZero reports whether o is unset.
func (o Owner) IsZero() bool {
	return o.Name == "" && o.Token == ""
}

// Options are the interaction flags sent with a command.
type Options struct {
	FeatureProjection            string `json:"featureProjection,omitempty"`
	StopAfterDrawing             bool   `json:"stopAfterDrawing"`
	EditEnabled                  bool   `json:"editEnabled"`
	SelectEnabled                bool   `json:"selectEnabled"`
	DrawEnabled                  bool   `json:"drawEnabled"`
	TranslateEnabled             bool   `json:"translateEnabled"`
	EditableOnly                 bool   `json:"editFilter,omitempty"`
	AddClickCallback             bool   `json:"addClickCallback,omitempty"`
	UseSelectedStyle             bool   `json:"useSelectedStyle,omitempty"`
	TransformToFeatureCollection bool   `json:"transformToFeatureCollection"`
	Geodesic                     bool   `json:"geodesic,omitempty"`
	Drawing                      bool   `json:"drawing,omitempty"`
}

// Editable reports whether the surface may offer edit handles on f.
func (o Options) Editable(f geojson.Feature) bool {
	if !o.EditableOnly {
		return o.EditEnabled
	}
	return o.EditEnabled && f.Properties.CanEdit
}

// DriveCommand is one message to the drawing surface.
type DriveCommand struct {
	Status   Status                       `json:"status"`
	State    State                        `json:"state"`
	Method   geojson.GeometryType         `json:"method"`
	Owner    Owner                        `json:"owner"`
	Features []*geojson.FeatureCollection `json:"features"`
	Options  Options                      `json:"options"`
	Style    *geojson.Style               `json:"style,omitempty"`
}

// Drawer receives drive commands.
type Drawer interface {
	Drive(ctx context.Context, cmd DriveCommand)
}

// DrawerFunc adapts a function to Drawer.
type DrawerFunc func(ctx context.Context, cmd DriveCommand)

func (f DrawerFunc) Drive(ctx context.Context, cmd DriveCommand) { f(ctx, cmd) }

// Buffer is a Drawer that queues commands until drained. Safe for
// concurrent use.
type Buffer struct {
	mu       sync.Mutex
	commands []DriveCommand
}

func (b *Buffer) Drive(ctx context.Context, cmd DriveCommand) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands = append(b.commands, cmd)
}

// Drain returns and clears the queued commands.
func (b *Buffer) Drain() []DriveCommand {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.commands
	b.commands = nil
	return out
}

// Last returns the most recent queued command without draining.
func (b *Buffer) Last() (DriveCommand, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.commands) == 0 {
		return DriveCommand{}, false
	}
	return b.commands[len(b.commands)-1], true
}
