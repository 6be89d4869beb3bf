package drawsync

import (
	"context"

	"github.com/tailored-agentic-units/annotations/geojson"
	"github.com/tailored-agentic-units/annotations/geometry"
	"github.com/tailored-agentic-units/annotations/observability"
	"github.com/tailored-agentic-units/annotations/style"
)

// EventCommand is emitted for every outbound drive command.
const EventCommand observability.EventType = "drawsync.command"

// Protocol builds drive commands for one owner and tracks the mode the
// surface was last driven into.
type Protocol struct {
	owner    Owner
	cfg      Config
	drawer   Drawer
	observer observability.Observer
	state    State
}

// NewProtocol creates a Protocol sending commands to drawer.
func NewProtocol(owner Owner, cfg Config, drawer Drawer, observer observability.Observer) *Protocol {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	if drawer == nil {
		drawer = DrawerFunc(func(context.Context, DriveCommand) {})
	}
	return &Protocol{
		owner:    owner,
		cfg:      cfg,
		drawer:   drawer,
		observer: observer,
		state:    StateIdle,
	}
}

// Owner returns the owner token stamped on every command.
func (p *Protocol) Owner() Owner {
	return p.owner
}

// State returns the mode of the last command sent.
func (p *Protocol) State() State {
	return p.state
}

// Accepts reports whether an inbound event from owner concerns p.
func (p *Protocol) Accepts(owner Owner) bool {
	return p.owner.Owns(owner)
}

func (p *Protocol) baseOptions() Options {
	return Options{
		FeatureProjection:            p.cfg.FeatureProjection,
		StopAfterDrawing:             !p.cfg.MultiGeometry(),
		TransformToFeatureCollection: true,
	}
}

// Select lets the user pick any feature of fc without editing handles.
func (p *Protocol) Select(ctx context.Context, fc *geojson.FeatureCollection, method geojson.GeometryType) DriveCommand {
	opts := p.baseOptions()
	opts.SelectEnabled = true
	return p.drawOrEdit(ctx, StateSelect, fc, method, opts)
}

// ReadOnly shows fc with every interaction disabled, used while a style
// session is open.
func (p *Protocol) ReadOnly(ctx context.Context, fc *geojson.FeatureCollection, method geojson.GeometryType) DriveCommand {
	return p.drawOrEdit(ctx, StateStyleSession, fc, method, p.baseOptions())
}

// EditGeometry offers edit handles on the single feature flagged canEdit.
func (p *Protocol) EditGeometry(ctx context.Context, fc *geojson.FeatureCollection, method geojson.GeometryType) DriveCommand {
	opts := p.baseOptions()
	opts.EditEnabled = true
	opts.EditableOnly = true
	opts.AddClickCallback = true
	opts.UseSelectedStyle = true
	return p.drawOrEdit(ctx, StateEditGeometry, fc, method, opts)
}

// StartDrawing prepares the surface for a new sub-feature. Circles are
// defined by one click and use draw mode; other shapes grow vertex by
// vertex in edit mode.
func (p *Protocol) StartDrawing(ctx context.Context, fc *geojson.FeatureCollection, method geojson.GeometryType) DriveCommand {
	opts := p.baseOptions()
	opts.EditableOnly = true
	opts.UseSelectedStyle = true
	opts.AddClickCallback = true
	opts.Drawing = true
	state := StateEditGeometry
	if method == geojson.Circle {
		opts.DrawEnabled = true
		state = StateDrawNew
	} else {
		opts.EditEnabled = true
	}
	return p.drawOrEdit(ctx, state, fc, method, opts)
}

// Replace swaps the drawn collection without changing the mode.
func (p *Protocol) Replace(ctx context.Context, fc *geojson.FeatureCollection, method geojson.GeometryType) DriveCommand {
	cmd := p.command(StatusReplace, StateReplace, method, fc, Options{
		FeatureProjection:            p.cfg.FeatureProjection,
		TransformToFeatureCollection: true,
	})
	return p.send(ctx, cmd)
}

// UpdateStyle restyles the given feature.
func (p *Protocol) UpdateStyle(ctx context.Context, f geojson.Feature, method geojson.GeometryType, s geojson.Style) DriveCommand {
	fc := geojson.NewFeatureCollection(f.ID())
	fc.Features = []geojson.Feature{f}
	fc.Style = s
	cmd := p.command(StatusUpdateStyle, p.state, method, fc, Options{})
	return p.send(ctx, cmd)
}

// Clean removes everything the owner drew.
func (p *Protocol) Clean(ctx context.Context, method geojson.GeometryType) DriveCommand {
	cmd := DriveCommand{
		Status:   StatusClean,
		State:    StateClean,
		Method:   method,
		Owner:    p.owner,
		Features: []*geojson.FeatureCollection{},
	}
	return p.send(ctx, cmd)
}

// Stop ends the current add-geometry interaction.
func (p *Protocol) Stop(ctx context.Context, method geojson.GeometryType) DriveCommand {
	cmd := DriveCommand{
		Status:   StatusStop,
		State:    StateSelect,
		Method:   method,
		Owner:    p.owner,
		Features: []*geojson.FeatureCollection{},
	}
	return p.send(ctx, cmd)
}

func (p *Protocol) drawOrEdit(ctx context.Context, state State, fc *geojson.FeatureCollection, method geojson.GeometryType, opts Options) DriveCommand {
	if method == geojson.Circle {
		opts.Geodesic = p.cfg.Geodesic
	}
	return p.send(ctx, p.command(StatusDrawOrEdit, state, method, fc, opts))
}

func (p *Protocol) command(status Status, state State, method geojson.GeometryType, fc *geojson.FeatureCollection, opts Options) DriveCommand {
	cmd := DriveCommand{
		Status:  status,
		State:   state,
		Method:  method,
		Owner:   p.owner,
		Options: opts,
	}
	if fc != nil {
		clean := geometry.SanitizeCollection(fc)
		s := style.Plain(clean.Style)
		cmd.Features = []*geojson.FeatureCollection{clean}
		cmd.Style = &s
	} else {
		cmd.Features = []*geojson.FeatureCollection{}
	}
	return cmd
}

func (p *Protocol) send(ctx context.Context, cmd DriveCommand) DriveCommand {
	p.state = cmd.State
	p.observer.OnEvent(ctx, observability.Event{
		Type:      EventCommand,
		Level:     observability.LevelVerbose,
		Timestamp: now(),
		Source:    "drawsync.Protocol",
		Data: map[string]any{
			"status": string(cmd.Status),
			"state":  string(cmd.State),
			"method": string(cmd.Method),
			"owner":  cmd.Owner.Name,
		},
	})
	p.drawer.Drive(ctx, cmd)
	return cmd
}
