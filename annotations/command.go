package annotations

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/annotations/drawsync"
	"github.com/tailored-agentic-units/annotations/geojson"
	"github.com/tailored-agentic-units/annotations/style"
)

// Command is one inbound event applied to a Store: a user command or a
// drawing surface callback.
type Command interface {
	Name() string
	Apply(ctx context.Context, s *Store) error
}

// Decoder builds a command from its JSON-encoded arguments.
type Decoder func(args json.RawMessage) (Command, error)

type commandRegistry struct {
	entries map[string]Decoder
	mu      sync.RWMutex
}

var commands = &commandRegistry{
	entries: make(map[string]Decoder),
}

// Register adds a command decoder under name.
// Returns ErrCommandExists if the name is taken.
func Register(name string, d Decoder) error {
	commands.mu.Lock()
	defer commands.mu.Unlock()

	if _, exists := commands.entries[name]; exists {
		return fmt.Errorf("%w: %s", ErrCommandExists, name)
	}
	commands.entries[name] = d
	return nil
}

// Commands returns the registered command names, sorted.
func Commands() []string {
	commands.mu.RLock()
	defer commands.mu.RUnlock()

	names := make([]string, 0, len(commands.entries))
	for name := range commands.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Decode builds the command registered under name from args.
func Decode(name string, args json.RawMessage) (Command, error) {
	commands.mu.RLock()
	d, exists := commands.entries[name]
	commands.mu.RUnlock()

	if !exists {
		return nil, &CommandError{Command: name, Err: ErrUnknownCommand}
	}
	cmd, err := d(args)
	if err != nil {
		return nil, &CommandError{Command: name, Err: err}
	}
	return cmd, nil
}

// Apply runs cmd against s. Failures are wrapped in a CommandError.
func Apply(ctx context.Context, s *Store, cmd Command) error {
	if err := cmd.Apply(ctx, s); err != nil {
		return &CommandError{Command: cmd.Name(), Err: err}
	}
	return nil
}

func decoder[T Command]() Decoder {
	return func(args json.RawMessage) (Command, error) {
		var cmd T
		if len(args) > 0 && string(args) != "null" {
			if err := json.Unmarshal(args, &cmd); err != nil {
				return nil, fmt.Errorf("invalid arguments: %w", err)
			}
		}
		return cmd, nil
	}
}

func init() {
	for name, d := range map[string]Decoder{
		StartNew{}.Name():                  decoder[StartNew](),
		EditExisting{}.Name():              decoder[EditExisting](),
		CancelEdit{}.Name():                decoder[CancelEdit](),
		Save{}.Name():                      decoder[Save](),
		SaveEditing{}.Name():               decoder[SaveEditing](),
		Remove{}.Name():                    decoder[Remove](),
		RemoveGeometry{}.Name():            decoder[RemoveGeometry](),
		ToggleAddGeometry{}.Name():         decoder[ToggleAddGeometry](),
		CommitSubFeature{}.Name():          decoder[CommitSubFeature](),
		ToggleStyleSession{}.Name():        decoder[ToggleStyleSession](),
		SetStyle{}.Name():                  decoder[SetStyle](),
		RestoreStyle{}.Name():              decoder[RestoreStyle](),
		ConfirmStyle{}.Name():              decoder[ConfirmStyle](),
		ChangeRadius{}.Name():              decoder[ChangeRadius](),
		ChangeText{}.Name():                decoder[ChangeText](),
		ChangeSelectedCoordinates{}.Name(): decoder[ChangeSelectedCoordinates](),
		ResetCoordinateEditor{}.Name():     decoder[ResetCoordinateEditor](),
		ConfirmDeleteFeature{}.Name():      decoder[ConfirmDeleteFeature](),
		ToggleVisibility{}.Name():          decoder[ToggleVisibility](),
		SetEditingFeature{}.Name():         decoder[SetEditingFeature](),
		ChangeField{}.Name():               decoder[ChangeField](),
		Highlight{}.Name():                 decoder[Highlight](),
		CleanHighlight{}.Name():            decoder[CleanHighlight](),
		LoadAnnotations{}.Name():           decoder[LoadAnnotations](),
		Download{}.Name():                  decoder[Download](),
		LoadDefaultStyles{}.Name():         decoder[LoadDefaultStyles](),
		FeatureDraftUpdate{}.Name():        decoder[FeatureDraftUpdate](),
		GeometryFinalized{}.Name():         decoder[GeometryFinalized](),
		FeatureListSelected{}.Name():       decoder[FeatureListSelected](),
	} {
		if err := Register(name, d); err != nil {
			panic(err)
		}
	}
}

type StartNew struct{}

func (StartNew) Name() string                              { return "StartNew" }
func (StartNew) Apply(ctx context.Context, s *Store) error { return s.StartNew(ctx) }

type EditExisting struct {
	ID string `json:"id"`
}

func (EditExisting) Name() string                                { return "EditExisting" }
func (c EditExisting) Apply(ctx context.Context, s *Store) error { return s.EditExisting(ctx, c.ID) }

type CancelEdit struct{}

func (CancelEdit) Name() string                              { return "CancelEdit" }
func (CancelEdit) Apply(ctx context.Context, s *Store) error { return s.CancelEdit(ctx) }

// Save persists an annotation. Arguments follow SaveRequest.
type Save struct {
	SaveRequest
}

func (Save) Name() string                                { return "Save" }
func (c Save) Apply(ctx context.Context, s *Store) error { return s.Save(ctx, c.SaveRequest) }

type SaveEditing struct{}

func (SaveEditing) Name() string                              { return "SaveEditing" }
func (SaveEditing) Apply(ctx context.Context, s *Store) error { return s.SaveEditing(ctx) }

type Remove struct {
	ID string `json:"id"`
}

func (Remove) Name() string                                { return "Remove" }
func (c Remove) Apply(ctx context.Context, s *Store) error { return s.Remove(ctx, c.ID) }

// RemoveGeometry deletes one sub-feature of the edited annotation.
type RemoveGeometry struct {
	ID string `json:"id"`
}

func (RemoveGeometry) Name() string { return "RemoveGeometry" }
func (c RemoveGeometry) Apply(ctx context.Context, s *Store) error {
	return s.DeleteSubFeature(ctx, c.ID)
}

type ToggleAddGeometry struct {
	Type geojson.GeometryType `json:"type"`
}

func (ToggleAddGeometry) Name() string { return "ToggleAddGeometry" }
func (c ToggleAddGeometry) Apply(ctx context.Context, s *Store) error {
	return s.ToggleAddGeometry(ctx, c.Type)
}

type CommitSubFeature struct{}

func (CommitSubFeature) Name() string                              { return "CommitSubFeature" }
func (CommitSubFeature) Apply(ctx context.Context, s *Store) error { return s.CommitSubFeature(ctx) }

type ToggleStyleSession struct{}

func (ToggleStyleSession) Name() string { return "ToggleStyleSession" }
func (ToggleStyleSession) Apply(ctx context.Context, s *Store) error {
	return s.ToggleStyleSession(ctx)
}

type SetStyle struct {
	Style []geojson.Style `json:"style"`
}

func (SetStyle) Name() string                                { return "SetStyle" }
func (c SetStyle) Apply(ctx context.Context, s *Store) error { return s.SetStyle(ctx, c.Style) }

type RestoreStyle struct{}

func (RestoreStyle) Name() string                              { return "RestoreStyle" }
func (RestoreStyle) Apply(ctx context.Context, s *Store) error { return s.RestoreStyle(ctx) }

type ConfirmStyle struct{}

func (ConfirmStyle) Name() string                              { return "ConfirmStyle" }
func (ConfirmStyle) Apply(ctx context.Context, s *Store) error { return s.ConfirmStyle(ctx) }

type ChangeRadius struct {
	Radius     float64            `json:"radius"`
	Components []geojson.Position `json:"components,omitempty"`
	CRS        string             `json:"crs,omitempty"`
}

func (ChangeRadius) Name() string { return "ChangeRadius" }
func (c ChangeRadius) Apply(ctx context.Context, s *Store) error {
	return s.ChangeRadius(ctx, c.Radius, c.Components, c.CRS)
}

type ChangeText struct {
	Text       string             `json:"text"`
	Components []geojson.Position `json:"components,omitempty"`
}

func (ChangeText) Name() string { return "ChangeText" }
func (c ChangeText) Apply(ctx context.Context, s *Store) error {
	return s.ChangeText(ctx, c.Text, c.Components)
}

// ChangeSelectedCoordinates edits the working sub-feature's coordinates.
// Arguments follow CoordinateChange.
type ChangeSelectedCoordinates struct {
	CoordinateChange
}

func (ChangeSelectedCoordinates) Name() string { return "ChangeSelectedCoordinates" }
func (c ChangeSelectedCoordinates) Apply(ctx context.Context, s *Store) error {
	return s.ChangeSelectedCoordinates(ctx, c.CoordinateChange)
}

// ResetCoordinateEditor abandons the working sub-feature.
type ResetCoordinateEditor struct{}

func (ResetCoordinateEditor) Name() string { return "ResetCoordinateEditor" }
func (ResetCoordinateEditor) Apply(ctx context.Context, s *Store) error {
	return s.ResetOrCancelSubFeature(ctx)
}

type ConfirmDeleteFeature struct{}

func (ConfirmDeleteFeature) Name() string { return "ConfirmDeleteFeature" }
func (ConfirmDeleteFeature) Apply(ctx context.Context, s *Store) error {
	return s.ConfirmDeleteFeature(ctx)
}

type ToggleVisibility struct {
	ID    string `json:"id"`
	Value *bool  `json:"value,omitempty"`
}

func (ToggleVisibility) Name() string { return "ToggleVisibility" }
func (c ToggleVisibility) Apply(ctx context.Context, s *Store) error {
	return s.ToggleVisibility(ctx, c.ID, c.Value)
}

type SetEditingFeature struct {
	Collection *geojson.FeatureCollection `json:"collection"`
}

func (SetEditingFeature) Name() string { return "SetEditingFeature" }
func (c SetEditingFeature) Apply(ctx context.Context, s *Store) error {
	return s.SetEditingFeature(ctx, c.Collection)
}

type ChangeField struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

func (ChangeField) Name() string { return "ChangeField" }
func (c ChangeField) Apply(ctx context.Context, s *Store) error {
	return s.ChangeField(ctx, c.Field, c.Value)
}

type Highlight struct {
	ID string `json:"id"`
}

func (Highlight) Name() string                                { return "Highlight" }
func (c Highlight) Apply(ctx context.Context, s *Store) error { return s.Highlight(ctx, c.ID) }

type CleanHighlight struct{}

func (CleanHighlight) Name() string                              { return "CleanHighlight" }
func (CleanHighlight) Apply(ctx context.Context, s *Store) error { return s.CleanHighlight(ctx) }

type LoadAnnotations struct {
	Features []*geojson.FeatureCollection `json:"features"`
	Override bool                         `json:"override,omitempty"`
}

func (LoadAnnotations) Name() string { return "LoadAnnotations" }
func (c LoadAnnotations) Apply(ctx context.Context, s *Store) error {
	return s.LoadAnnotations(ctx, c.Features, c.Override)
}

type Download struct {
	ID string `json:"id,omitempty"`
}

func (Download) Name() string                                { return "Download" }
func (c Download) Apply(ctx context.Context, s *Store) error { return s.Download(ctx, c.ID) }

// LoadDefaultStyles starts loading default symbol styles without waiting
// for the result. Zero fields take the configured values.
type LoadDefaultStyles struct {
	Shapes      []string `json:"shapes,omitempty"`
	Size        int      `json:"size,omitempty"`
	FillColor   string   `json:"fillColor,omitempty"`
	StrokeColor string   `json:"strokeColor,omitempty"`
	SymbolsPath string   `json:"symbolsPath,omitempty"`
}

func (LoadDefaultStyles) Name() string { return "LoadDefaultStyles" }
func (c LoadDefaultStyles) Apply(ctx context.Context, s *Store) error {
	s.LoadDefaultStylesAsync(ctx, c.request(s.cfg.Style))
	return nil
}

func (c LoadDefaultStyles) request(cfg style.Config) style.Request {
	req := cfg.Request()
	if len(c.Shapes) > 0 {
		req.Shapes = c.Shapes
	}
	if c.Size > 0 {
		req.Size = c.Size
	}
	if c.FillColor != "" {
		req.FillColor = c.FillColor
	}
	if c.StrokeColor != "" {
		req.StrokeColor = c.StrokeColor
	}
	if c.SymbolsPath != "" {
		req.SymbolsPath = c.SymbolsPath
	}
	return req
}

// FeatureDraftUpdate carries a drawing surface draft into the store.
type FeatureDraftUpdate struct {
	drawsync.FeatureDraftUpdate
}

func (FeatureDraftUpdate) Name() string { return "FeatureDraftUpdate" }
func (c FeatureDraftUpdate) Apply(ctx context.Context, s *Store) error {
	return s.ReceiveDraftUpdate(ctx, c.FeatureDraftUpdate)
}

// GeometryFinalized carries a finished drawing into the store.
type GeometryFinalized struct {
	drawsync.GeometryFinalized
}

func (GeometryFinalized) Name() string { return "GeometryFinalized" }
func (c GeometryFinalized) Apply(ctx context.Context, s *Store) error {
	return s.ReceiveFinalized(ctx, c.GeometryFinalized)
}

// FeatureListSelected carries a surface selection into the store.
type FeatureListSelected struct {
	drawsync.FeatureListSelected
}

func (FeatureListSelected) Name() string { return "FeatureListSelected" }
func (c FeatureListSelected) Apply(ctx context.Context, s *Store) error {
	return s.ReceiveSelection(ctx, c.FeatureListSelected)
}
