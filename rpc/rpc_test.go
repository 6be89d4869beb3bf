package rpc_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/annotations/annotations"
	"github.com/tailored-agentic-units/annotations/drawsync"
	"github.com/tailored-agentic-units/annotations/geojson"
	"github.com/tailored-agentic-units/annotations/layer"
	"github.com/tailored-agentic-units/annotations/observability"
	"github.com/tailored-agentic-units/annotations/rpc"
)

type fixture struct {
	client   *rpc.Client
	loop     *annotations.Loop
	owner    drawsync.Owner
	recorder *observability.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	buf := &drawsync.Buffer{}
	rec := &observability.Recorder{}
	owner := drawsync.NewOwner(drawsync.DefaultOwnerName)
	cfg := annotations.DefaultConfig()

	s, err := annotations.New(&cfg,
		annotations.WithDrawer(buf),
		annotations.WithLayerRegistry(layer.NewMemoryRegistry()),
		annotations.WithObserver(rec),
		annotations.WithOwner(owner),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	loop := annotations.NewLoop(context.Background(), s)
	t.Cleanup(func() { loop.Shutdown(time.Second) })

	mux := http.NewServeMux()
	path, handler := rpc.NewHandler(loop, buf, rec)
	mux.Handle(path, handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &fixture{
		client:   rpc.NewClient(srv.Client(), srv.URL),
		loop:     loop,
		owner:    owner,
		recorder: rec,
	}
}

func TestDispatch_Session(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.client.Dispatch(ctx, "StartNew", nil); err != nil {
		t.Fatalf("StartNew failed: %v", err)
	}

	cmds, err := f.client.Dispatch(ctx, "ToggleAddGeometry", map[string]any{"type": "Point"})
	if err != nil {
		t.Fatalf("ToggleAddGeometry failed: %v", err)
	}
	if len(cmds) == 0 {
		t.Fatal("expected drive commands in the response")
	}
	last := cmds[len(cmds)-1]
	if last.Status != drawsync.StatusDrawOrEdit || last.State != drawsync.StateEditGeometry {
		t.Errorf("got %s/%s, want drawOrEdit/editGeometry", last.Status, last.State)
	}
	if last.Method != geojson.Point || !last.Owner.Owns(f.owner) {
		t.Errorf("method %s owner %+v", last.Method, last.Owner)
	}

	drawn := geojson.NewFeature("x", geojson.NewPoint(geojson.Pos(3, 4)))
	drawn.Properties.CanEdit = true
	finalized := drawsync.GeometryFinalized{Features: geojson.Objects{drawn}, Owner: f.owner}
	if _, err := f.client.Dispatch(ctx, "GeometryFinalized", finalized); err != nil {
		t.Fatalf("GeometryFinalized failed: %v", err)
	}
	if _, err := f.client.Dispatch(ctx, "ChangeField", map[string]any{"field": "title", "value": "Harbour"}); err != nil {
		t.Fatalf("ChangeField failed: %v", err)
	}

	cmds, err = f.client.Dispatch(ctx, "SaveEditing", nil)
	if err != nil {
		t.Fatalf("SaveEditing failed: %v", err)
	}
	if len(cmds) == 0 || cmds[len(cmds)-1].Status != drawsync.StatusClean {
		t.Errorf("commands = %+v, want trailing clean", cmds)
	}

	var saved *layer.Layer
	err = f.loop.Do(ctx, func(s *annotations.Store) error {
		var err error
		saved, err = s.Layer(ctx)
		return err
	})
	if err != nil || saved == nil || len(saved.Features) != 1 {
		t.Fatalf("Layer: %v, %v", saved, err)
	}
	fc := saved.Features[0]
	if fc.Properties.Title != "Harbour" {
		t.Errorf("title = %q, want Harbour", fc.Properties.Title)
	}
	if got := fc.Features[0].Geometry.Position; !got.Equal(geojson.Pos(3, 4)) {
		t.Errorf("position = %v, want [3 4]", got)
	}

	if got := len(f.recorder.OfType(rpc.EventDispatch)); got != 5 {
		t.Errorf("got %d dispatch events, want 5", got)
	}
}

func TestDispatch_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		command string
		args    any
		code    connect.Code
	}{
		{"missing command", "", nil, connect.CodeInvalidArgument},
		{"unknown command", "Teleport", nil, connect.CodeNotFound},
		{"bad arguments", "Remove", map[string]any{"id": 7}, connect.CodeInvalidArgument},
		{"needs a session", "CommitSubFeature", nil, connect.CodeFailedPrecondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.client.Dispatch(ctx, tt.command, tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := connect.CodeOf(err); got != tt.code {
				t.Errorf("code = %s, want %s (%v)", got, tt.code, err)
			}
		})
	}
}

func TestDispatch_DesyncIsNotAnError(t *testing.T) {
	f := newFixture(t)

	cmds, err := f.client.Dispatch(context.Background(), "EditExisting", map[string]any{"id": "missing"})
	if err != nil {
		t.Fatalf("EditExisting failed: %v", err)
	}
	if len(cmds) != 0 {
		t.Errorf("got %d commands, want none", len(cmds))
	}
	if len(f.recorder.OfType(annotations.EventDesync)) != 1 {
		t.Error("expected a desync event")
	}
}

func TestDispatch_LoopClosed(t *testing.T) {
	f := newFixture(t)
	if err := f.loop.Shutdown(time.Second); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	_, err := f.client.Dispatch(context.Background(), "StartNew", nil)
	if got := connect.CodeOf(err); got != connect.CodeUnavailable {
		t.Errorf("code = %s, want unavailable (%v)", got, err)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Errorf("got %T, want *connect.Error", err)
	}
}
