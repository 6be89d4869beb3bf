// Package rpc exposes an annotation editing Loop over Connect. A single
// unary procedure takes a command name with JSON arguments and answers with
// the drive commands the store emitted while handling it.
//
// Payloads are google.protobuf.Struct values so the free-form command
// arguments and drive commands travel without generated message types:
//
//	request:  {"command": "ToggleAddGeometry", "args": {"type": "Point"}}
//	response: {"commands": [{"status": "drawOrEdit", ...}]}
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/annotations/annotations"
	"github.com/tailored-agentic-units/annotations/drawsync"
	"github.com/tailored-agentic-units/annotations/observability"
)

const (
	// ServiceName is the fully-qualified name of the annotation service.
	ServiceName = "annotations.v1.AnnotationService"
	// DispatchProcedure is the path of the dispatch procedure.
	DispatchProcedure = "/" + ServiceName + "/Dispatch"
)

// EventDispatch is emitted once per handled request.
const EventDispatch observability.EventType = "rpc.dispatch"

// Sentinel errors for malformed requests.
var (
	ErrMissingCommand = errors.New("command name is required")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Handler serves the dispatch procedure for one Loop. The store driven by
// the loop must send its drive commands to the Buffer given to the handler.
type Handler struct {
	loop     *annotations.Loop
	buffer   *drawsync.Buffer
	observer observability.Observer

	// serializes dispatch and drain so each response only carries the
	// commands its request produced (plus any asynchronous ones queued
	// since the previous request)
	mu sync.Mutex
}

// NewHandler builds the Connect handler and returns the path to mount it
// on.
func NewHandler(loop *annotations.Loop, buffer *drawsync.Buffer, observer observability.Observer, opts ...connect.HandlerOption) (string, http.Handler) {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	h := &Handler{loop: loop, buffer: buffer, observer: observer}
	return DispatchProcedure, connect.NewUnaryHandler(DispatchProcedure, h.Dispatch, opts...)
}

// Dispatch decodes the requested command, applies it on the loop, and
// returns the drive commands emitted since the last request.
func (h *Handler) Dispatch(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	name, args, err := decodeRequest(req.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	cmd, err := annotations.Decode(name, args)
	if err != nil {
		code := connect.CodeInvalidArgument
		if errors.Is(err, annotations.ErrUnknownCommand) {
			code = connect.CodeNotFound
		}
		return nil, connect.NewError(code, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	err = h.loop.Dispatch(ctx, cmd)
	commands := h.buffer.Drain()

	data := map[string]any{
		"command":  name,
		"commands": len(commands),
	}
	level := observability.LevelVerbose
	if err != nil {
		data["error"] = err.Error()
		level = observability.LevelWarning
	}
	observability.Emit(ctx, h.observer, EventDispatch, level, "rpc.Handler", data)

	if err != nil {
		return nil, connect.NewError(codeOf(err), err)
	}

	msg, err := encodeCommands(commands)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

func decodeRequest(msg *structpb.Struct) (string, json.RawMessage, error) {
	fields := msg.GetFields()
	name := fields["command"].GetStringValue()
	if name == "" {
		return "", nil, ErrMissingCommand
	}

	v, ok := fields["args"]
	if !ok {
		return name, nil, nil
	}
	args, err := protojson.Marshal(v)
	if err != nil {
		return "", nil, fmt.Errorf("%w: args: %v", ErrInvalidPayload, err)
	}
	return name, args, nil
}

type dispatchResult struct {
	Commands []drawsync.DriveCommand `json:"commands"`
}

func encodeCommands(commands []drawsync.DriveCommand) (*structpb.Struct, error) {
	if commands == nil {
		commands = []drawsync.DriveCommand{}
	}
	data, err := json.Marshal(dispatchResult{Commands: commands})
	if err != nil {
		return nil, fmt.Errorf("%w: encode commands: %v", ErrInvalidPayload, err)
	}
	var msg structpb.Struct
	if err := protojson.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: encode commands: %v", ErrInvalidPayload, err)
	}
	return &msg, nil
}

func codeOf(err error) connect.Code {
	switch {
	case errors.Is(err, annotations.ErrNotEditing):
		return connect.CodeFailedPrecondition
	case errors.Is(err, annotations.ErrAnnotationNotFound):
		return connect.CodeNotFound
	case errors.Is(err, annotations.ErrLoopClosed):
		return connect.CodeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	default:
		return connect.CodeInternal
	}
}
