package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/annotations/drawsync"
)

// Client calls a remote annotation service.
type Client struct {
	dispatch *connect.Client[structpb.Struct, structpb.Struct]
}

// NewClient creates a Client for the service at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	return &Client{
		dispatch: connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+DispatchProcedure, opts...),
	}
}

// Dispatch sends the named command with args, which may be nil or any
// value that encodes to JSON, and returns the drive commands the store
// emitted.
func (c *Client) Dispatch(ctx context.Context, command string, args any) ([]drawsync.DriveCommand, error) {
	msg, err := encodeRequest(command, args)
	if err != nil {
		return nil, err
	}

	res, err := c.dispatch.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}

	data, err := protojson.Marshal(res.Msg)
	if err != nil {
		return nil, fmt.Errorf("%w: response: %v", ErrInvalidPayload, err)
	}
	var result dispatchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("%w: response: %v", ErrInvalidPayload, err)
	}
	return result.Commands, nil
}

func encodeRequest(command string, args any) (*structpb.Struct, error) {
	msg := &structpb.Struct{Fields: map[string]*structpb.Value{
		"command": structpb.NewStringValue(command),
	}}
	if args == nil {
		return msg, nil
	}

	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("%w: args: %v", ErrInvalidPayload, err)
	}
	var v structpb.Value
	if err := protojson.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: args: %v", ErrInvalidPayload, err)
	}
	msg.Fields["args"] = &v
	return msg, nil
}
