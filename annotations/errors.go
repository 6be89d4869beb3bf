package annotations

import (
	"errors"
	"fmt"
)

// Sentinel errors for the editing store.
var (
	ErrUnknownCommand     = errors.New("unknown command")
	ErrCommandExists      = errors.New("command already registered")
	ErrNotEditing         = errors.New("no annotation is being edited")
	ErrAnnotationNotFound = errors.New("annotation not found")
	ErrLoopClosed         = errors.New("event loop closed")
)

// CommandError reports a command that could not be decoded or applied.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
