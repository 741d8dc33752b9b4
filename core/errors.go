package core

import (
	"errors"
	"fmt"
)

// ErrPipelineTimeout marks an agent pipeline that exceeded the arbitration
// deadline. The agent is excluded from the current cycle's winner pool; its
// in-flight thoughts still land in the reservoir when they complete.
var ErrPipelineTimeout = errors.New("agent pipeline timed out")

// ConfigurationError reports an out-of-range ProactivityConfig field. It
// fails fast at agent construction.
type ConfigurationError struct {
	Field  string
	Value  float64
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%g %s", e.Field, e.Value, e.Reason)
}

// GenerationError wraps a failed external generation or scoring call. The
// affected thought candidate is discarded; sibling candidates proceed.
type GenerationError struct {
	Op  string // "system1", "system2", "evaluate", "articulate", "embed"
	Err error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying provider error.
func (e *GenerationError) Unwrap() error { return e.Err }
