package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every malformed declaration and every value
	// that cannot be encoded safely for the external program.
	ErrConfiguration = errors.New("configuration error")

	// ErrUnresolvedSelector is matched when no conditional rule applies to a
	// configuration whose selector is mandatory.
	ErrUnresolvedSelector = errors.New("unresolved selector")

	// ErrMissingField is matched when a case-name template references a field
	// that the configuration does not bind.
	ErrMissingField = errors.New("missing field")

	// ErrDispatchFailure is matched when an external run exits non-zero or
	// cannot be started.
	ErrDispatchFailure = errors.New("dispatch failure")

	// ErrProgressNotFound is returned when no progress has been recorded for a sweep.
	ErrProgressNotFound = errors.New("progress not found")

	// ErrIndexOutOfRange is returned when a configuration index falls outside the space.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// ConfigurationError reports a malformed declaration or an unsafe value.
type ConfigurationError struct {
	Param  string // Parameter name, if any
	Reason string // Human-readable reason for failure
	Value  any    // The offending value, if any
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Param != "" {
		msg += fmt.Sprintf(": parameter %q", e.Param)
	}
	msg += ": " + e.Reason
	if e.Value != nil {
		msg += fmt.Sprintf(" (got %#v)", e.Value)
	}
	return msg
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// DuplicateAxisError is returned when a parameter name is declared twice,
// either as an axis or as a fixed parameter.
type DuplicateAxisError struct {
	Name string
}

func (e *DuplicateAxisError) Error() string {
	return fmt.Sprintf("configuration error: parameter %q is already defined", e.Name)
}

func (e *DuplicateAxisError) Is(target error) bool { return target == ErrConfiguration }

// EmptyAxisError is returned when an axis is declared without candidate values.
type EmptyAxisError struct {
	Name string
}

func (e *EmptyAxisError) Error() string {
	return fmt.Sprintf("configuration error: axis %q has no values", e.Name)
}

func (e *EmptyAxisError) Is(target error) bool { return target == ErrConfiguration }

// DuplicateRuleError is returned when two conditional rules match the same
// selector value.
type DuplicateRuleError struct {
	Selector string
	Match    Value
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("configuration error: more than one rule for %s=%s", e.Selector, e.Match)
}

func (e *DuplicateRuleError) Is(target error) bool { return target == ErrConfiguration }

// UnresolvedSelectorError is returned when a mandatory selector has no matching rule.
type UnresolvedSelectorError struct {
	Selector string
	Value    Value
	Present  bool // false when the configuration does not bind the selector at all
}

func (e *UnresolvedSelectorError) Error() string {
	if !e.Present {
		return fmt.Sprintf("unresolved selector: %q is not bound", e.Selector)
	}
	return fmt.Sprintf("unresolved selector: no rule for %s=%s", e.Selector, e.Value)
}

func (e *UnresolvedSelectorError) Is(target error) bool { return target == ErrUnresolvedSelector }

// MissingFieldError is returned when a template references an unbound field.
type MissingFieldError struct {
	Field    string
	Template string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field: template %q references %q", e.Template, e.Field)
}

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// DispatchFailure reports a run that exited non-zero or never started.
type DispatchFailure struct {
	ExitCode int
	Err      error // Set when the process could not be started
}

func (e *DispatchFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dispatch failure: %v", e.Err)
	}
	return fmt.Sprintf("dispatch failure: exit status %d", e.ExitCode)
}

func (e *DispatchFailure) Unwrap() error { return e.Err }

func (e *DispatchFailure) Is(target error) bool { return target == ErrDispatchFailure }

// RunError attaches the offending configuration and its case name to an
// error, so that a failure can be reproduced from the message alone.
type RunError struct {
	Index  int
	Case   string
	Config Configuration
	Err    error
}

func (e *RunError) Error() string {
	if e.Case == "" {
		return fmt.Sprintf("run %d %s: %v", e.Index, e.Config, e.Err)
	}
	return fmt.Sprintf("run %d (%s) %s: %v", e.Index, e.Case, e.Config, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
