package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSchema = errors.New("schema error")
	ErrConfig = errors.New("config error")
	ErrIO     = errors.New("io error")
)

// SchemaError reports a field whose spec cannot be compiled.
type SchemaError struct {
	Field  string
	Spec   string
	Reason string
	Msg    string
}

func (e *SchemaError) Error() string {
	var s string
	if e.Field != "" {
		s = fmt.Sprintf("field %q: ", e.Field)
	}
	s += e.Reason
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Spec != "" {
		s += fmt.Sprintf(" (spec %q)", e.Spec)
	}
	return s
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }
