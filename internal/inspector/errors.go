package inspector

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("file does not exist")
	ErrInvalidInput = errors.New("invalid input")
	ErrIO           = errors.New("i/o failure")
)

// PathError records an error and the operation and source that caused it.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err indicates the source does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput reports whether err indicates a rejected source or option.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsIO reports whether err came from reading the source.
func IsIO(err error) bool {
	return errors.Is(err, ErrIO)
}

func invalidf(op, path, format string, args ...any) error {
	return &PathError{Op: op, Path: path, Err: fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)}
}

func ioFailure(op, path string, err error) error {
	return &PathError{Op: op, Path: path, Err: fmt.Errorf("%w: %w", ErrIO, err)}
}
