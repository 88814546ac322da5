package convert

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by Convert wraps exactly one of them,
// with the underlying cause kept in the chain.
var (
	ErrConfiguration   = errors.New("invalid configuration")
	ErrLoad            = errors.New("cannot load model")
	ErrUnsupportedMesh = errors.New("unsupported mesh")
	ErrWorldOpen       = errors.New("cannot open world")
	ErrWrite           = errors.New("world write failed")
	ErrCanceled        = errors.New("conversion canceled")
)

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func canceled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCanceled, cause)
}
