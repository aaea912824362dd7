package collector

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyAnswer   = errors.New("empty answer")
	ErrInvalidAnswer = errors.New("invalid answer")
	ErrComplete      = errors.New("collection complete")
)

// InputError is a rejected answer. The collector's state is unchanged.
type InputError struct {
	Key string
	Err error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }
