// Package errutil holds the error kinds shared across the module plus
// debug-only invariant checks.
package errutil

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the public API wraps exactly one of
// these, so callers dispatch with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrLogic           = errors.New("logic error")
	ErrIO              = errors.New("io error")
	ErrFormat          = errors.New("format error")
	ErrBound           = errors.New("bound error")
	ErrRange           = errors.New("range error")
)

// Wrap attaches a kind to a formatted message.
func Wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

const debug = false

func First(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func Bug(format string, msg ...any) {
	if debug {
		panic(fmt.Sprintf(format, msg...))
	}
}

func BugOn(cond bool, format string, msg ...any) {
	if debug && cond {
		Bug(format, msg...)
	}
}
