package lphash

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Kind classifies an Error per spec.md §7's error taxonomy.
type Kind int

const (
	// ConfigurationError: invalid k, m, seed; unwritable temporary
	// directory.
	ConfigurationError Kind = iota
	// InputError: malformed contig stream.
	InputError
	// ResourceError: out-of-disk in external sort; memory budget
	// unsatisfiable.
	ResourceError
	// InternalInvariantViolation: assertion-like checks failed; always a
	// bug, never a user input problem.
	InternalInvariantViolation
	// QueryError: unrecognized category tag at query time.
	QueryError
)

func (k Kind) String() string {
	switch k {
	case ConfigurationError:
		return "ConfigurationError"
	case InputError:
		return "InputError"
	case ResourceError:
		return "ResourceError"
	case InternalInvariantViolation:
		return "InternalInvariantViolation"
	case QueryError:
		return "QueryError"
	default:
		return "UnknownError"
	}
}

// Error wraps a github.com/grailbio/base/errors.E-built error with one of
// spec.md §7's taxonomy kinds, grounded on encoding/fastq/downsample.go and
// encoding/pam/pamutil's errors.E(...) call style: errors.E accepts a
// free mix of an underlying error and string/value context, and the
// teacher never re-derives its own formatter on top, so Kind wraps
// errors.E's result rather than replacing it.
type Error struct {
	Kind Kind
	err  error
}

func (e *Error) Error() string { return fmt.Sprintf("lphash: %s: %v", e.Kind, e.err) }
func (e *Error) Unwrap() error { return e.err }

// newError builds an Error of the given Kind from errors.E-style args (an
// optional leading error plus string/value context).
func newError(k Kind, args ...interface{}) error {
	return &Error{Kind: k, err: errors.E(args...)}
}

func configError(args ...interface{}) error { return newError(ConfigurationError, args...) }
func inputError(args ...interface{}) error  { return newError(InputError, args...) }
func resourceError(args ...interface{}) error { return newError(ResourceError, args...) }
func invariantError(args ...interface{}) error {
	return newError(InternalInvariantViolation, args...)
}
func queryError(args ...interface{}) error { return newError(QueryError, args...) }
