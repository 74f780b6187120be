package pileup

import "github.com/pkg/errors"

// Kind classifies a pileup error, per the five fatal error kinds named by
// the error handling design: there is no recovery policy, every kind is
// fatal and should be reported and the process should exit non-zero.
type Kind int

const (
	// UsageError marks malformed or missing CLI arguments.
	UsageError Kind = iota
	// IOError marks a failure to open/stat/mmap input or create output.
	IOError
	// UnknownChromosomeError marks a SAM record referencing a chromosome
	// absent from the reference.
	UnknownChromosomeError
	// InputNotSortedError marks a sort-order violation in the SAM input.
	InputNotSortedError
	// DecoderError marks a malformed SAM record.
	DecoderError
)

func (k Kind) String() string {
	switch k {
	case UsageError:
		return "usage error"
	case IOError:
		return "I/O error"
	case UnknownChromosomeError:
		return "unknown chromosome"
	case InputNotSortedError:
		return "input not sorted"
	case DecoderError:
		return "decoder error"
	default:
		return "error"
	}
}

// Error is a typed, fatal pileup error. The wrapped cause (if any) is kept
// so that %+v formatting prints the full chain, in the style grailbio-bio's
// fasta package uses github.com/pkg/errors for parse-error context.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// newError wraps cause (which may be nil) as a typed Error of the given
// kind, attaching msg as additional context via errors.Wrap.
func newError(kind Kind, cause error, msg string) *Error {
	if cause == nil {
		return &Error{Kind: kind, cause: errors.New(msg)}
	}
	return &Error{Kind: kind, cause: errors.Wrap(cause, msg)}
}

// newErrorf is newError with a formatted message.
func newErrorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, cause: errors.Errorf(format, args...)}
}
