// Package errors defines the abstract error taxonomy used throughout the
// file system: every request handler returns one of the kinds below (or
// wraps one with extra context) rather than a bare [error]. Kinds map onto
// the status codes a host's dispatch table expects at the syscall boundary.
package errors

import (
	stderrors "errors"
	"fmt"
	"syscall"
)

// Kind is one of the abstract error kinds a request handler can raise. A
// Kind is itself an error, so handlers can return one bare, or dress it up
// with [Kind.WithMessage] or [Kind.WrapError] without losing the ability to
// recover the original Kind via errors.Is/errors.As downstream.
type Kind string

func (k Kind) Error() string {
	return string(k)
}

// WithMessage attaches a detail string to k. The result still satisfies
// errors.Is(result, k), since fmt.Errorf's %w keeps k reachable through
// Unwrap.
func (k Kind) WithMessage(message string) error {
	return fmt.Errorf("%w: %s", k, message)
}

// WrapError attaches a lower-level error to k. The result satisfies both
// errors.Is(result, k) and errors.Is(result, err): Go's fmt.Errorf lets a
// single %-format string carry more than one %w verb, and errors.Is walks
// each of them.
func (k Kind) WrapError(err error) error {
	return fmt.Errorf("%w: %w", k, err)
}

// The taxonomy from the request-handler design: each kind maps to exactly one
// errno at the host boundary (see [Kind.Errno]).
const (
	NotFound              = Kind("no such file or directory")
	Exists                = Kind("file already exists")
	NameTooLong           = Kind("name too long")
	OperationNotPermitted = Kind("operation not permitted")
	IsDirectory           = Kind("is a directory")
	NotDirectory          = Kind("not a directory")
	FileTooBig            = Kind("write offset beyond end of file")
	NoSpace               = Kind("no space left on device")
	IOFailed              = Kind("input/output error")
	DirectoryNotEmpty     = Kind("directory not empty")
	InvalidArgument       = Kind("invalid argument")
)

// Errno maps a Kind to the POSIX errno a FUSE-style host expects to see.
// Errors that don't originate from this package (e.g. raw I/O failures
// surfaced without going through [IOFailed]) should be treated as EIO by the
// caller.
func (k Kind) Errno() syscall.Errno {
	switch k {
	case NotFound:
		return syscall.ENOENT
	case Exists:
		return syscall.EEXIST
	case NameTooLong:
		return syscall.ENAMETOOLONG
	case OperationNotPermitted:
		return syscall.EPERM
	case IsDirectory:
		return syscall.EISDIR
	case NotDirectory:
		return syscall.ENOTDIR
	case FileTooBig:
		return syscall.EFBIG
	case NoSpace:
		return syscall.ENOSPC
	case DirectoryNotEmpty:
		return syscall.ENOTEMPTY
	case InvalidArgument:
		return syscall.EINVAL
	case IOFailed:
		return syscall.EIO
	default:
		return syscall.EIO
	}
}

// ToErrno extracts the errno a FUSE host should report for an arbitrary
// error returned by the core. Errors that aren't a [Kind] or a wrapped Kind
// are assumed to be unexpected I/O failures.
func ToErrno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	var k Kind
	if stderrors.As(err, &k) {
		return k.Errno()
	}
	return syscall.EIO
}
