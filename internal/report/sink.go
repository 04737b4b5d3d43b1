package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
)

// ErrNoTables is returned when a sink that needs at least one table gets none.
var ErrNoTables = errors.New("no sources produced zero crossings; nothing to write")

// Reason classifies why a report could not be persisted.
type Reason int

const (
	ReasonOther Reason = iota
	ReasonFileInUse
	ReasonPermission
)

func (r Reason) String() string {
	switch r {
	case ReasonFileInUse:
		return "file in use"
	case ReasonPermission:
		return "permission denied"
	default:
		return "write failed"
	}
}

// SinkWriteError reports a failure to persist the report.
type SinkWriteError struct {
	Path   string
	Reason Reason
	Err    error
}

func (e *SinkWriteError) Error() string {
	switch e.Reason {
	case ReasonFileInUse:
		return fmt.Sprintf("cannot write %s: the file is open in another program; close it and run again", e.Path)
	case ReasonPermission:
		return fmt.Sprintf("cannot write %s: permission denied; check the file permissions or choose another output directory", e.Path)
	default:
		return fmt.Sprintf("cannot write %s: %v", e.Path, e.Err)
	}
}

func (e *SinkWriteError) Unwrap() error { return e.Err }

// Windows error codes for a file held open by another process.
const (
	errorSharingViolation syscall.Errno = 32
	errorLockViolation    syscall.Errno = 33
)

// officeLockPath is the owner file Office writes next to a document it has open.
func officeLockPath(path string) string {
	return filepath.Join(filepath.Dir(path), "~$"+filepath.Base(path))
}

// checkTarget fails early when path is known to be held by another program.
func checkTarget(path string) error {
	if _, err := os.Stat(officeLockPath(path)); err == nil {
		return &SinkWriteError{Path: path, Reason: ReasonFileInUse, Err: fs.ErrExist}
	}
	return nil
}

// wrapWriteError turns a raw persistence error into a *SinkWriteError.
func wrapWriteError(path string, err error) error {
	if err == nil {
		return nil
	}
	var sinkErr *SinkWriteError
	if errors.As(err, &sinkErr) {
		return err
	}

	if _, statErr := os.Stat(officeLockPath(path)); statErr == nil {
		return &SinkWriteError{Path: path, Reason: ReasonFileInUse, Err: err}
	}
	var errno syscall.Errno
	if runtime.GOOS == "windows" && errors.As(err, &errno) &&
		(errno == errorSharingViolation || errno == errorLockViolation) {
		return &SinkWriteError{Path: path, Reason: ReasonFileInUse, Err: err}
	}
	if errors.Is(err, fs.ErrPermission) {
		return &SinkWriteError{Path: path, Reason: ReasonPermission, Err: err}
	}
	return &SinkWriteError{Path: path, Reason: ReasonOther, Err: err}
}
