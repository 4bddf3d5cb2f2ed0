// Package errors provides standardized error handling for mergemaster.
// It defines the error kinds a merge run can fail with and helpers for
// consistent creation, wrapping and inspection of those errors.
package errors

import (
	"errors"
	"fmt"
	"io/fs"
)

// Standard errors package errors that we re-export for convenience
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// File error kinds
	FileNotFound
	FileAccessDenied
	InvalidPath
	FileCreateFailed
	FileOperationFailed
	CollisionExhausted
	DestinationLocked
	// Config error kinds
	InvalidConfig
	ConfigNotFound
)

var kindNames = map[ErrorKind]string{
	Unknown:             "unknown",
	FileNotFound:        "file not found",
	FileAccessDenied:    "access denied",
	InvalidPath:         "invalid path",
	FileCreateFailed:    "create failed",
	FileOperationFailed: "operation failed",
	CollisionExhausted:  "collision exhausted",
	DestinationLocked:   "destination locked",
	InvalidConfig:       "invalid config",
	ConfigNotFound:      "config not found",
}

// String returns a short human-readable name for the kind.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// FileError represents a failure reading a source file, creating a
// destination directory or writing a destination file.
type FileError struct {
	ApplicationError
	path string
}

// NewFileError creates a new file error
func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
	}
}

// Error returns the file error message
func (e *FileError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.path, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.path)
	}
	return e.ApplicationError.Error()
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.path
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

// FileKind classifies an OS-level error into a file error kind, falling
// back to def when nothing more specific applies.
func FileKind(err error, def ErrorKind) ErrorKind {
	var fileErr *FileError
	switch {
	case errors.As(err, &fileErr):
		return fileErr.Kind()
	case errors.Is(err, fs.ErrNotExist):
		return FileNotFound
	case errors.Is(err, fs.ErrPermission):
		return FileAccessDenied
	default:
		return def
	}
}

func fileErrorKind(err error) (ErrorKind, bool) {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind(), true
	}
	return Unknown, false
}

// IsFileNotFound checks if the error is a file not found error
func IsFileNotFound(err error) bool {
	kind, ok := fileErrorKind(err)
	return ok && kind == FileNotFound
}

// IsFileAccessDenied checks if the error is a file access denied error
func IsFileAccessDenied(err error) bool {
	kind, ok := fileErrorKind(err)
	return ok && kind == FileAccessDenied
}

// IsCollisionExhausted checks if no free destination name could be found
func IsCollisionExhausted(err error) bool {
	kind, ok := fileErrorKind(err)
	return ok && kind == CollisionExhausted
}

// IsDestinationLocked checks if another run holds the destination
func IsDestinationLocked(err error) bool {
	kind, ok := fileErrorKind(err)
	return ok && kind == DestinationLocked
}

// IsFileError reports whether err is any filesystem error
func IsFileError(err error) bool {
	var fileErr *FileError
	return errors.As(err, &fileErr)
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == InvalidConfig
	}
	return false
}

// IsConfigError reports whether err is any configuration error
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}
