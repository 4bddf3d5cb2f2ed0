package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())

	err = Newf("formatted %s", "error")
	assert.Equal(t, "formatted error", err.Error())

	// Check that the error is an ApplicationError
	var appErr *ApplicationError
	assert.True(t, As(err, &appErr))
	assert.Equal(t, Unknown, appErr.Kind())
}

func TestWrapping(t *testing.T) {
	origErr := New("original error")
	wrappedErr := Wrap(origErr, "wrapped")
	assert.Equal(t, "wrapped: original error", wrappedErr.Error())
	assert.Equal(t, origErr, Unwrap(wrappedErr))

	wrappedFormatted := Wrapf(origErr, "formatted %s", "wrapper")
	assert.Equal(t, "formatted wrapper: original error", wrappedFormatted.Error())

	// Wrapping nil returns nil
	assert.Nil(t, Wrap(nil, "wrapper"))
	assert.Nil(t, Wrapf(nil, "formatted %s", "wrapper"))

	deepWrapped := Wrap(wrappedErr, "deeper")
	assert.Equal(t, "deeper: wrapped: original error", deepWrapped.Error())
	assert.True(t, Is(deepWrapped, origErr))
}

func TestFileError(t *testing.T) {
	fileErr := NewFileError("cannot read source", "/src/a.txt", FileAccessDenied, nil)
	assert.Equal(t, "cannot read source: /src/a.txt", fileErr.Error())
	assert.Equal(t, "/src/a.txt", fileErr.Path())
	assert.Equal(t, FileAccessDenied, fileErr.Kind())

	origErr := fmt.Errorf("permission denied")
	fileErr = NewFileError("cannot read source", "/src/a.txt", FileAccessDenied, origErr)
	assert.Equal(t, "cannot read source: /src/a.txt: permission denied", fileErr.Error())
	assert.Equal(t, origErr, Unwrap(fileErr))

	notFoundErr := NewFileError("source directory not found", "/missing", FileNotFound, nil)
	assert.True(t, IsFileNotFound(notFoundErr))
	assert.False(t, IsFileNotFound(fileErr))
	assert.True(t, IsFileAccessDenied(fileErr))
	assert.False(t, IsFileAccessDenied(notFoundErr))
	assert.True(t, IsFileError(notFoundErr))
	assert.False(t, IsFileError(New("plain")))

	var fe *FileError
	assert.True(t, As(Wrap(fileErr, "merge failed"), &fe))
	assert.Equal(t, "/src/a.txt", fe.Path())
}

func TestMergeSpecificKinds(t *testing.T) {
	exhausted := NewFileError("no free destination name", "/dst/a.txt", CollisionExhausted, nil)
	assert.True(t, IsCollisionExhausted(exhausted))
	assert.False(t, IsDestinationLocked(exhausted))

	locked := NewFileError("destination is in use by another run", "/dst", DestinationLocked, nil)
	assert.True(t, IsDestinationLocked(Wrap(locked, "run")))
	assert.False(t, IsCollisionExhausted(locked))

	assert.Equal(t, "destination locked", DestinationLocked.String())
	assert.Equal(t, "kind(99)", ErrorKind(99).String())
}

func TestFileKind(t *testing.T) {
	_, statErr := os.Stat("/definitely/not/here")
	assert.Equal(t, FileNotFound, FileKind(statErr, FileOperationFailed))
	assert.Equal(t, FileAccessDenied, FileKind(fmt.Errorf("open: %w", fs.ErrPermission), FileOperationFailed))
	assert.Equal(t, FileCreateFailed, FileKind(errors.New("disk full"), FileCreateFailed))

	inner := NewFileError("locked", "/dst", DestinationLocked, nil)
	assert.Equal(t, DestinationLocked, FileKind(inner, Unknown))
}

func TestConfigError(t *testing.T) {
	configErr := NewConfigError("missing required value", "destination", InvalidConfig, nil)
	assert.Equal(t, "missing required value: destination", configErr.Error())
	assert.Equal(t, "destination", configErr.Param())
	assert.Equal(t, InvalidConfig, configErr.Kind())

	origErr := fmt.Errorf("yaml: line 3")
	configErr = NewConfigError("error parsing config file", "/etc/mm.yaml", InvalidConfig, origErr)
	assert.Equal(t, "error parsing config file: /etc/mm.yaml: yaml: line 3", configErr.Error())
	assert.Equal(t, origErr, Unwrap(configErr))

	assert.True(t, IsInvalidConfig(configErr))
	assert.True(t, IsConfigError(configErr))
	assert.False(t, IsInvalidConfig(New("some other error")))
	assert.False(t, IsInvalidConfig(NewConfigError("gone", "x", ConfigNotFound, nil)))
}

func TestErrorChains(t *testing.T) {
	baseErr := errors.New("base error")
	fileErr := NewFileError("file error", "/path/to/file", FileNotFound, baseErr)
	configErr := NewConfigError("config error", "sources", InvalidConfig, fileErr)

	assert.Equal(t, "config error: sources: file error: /path/to/file: base error", configErr.Error())
	assert.True(t, Is(configErr, baseErr))
	assert.True(t, Is(configErr, fileErr))
	assert.True(t, IsFileNotFound(configErr))
	assert.True(t, IsInvalidConfig(configErr))
}
