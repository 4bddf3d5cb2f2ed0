package merge

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mergemaster/internal/config"
	serr "mergemaster/internal/errors"
	"mergemaster/internal/log"
	"mergemaster/pkg/types"
)

// maxCollisionSuffix bounds the _N search for a free destination name.
const maxCollisionSuffix = 10000

// Copier places copy tasks into the destination tree. It never overwrites:
// a taken name is retried as name_1.ext, name_2.ext and so on.
type Copier struct {
	dest     string
	flatten  bool
	reserved map[string]struct{} // names handed out by Plan
}

// NewCopier creates a Copier for the destination and layout in opts.
func NewCopier(opts config.Options) *Copier {
	return &Copier{
		dest:     opts.Destination(),
		flatten:  opts.Flatten(),
		reserved: make(map[string]struct{}),
	}
}

// DestinationDir returns the directory a task is copied into: the
// destination root when flattening, otherwise the root joined with the
// task's path relative to its source root.
func (c *Copier) DestinationDir(task types.CopyTask) (string, error) {
	if c.flatten {
		return c.dest, nil
	}
	rel, err := task.RelDir()
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", serr.NewFileError("file is outside its source root", task.Source(), serr.InvalidPath, err)
	}
	return filepath.Join(c.dest, rel), nil
}

// Copy copies one task, preserving content, permission bits and
// modification time. A failed copy leaves no partial file behind.
func (c *Copier) Copy(task types.CopyTask) (types.CopyResult, error) {
	result := types.CopyResult{Task: task}
	src := task.Source()

	dir, err := c.DestinationDir(task)
	if err != nil {
		return result, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return result, serr.NewFileError("failed to create destination directory", dir, serr.FileKind(err, serr.FileCreateFailed), err)
	}

	in, err := os.Open(src)
	if err != nil {
		return result, serr.NewFileError("cannot read source file", src, serr.FileKind(err, serr.FileOperationFailed), err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return result, serr.NewFileError("cannot stat source file", src, serr.FileKind(err, serr.FileOperationFailed), err)
	}

	out, destPath, err := createUnique(dir, task.Name, info.Mode().Perm())
	if err != nil {
		return result, err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(destPath)
		return result, serr.NewFileError("failed to copy file", src, serr.FileKind(err, serr.FileOperationFailed), err)
	}
	if err := out.Close(); err != nil {
		os.Remove(destPath)
		return result, serr.NewFileError("failed to write destination file", destPath, serr.FileKind(err, serr.FileOperationFailed), err)
	}

	if err := os.Chmod(destPath, info.Mode().Perm()); err != nil {
		return result, serr.NewFileError("failed to set permissions", destPath, serr.FileKind(err, serr.FileOperationFailed), err)
	}
	// zero access time leaves it untouched
	if err := os.Chtimes(destPath, time.Time{}, info.ModTime()); err != nil {
		return result, serr.NewFileError("failed to preserve modification time", destPath, serr.FileKind(err, serr.FileOperationFailed), err)
	}

	result.Destination = destPath
	result.Copied = true
	log.Debug("Copied %s -> %s", src, destPath)
	return result, nil
}

// Plan resolves where Copy would put a task without touching the
// filesystem. Names handed out by earlier Plan calls count as taken.
func (c *Copier) Plan(task types.CopyTask) (types.CopyResult, error) {
	result := types.CopyResult{Task: task}

	dir, err := c.DestinationDir(task)
	if err != nil {
		return result, err
	}

	for n := 0; n <= maxCollisionSuffix; n++ {
		candidate := filepath.Join(dir, suffixedName(task.Name, n))
		if _, taken := c.reserved[candidate]; taken {
			continue
		}
		if _, err := os.Lstat(candidate); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return result, serr.NewFileError("error checking destination", candidate, serr.FileKind(err, serr.FileOperationFailed), err)
		}
		c.reserved[candidate] = struct{}{}
		result.Destination = candidate
		return result, nil
	}

	return result, exhausted(dir, task.Name)
}

// createUnique claims the first free name among name, name_1, name_2, ...
// in dir. O_EXCL makes the claim atomic.
func createUnique(dir, name string, perm os.FileMode) (*os.File, string, error) {
	for n := 0; n <= maxCollisionSuffix; n++ {
		candidate := filepath.Join(dir, suffixedName(name, n))
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if err == nil {
			if n > 0 {
				log.Debug("Destination %s taken, using %s", filepath.Join(dir, name), filepath.Base(candidate))
			}
			return f, candidate, nil
		}
		if os.IsExist(err) {
			continue
		}
		return nil, "", serr.NewFileError("failed to create destination file", candidate, serr.FileKind(err, serr.FileCreateFailed), err)
	}
	return nil, "", exhausted(dir, name)
}

// suffixedName inserts _n before the extension; n == 0 keeps the name.
func suffixedName(name string, n int) string {
	if n == 0 {
		return name
	}
	stem, ext := splitName(name)
	return fmt.Sprintf("%s_%d%s", stem, n, ext)
}

func exhausted(dir, name string) error {
	return serr.NewFileError(
		fmt.Sprintf("no free destination name after %d attempts", maxCollisionSuffix),
		filepath.Join(dir, name), serr.CollisionExhausted, nil)
}
