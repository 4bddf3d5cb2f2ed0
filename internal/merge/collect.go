package merge

import (
	"io/fs"
	"os"
	"path/filepath"

	"mergemaster/internal/config"
	serr "mergemaster/internal/errors"
	"mergemaster/internal/log"
	"mergemaster/pkg/types"
)

// Collect walks every source directory in configuration order and returns
// the selected files as copy tasks. Pruned directories are never descended
// into. The destination directory is pruned too when it sits inside a
// source, so a merge never picks up its own output.
func Collect(opts config.Options, sel *Selector) ([]types.CopyTask, error) {
	destAbs, err := ResolvePath(opts.Destination())
	if err != nil {
		return nil, serr.NewFileError("cannot resolve destination", opts.Destination(), serr.InvalidPath, err)
	}

	var tasks []types.CopyTask
	for _, root := range opts.Sources() {
		found, err := collectRoot(root, destAbs, sel)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, found...)
	}
	return tasks, nil
}

// ResolvePath returns path made absolute with symlinks resolved. A path
// that does not exist yet is only made absolute.
func ResolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

func collectRoot(root, destAbs string, sel *Selector) ([]types.CopyTask, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, serr.NewFileError("cannot access source directory", root, serr.FileKind(err, serr.FileNotFound), err)
	}
	if !info.IsDir() {
		return nil, serr.NewFileError("source is not a directory", root, serr.InvalidPath, nil)
	}

	// WalkDir does not descend into a root that is itself a symlink
	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, serr.NewFileError("cannot resolve source directory", root, serr.FileKind(err, serr.InvalidPath), err)
	}
	if abs, err := filepath.Abs(walkRoot); err == nil && abs == destAbs {
		return nil, serr.NewConfigError("destination cannot be a source directory", root, serr.InvalidConfig, nil)
	}

	var tasks []types.CopyTask
	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return serr.NewFileError("cannot read directory", path, serr.FileKind(err, serr.FileAccessDenied), err)
		}

		if d.IsDir() {
			if path == walkRoot {
				return nil
			}
			if sel.SkipDir(d.Name()) {
				log.Debug("Pruning %s (skip keyword)", path)
				return fs.SkipDir
			}
			if abs, err := filepath.Abs(path); err == nil && abs == destAbs {
				log.Debug("Pruning %s (destination)", path)
				return fs.SkipDir
			}
			return nil
		}

		if !isCopyable(path, d) {
			return nil
		}
		if !sel.ShouldCopy(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(walkRoot, filepath.Dir(path))
		if err != nil {
			return serr.NewFileError("cannot compute relative path", path, serr.InvalidPath, err)
		}
		tasks = append(tasks, types.CopyTask{
			Dir:  filepath.Join(root, rel),
			Name: d.Name(),
			Root: root,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug("Collected %d files from %s", len(tasks), root)
	return tasks, nil
}

// isCopyable accepts regular files and symlinks that resolve to regular
// files. Directory symlinks, dangling links, sockets and devices are skipped.
func isCopyable(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	target, err := os.Stat(path)
	if err != nil {
		log.Debug("Skipping dangling symlink %s", path)
		return false
	}
	return target.Mode().IsRegular()
}
