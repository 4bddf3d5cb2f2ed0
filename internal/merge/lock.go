package merge

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	serr "mergemaster/internal/errors"
	"mergemaster/internal/log"

	"github.com/gofrs/flock"
)

// lockPath returns the lock file guarding dest. The lock lives outside the
// destination so it never shows up among merged files.
func lockPath(lockDir, dest string) (string, error) {
	abs, err := filepath.Abs(dest)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(lockDir, "mergemaster-"+hex.EncodeToString(sum[:8])+".lock"), nil
}

// lockDestination takes an exclusive, non-blocking lock on dest. Two runs
// writing into the same destination would race on collision names.
func lockDestination(lockDir, dest string) (func(), error) {
	path, err := lockPath(lockDir, dest)
	if err != nil {
		return nil, serr.NewFileError("cannot resolve destination", dest, serr.InvalidPath, err)
	}
	if err := os.MkdirAll(lockDir, 0755); err != nil {
		return nil, serr.NewFileError("cannot create lock directory", lockDir, serr.FileKind(err, serr.FileCreateFailed), err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, serr.NewFileError("cannot lock destination", dest, serr.FileKind(err, serr.FileOperationFailed), err)
	}
	if !locked {
		return nil, serr.NewFileError("destination is in use by another run", dest, serr.DestinationLocked, nil)
	}

	log.Debug("Locked destination %s via %s", dest, path)
	return func() {
		if err := fl.Unlock(); err != nil {
			log.Warn("Failed to release lock %s: %v", path, err)
		}
	}, nil
}
