// Package watch keeps a destination up to date by copying files that
// appear in the source trees after the initial merge.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	serr "mergemaster/internal/errors"
	"mergemaster/internal/log"
	"mergemaster/internal/merge"
	"mergemaster/pkg/types"
)

// DaemonStatus represents the current status of the daemon
type DaemonStatus struct {
	Running          bool      // Whether the daemon is currently active
	WatchDirectories []string  // Directories being watched
	LastActivity     time.Time // Time of last copied file
	FilesCopied      int       // Files copied (or planned in dry-run mode)
	Failures         int       // Files that could not be copied
}

// Daemon feeds settled files from a Watcher into a merge Engine. Copies
// are issued one at a time from Run.
type Daemon struct {
	engine  *merge.Engine
	watcher *Watcher

	// Statistics
	copied       int
	failures     int
	lastActivity time.Time

	// Callback for when a file is processed
	callback func(types.CopyResult, error)

	// Lock for statistics and callback
	mutex sync.RWMutex

	running bool
}

// NewDaemon creates a daemon for engine. New files are copied once they
// have been quiet for settle.
func NewDaemon(engine *merge.Engine, settle time.Duration) (*Daemon, error) {
	dest, err := merge.ResolvePath(engine.Options().Destination())
	if err != nil {
		return nil, serr.NewFileError("cannot resolve destination", engine.Options().Destination(), serr.InvalidPath, err)
	}

	watcher, err := New(engine.Selector(), settle, dest)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		engine:  engine,
		watcher: watcher,
	}, nil
}

// SetCallback sets a function to be called when a file is processed
func (d *Daemon) SetCallback(cb func(types.CopyResult, error)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = cb
}

// Status returns the current status of the daemon
func (d *Daemon) Status() DaemonStatus {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	return DaemonStatus{
		Running:          d.running,
		WatchDirectories: d.watcher.Directories(),
		LastActivity:     d.lastActivity,
		FilesCopied:      d.copied,
		Failures:         d.failures,
	}
}

// Run watches every source and copies new files until ctx is done. It
// holds the destination lock for its whole lifetime. A file that fails to
// copy is logged and reported to the callback; the daemon keeps going.
func (d *Daemon) Run(ctx context.Context) error {
	unlock, err := d.engine.Lock()
	if err != nil {
		d.watcher.Stop()
		return err
	}
	defer unlock()

	for _, root := range d.engine.Options().Sources() {
		if err := d.watcher.AddRoot(root); err != nil {
			d.watcher.Stop()
			return serr.NewFileError("error adding watch directory", root, serr.FileKind(err, serr.FileNotFound), err)
		}
	}

	if err := d.watcher.Start(); err != nil {
		d.watcher.Stop()
		return fmt.Errorf("error starting watcher: %w", err)
	}
	defer d.watcher.Stop()

	d.setRunning(true)
	defer d.setRunning(false)

	log.LogWithFields(log.F("sources", len(d.engine.Options().Sources())), log.F("destination", d.engine.Options().Destination())).
		Info("Watching for new files")

	events := d.watcher.FileChannel()
	for {
		select {
		case <-ctx.Done():
			log.Info("Watch stopped")
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.copyFile(ev)
		}
	}
}

func (d *Daemon) setRunning(running bool) {
	d.mutex.Lock()
	d.running = running
	d.mutex.Unlock()
}

// copyFile copies one settled file through the engine
func (d *Daemon) copyFile(ev FileEvent) {
	task := types.CopyTask{
		Dir:  filepath.Dir(ev.Path),
		Name: filepath.Base(ev.Path),
		Root: ev.Root,
	}

	result, err := d.engine.CopyTask(task)

	d.mutex.Lock()
	if err != nil {
		d.failures++
	} else {
		d.copied++
		d.lastActivity = ev.Timestamp
	}
	cb := d.callback
	d.mutex.Unlock()

	if err != nil {
		log.LogWithFields(log.F("file", ev.Path), log.F("error", err)).Error("Failed to copy new file")
	} else {
		log.LogWithFields(log.F("file", ev.Path), log.F("destination", result.Destination), log.F("dry_run", d.engine.IsDryRun())).
			Info("Copied new file")
	}

	if cb != nil {
		cb(result, err)
	}
}
