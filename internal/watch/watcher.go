package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mergemaster/internal/log"
	"mergemaster/internal/merge"

	"github.com/fsnotify/fsnotify"
)

// FileEvent is a new file that passed the selector and has been quiet for
// the settle period.
type FileEvent struct {
	Path      string
	Root      string // source root the file was found under
	Info      os.FileInfo
	Timestamp time.Time
}

// Watcher monitors source trees for new files using fsnotify. Directories
// created while watching are added automatically unless they are pruned.
type Watcher struct {
	selector *merge.Selector
	settle   time.Duration
	prune    string // resolved destination, never watched

	// Channel to receive settled files
	fileChan chan FileEvent

	// Channel to signal stop
	stopChan chan struct{}

	// fsnotify watcher instance
	fsWatcher *fsnotify.Watcher

	// Event loop and in-flight timer deliveries
	loopDone chan struct{}
	inflight sync.WaitGroup

	// Guards the fields below
	mutex   sync.RWMutex
	dirs    map[string]string // watched directory -> source root
	pending map[string]*pendingFile
	running bool
	stopped bool
}

// New creates a watcher that reports files accepted by selector once they
// have not changed for settle. Directories resolving to prune are skipped.
func New(selector *merge.Selector, settle time.Duration, prune string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		selector:  selector,
		settle:    settle,
		prune:     prune,
		fileChan:  make(chan FileEvent, 16),
		stopChan:  make(chan struct{}),
		fsWatcher: fsWatcher,
		dirs:      make(map[string]string),
		pending:   make(map[string]*pendingFile),
	}, nil
}

// AddRoot watches root and every directory below it that is not pruned.
func (w *Watcher) AddRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}
	return w.addTree(root, root, false)
}

// addTree adds dir and its subdirectories. With schedule set, files already
// present are queued too: a directory moved into a source arrives with its
// content and no per-file events.
func (w *Watcher) addTree(dir, root string, schedule bool) error {
	walkRoot, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	return filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return err
		}
		watched := filepath.Join(dir, rel)

		if !d.IsDir() {
			if schedule {
				w.schedule(watched, root)
			}
			return nil
		}
		if path != walkRoot && w.pruned(path, d.Name()) {
			return fs.SkipDir
		}

		if err := w.fsWatcher.Add(watched); err != nil {
			return fmt.Errorf("failed to add directory %s to watcher: %w", watched, err)
		}
		w.mutex.Lock()
		w.dirs[watched] = root
		w.mutex.Unlock()
		log.LogWithFields(log.F("directory", watched)).Debug("Watching directory")
		return nil
	})
}

func (w *Watcher) pruned(path, name string) bool {
	if w.selector.SkipDir(name) {
		return true
	}
	abs, err := merge.ResolvePath(path)
	return err == nil && abs == w.prune
}

// FileChannel returns the channel that delivers settled files. It is
// closed by Stop.
func (w *Watcher) FileChannel() <-chan FileEvent {
	return w.fileChan
}

// Start begins the event loop.
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return fmt.Errorf("watcher already running")
	}
	if w.stopped {
		w.mutex.Unlock()
		return fmt.Errorf("watcher was stopped")
	}
	w.running = true
	w.loopDone = make(chan struct{})
	w.mutex.Unlock()

	go w.loop()

	log.Info("Watcher started.")
	return nil
}

func (w *Watcher) loop() {
	defer close(w.loopDone)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.LogWithFields(log.F("error", err)).Error("fsnotify watcher error")

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	switch {
	case event.Op.Has(fsnotify.Create):
		root, ok := w.rootOf(event.Name)
		if !ok {
			return
		}
		info, err := os.Lstat(event.Name)
		if err != nil {
			// Gone already
			if !os.IsNotExist(err) {
				log.LogWithFields(log.F("file", event.Name), log.F("error", err)).Error("Error stating file")
			}
			return
		}
		if info.IsDir() {
			if w.pruned(event.Name, filepath.Base(event.Name)) {
				return
			}
			if err := w.addTree(event.Name, root, true); err != nil {
				log.LogWithFields(log.F("directory", event.Name), log.F("error", err)).Warn("Cannot watch new directory")
			}
			return
		}
		// Symlinks are checked again when the file settles
		if info.Mode().IsRegular() || info.Mode()&fs.ModeSymlink != 0 {
			w.schedule(event.Name, root)
		}

	case event.Op.Has(fsnotify.Write):
		// Only files still settling are tracked; edits of older files are
		// not new files.
		w.mutex.Lock()
		if p, ok := w.pending[event.Name]; ok {
			w.arm(event.Name, p.root)
		}
		w.mutex.Unlock()

	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.mutex.Lock()
		if p, ok := w.pending[event.Name]; ok {
			p.timer.Stop()
			delete(w.pending, event.Name)
		}
		delete(w.dirs, event.Name)
		w.mutex.Unlock()
	}
}

func (w *Watcher) rootOf(path string) (string, bool) {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	root, ok := w.dirs[filepath.Dir(path)]
	return root, ok
}

// schedule (re)starts the settle timer for path if the selector accepts it.
func (w *Watcher) schedule(path, root string) {
	if !w.selector.ShouldCopy(filepath.Base(path)) {
		return
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.arm(path, root)
}

// pendingFile is a file waiting out its settle period.
type pendingFile struct {
	root  string
	timer *time.Timer
}

// arm replaces any timer for path with a fresh one. Callers hold mutex.
// A replaced timer that already fired finds itself superseded in deliver.
func (w *Watcher) arm(path, root string) {
	if old, ok := w.pending[path]; ok {
		old.timer.Stop()
	}
	p := &pendingFile{root: root}
	p.timer = time.AfterFunc(w.settle, func() { w.deliver(path, p) })
	w.pending[path] = p
}

func (w *Watcher) deliver(path string, p *pendingFile) {
	w.mutex.Lock()
	if w.pending[path] != p {
		w.mutex.Unlock()
		return
	}
	delete(w.pending, path)
	if !w.running {
		w.mutex.Unlock()
		return
	}
	w.inflight.Add(1)
	w.mutex.Unlock()
	defer w.inflight.Done()

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}

	select {
	case w.fileChan <- FileEvent{Path: path, Root: p.root, Info: info, Timestamp: time.Now()}:
	case <-w.stopChan:
	}
}

// Stop halts the watcher and releases its fsnotify handle. Pending files
// that have not settled are dropped. A stopped watcher cannot be restarted.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	if w.stopped {
		w.mutex.Unlock()
		return
	}
	w.stopped = true
	if !w.running {
		w.mutex.Unlock()
		w.fsWatcher.Close()
		return
	}
	w.running = false
	close(w.stopChan)
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.mutex.Unlock()

	w.inflight.Wait()
	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithFields(log.F("error", err)).Error("Error closing fsnotify watcher")
	}
	<-w.loopDone
	close(w.fileChan)

	log.Info("Watcher stopped.")
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}

// Directories returns the watched directories in no particular order.
func (w *Watcher) Directories() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	dirs := make([]string, 0, len(w.dirs))
	for dir := range w.dirs {
		dirs = append(dirs, dir)
	}
	return dirs
}
