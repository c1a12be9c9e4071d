// Package watcher watches import directories with fsnotify and hands settled files
// to an import callback.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// ImportFunc imports one file. Errors are logged and do not stop the watcher.
type ImportFunc func(ctx context.Context, path string) error

// Watcher watches import directories and runs an ImportFunc for new or changed files.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	debounce   time.Duration
	onImport   ImportFunc
	logger     *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending map[string]*time.Timer
	ctx     context.Context
	done    chan struct{}
	once    sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger for import results and watcher events.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long a file must stay unchanged before it is imported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithRecursive also watches subdirectories, including ones created later.
func WithRecursive(recursive bool) Option {
	return func(w *Watcher) { w.recursive = recursive }
}

// New creates a watcher over roots. Only files whose extension is in extensions are
// imported; an empty list accepts every file.
func New(roots, extensions []string, onImport ImportFunc, opts ...Option) *Watcher {
	w := &Watcher{
		roots:      cleanRoots(roots),
		extensions: extensions,
		debounce:   defaultDebounce,
		onImport:   onImport,
		logger:     zap.NewNop(),
		pending:    make(map[string]*time.Timer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func cleanRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if abs, err := filepath.Abs(r); err == nil {
			r = abs
		}
		out = append(out, filepath.Clean(r))
	}
	return out
}

// Start begins watching. Missing roots are created. The watcher runs until ctx is
// cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range w.roots {
		if err := w.addRoot(fsw, root); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	w.fsw = fsw
	w.ctx = ctx
	w.logger.Info("watching import directories",
		zap.Strings("roots", w.roots),
		zap.Strings("extensions", w.extensions),
		zap.Bool("recursive", w.recursive))
	go w.run(ctx, fsw)
	return nil
}

func (w *Watcher) addRoot(fsw *fsnotify.Watcher, root string) error {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	if !w.recursive {
		return fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		return fsw.Add(path)
	})
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			w.watchNewDirectory(ev.Name)
			return
		}
		if w.accepts(ev.Name) {
			w.schedule(ev.Name)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.cancel(ev.Name)
	}
}

func (w *Watcher) watchNewDirectory(dir string) {
	w.mu.Lock()
	fsw := w.fsw
	recursive := w.recursive
	w.mu.Unlock()
	if fsw == nil || !recursive {
		return
	}
	if err := w.addRoot(fsw, dir); err != nil {
		w.logger.Warn("failed to watch new directory", zap.String("path", dir), zap.Error(err))
		return
	}
	// files may have landed before the directory was watched
	w.importTree(dir)
}

func (w *Watcher) accepts(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range w.extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		ctx := w.ctx
		w.mu.Unlock()
		w.importFile(ctx, path)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) importFile(ctx context.Context, path string) {
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := w.onImport(ctx, path); err != nil {
		w.logger.Error("import failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Info("imported", zap.String("path", path), zap.Duration("took", time.Since(start)))
}

func (w *Watcher) importTree(root string) {
	w.mu.Lock()
	ctx := w.ctx
	w.mu.Unlock()
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && !w.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if w.accepts(path) {
			w.importFile(ctx, path)
		}
		return nil
	})
}

// ImportExisting imports every accepted file already present in the roots.
func (w *Watcher) ImportExisting() {
	for _, root := range w.Directories() {
		w.importTree(root)
	}
}

// AddDirectory starts watching root, creating it when missing. With importExisting
// the files already in root are imported in the background. Adding a watched root
// is a no-op.
func (w *Watcher) AddDirectory(root string, importExisting bool) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)

	w.mu.Lock()
	for _, r := range w.roots {
		if filepath.Clean(r) == abs {
			w.mu.Unlock()
			return nil
		}
	}
	if w.fsw != nil {
		if err := w.addRoot(w.fsw, abs); err != nil {
			w.mu.Unlock()
			return err
		}
	}
	w.roots = append(w.roots, abs)
	w.mu.Unlock()

	w.logger.Debug("watcher directory added", zap.String("path", abs), zap.Bool("import_existing", importExisting))
	if importExisting {
		go w.importTree(abs)
	}
	return nil
}

// RemoveDirectory stops watching root and drops its pending imports. Imported data
// is kept.
func (w *Watcher) RemoveDirectory(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	idx := -1
	for i, r := range w.roots {
		if filepath.Clean(r) == abs {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	w.roots = append(w.roots[:idx:idx], w.roots[idx+1:]...)

	if w.fsw != nil {
		for _, p := range w.fsw.WatchList() {
			if within(p, abs) && !w.coveredLocked(p) {
				_ = w.fsw.Remove(p)
			}
		}
	}
	for path, t := range w.pending {
		if within(path, abs) && !w.coveredLocked(path) {
			t.Stop()
			delete(w.pending, path)
		}
	}
	w.logger.Debug("watcher directory removed", zap.String("path", abs))
	return nil
}

// coveredLocked reports whether path lies under a remaining root.
func (w *Watcher) coveredLocked(path string) bool {
	for _, r := range w.roots {
		if within(path, filepath.Clean(r)) {
			return true
		}
	}
	return false
}

func within(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// Directories returns the watched roots.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// Stop stops watching and drops pending imports.
func (w *Watcher) Stop() {
	w.mu.Lock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	if w.fsw != nil {
		_ = w.fsw.Close()
		w.fsw = nil
	}
	w.mu.Unlock()
	w.once.Do(func() { close(w.done) })
}
