// Package watcher reloads configuration files when they change on disk.
//
// The watcher observes the directory containing each file so that
// editors which save by renaming a temporary file are still seen. Bursts
// of events for one file are debounced into a single callback.
package watcher

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrClosed is returned when watching through a closed watcher.
var ErrClosed = errors.New("watcher closed")

// Handler is called with the absolute path of a changed file. It runs on
// a timer goroutine; callers post the work to their own loop.
type Handler func(path string)

// Watcher watches configuration files.
type Watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	files   map[string]*pending
	dirs    map[string]int
	handler Handler
	delay   time.Duration
	logger  *zap.Logger
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
}

type pending struct {
	timer *time.Timer
	seq   uint64
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before the handler runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// New creates a watcher that calls handler for changed files.
func New(handler Handler, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		fsw:     fsw,
		files:   make(map[string]*pending),
		dirs:    make(map[string]int),
		handler: handler,
		delay:   150 * time.Millisecond,
		logger:  zap.NewNop(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Watch adds a file. The file need not exist yet; its directory must.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if _, ok := w.files[abs]; ok {
		return nil
	}

	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.dirs[dir]++
	w.files[abs] = &pending{}
	return nil
}

// Unwatch removes a file.
func (w *Watcher) Unwatch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.files[abs]
	if !ok {
		return nil
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	delete(w.files, abs)

	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] == 0 {
		delete(w.dirs, dir)
		if !w.closed {
			return w.fsw.Remove(dir)
		}
	}
	return nil
}

// Close stops the watcher and cancels pending callbacks.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, p := range w.files {
		if p.timer != nil {
			p.timer.Stop()
		}
		p.seq++
	}
	close(w.done)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				w.schedule(ev.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

// schedule restarts the debounce timer of a watched file.
func (w *Watcher) schedule(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.files[abs]
	if !ok || w.closed {
		return
	}
	p.seq++
	seq := p.seq
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		cur, ok := w.files[abs]
		fire := ok && !w.closed && cur.seq == seq
		w.mu.Unlock()
		if fire {
			w.logger.Debug("config file changed", zap.String("path", abs))
			w.handler(abs)
		}
	})
}
