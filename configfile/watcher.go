package configfile

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ipshipyard/phishing-detect/detector"
)

// reloadDelay lets writers finish before the file is read again.
const reloadDelay = 100 * time.Millisecond

// snapshot is one successfully loaded configuration.
type snapshot struct {
	input    detector.Input
	detector *detector.Detector
	loaded   time.Time
}

// Watcher serves checks from a configuration file and reloads it when it
// changes on disk. A reload that fails to read, parse or validate keeps the
// previous configuration in service.
type Watcher struct {
	path      string
	name      string
	current   atomic.Pointer[snapshot]
	watcher   *fsnotify.Watcher
	onReload  func(detector.Input, error)
	callback  atomic.Bool // set while onReload runs on the watch loop
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

type WatcherConfig struct {
	onReload func(detector.Input, error)
}

type WatcherOptions func(*WatcherConfig) error

// WithOnReload registers fn to be called after every reload attempt with
// either the new configuration or the error that rejected it. fn runs on
// the watch loop; it may call Close.
func WithOnReload(fn func(detector.Input, error)) WatcherOptions {
	return func(config *WatcherConfig) error {
		config.onReload = fn
		return nil
	}
}

// NewWatcher loads the configuration at path and starts watching it. The
// initial load must succeed.
func NewWatcher(path string, opts ...WatcherOptions) (*Watcher, error) {
	cfg := &WatcherConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	initMetrics()

	w := &Watcher{
		path:     path,
		name:     filepath.Base(path),
		onReload: cfg.onReload,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	if err := w.load(); err != nil {
		return nil, err
	}
	log.Infof("config file %s: loaded %d configurations", w.name, len(w.Input().Configs()))

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.watcher = watcher

	// Watch the directory: editors and Save replace the file by renaming
	// over it, which drops a watch held on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	go w.watchLoop()

	return w, nil
}

func (w *Watcher) load() error {
	in, err := Load(w.path)
	if err != nil {
		return err
	}
	d, err := detector.New(in)
	if err != nil {
		return err
	}

	now := time.Now()
	w.current.Store(&snapshot{input: in, detector: d, loaded: now})
	updateLastReload(w.name, now.Unix())
	return nil
}

func (w *Watcher) reload() {
	err := w.load()
	if err != nil {
		incReloadError(w.name)
		log.Warningf("config file %s: reload failed, keeping previous configuration: %v", w.name, err)
	} else {
		log.Infof("config file %s: reloaded, %d configurations", w.name, len(w.Input().Configs()))
	}
	if w.onReload != nil {
		w.callback.Store(true)
		defer w.callback.Store(false)
		if err != nil {
			w.onReload(nil, err)
		} else {
			w.onReload(w.Input(), nil)
		}
	}
}

func (w *Watcher) watchLoop() {
	defer close(w.stopped)

	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != w.name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				time.Sleep(reloadDelay)
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if ok && err != nil {
				log.Warningf("config file %s: watcher error: %v", w.name, err)
			}
		}
	}
}

// Check classifies hostname with the configuration currently in service.
func (w *Watcher) Check(hostname string) (detector.CheckResult, error) {
	return w.current.Load().detector.Check(hostname)
}

// Detector returns the detector currently in service.
func (w *Watcher) Detector() *detector.Detector {
	return w.current.Load().detector
}

// Input returns the configuration currently in service.
func (w *Watcher) Input() detector.Input {
	return w.current.Load().input
}

// LastUpdate returns when the configuration in service was loaded.
func (w *Watcher) LastUpdate() time.Time {
	return w.current.Load().loaded
}

// Close stops watching and waits for the watch loop to exit, unless it is
// called from an OnReload callback: the loop then exits once the callback
// returns. Safe to call multiple times.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		if !w.callback.Load() {
			<-w.stopped
		}
	})
	if errors.Is(err, fsnotify.ErrClosed) {
		return nil
	}
	return err
}
