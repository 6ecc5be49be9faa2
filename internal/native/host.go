//go:build native

// Package native hosts pages in a system webview window.
package native

import (
	"context"
	"fmt"
	"sync"

	"github.com/cryguy/webview/internal/core"
	webview "github.com/webview/webview_go"
	"go.uber.org/zap"
)

const (
	loadedFunc    = "__rpc_loaded"
	navigatedFunc = "__rpc_navigated"
)

// lifecycleJS reports the start of every document and its load event.
const lifecycleJS = `
(function(w) {
	w.` + navigatedFunc + `(w.location.href);
	w.addEventListener('load', function() { w.` + loadedFunc + `(w.location.href); });
})(window);
`

// Config configures the window.
type Config struct {
	Title  string
	Width  int
	Height int
	Debug  bool
	Logger *zap.Logger
}

// Host owns a native window and implements core.Host and core.Window. New
// and Run must be called from the same OS thread, normally the main one.
type Host struct {
	w   webview.WebView
	log *zap.Logger

	mu      sync.Mutex
	events  core.HostEvents
	running bool
	closed  bool
}

var (
	_ core.Host   = (*Host)(nil)
	_ core.Window = (*Host)(nil)
)

// New creates the window.
func New(cfg Config) (*Host, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	w := webview.New(cfg.Debug)
	if w == nil {
		return nil, fmt.Errorf("creating webview window")
	}
	h := &Host{w: w, log: log.Named("native-host")}

	if cfg.Title != "" {
		w.SetTitle(cfg.Title)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		w.SetSize(cfg.Width, cfg.Height, webview.HintNone)
	}

	bindings := map[string]any{
		core.PostFunc: func(payload string) { h.fire(func(e core.HostEvents) { call(e.OnMessage, payload) }) },
		navigatedFunc: func(url string) { h.fire(func(e core.HostEvents) { call(e.OnNavigate, url) }) },
		loadedFunc:    func(url string) { h.fire(func(e core.HostEvents) { call(e.OnLoad, url) }) },
	}
	for name, fn := range bindings {
		if err := w.Bind(name, fn); err != nil {
			w.Destroy()
			return nil, fmt.Errorf("binding %s: %w", name, err)
		}
	}
	w.Init(lifecycleJS)
	return h, nil
}

func call(fn func(string), arg string) {
	if fn != nil {
		fn(arg)
	}
}

// fire runs on the UI thread; webview invokes bindings there.
func (h *Host) fire(f func(core.HostEvents)) {
	h.mu.Lock()
	events := h.events
	h.mu.Unlock()
	f(events)
}

// Attach installs the bridge hooks.
func (h *Host) Attach(events core.HostEvents) {
	h.mu.Lock()
	h.events = events
	h.mu.Unlock()
}

// Init registers script for every later document.
func (h *Host) Init(script string) error {
	return h.onUI(func() { h.w.Init(script) })
}

// Eval runs script in the current document.
func (h *Host) Eval(script string) error {
	return h.onUI(func() { h.w.Eval(script) })
}

// Navigate loads url.
func (h *Host) Navigate(url string) error {
	return h.onUI(func() { h.w.Navigate(url) })
}

// onUI runs fn now when the loop is not running yet, which means the
// caller is on the window's thread, and dispatches it otherwise.
func (h *Host) onUI(fn func()) error {
	h.mu.Lock()
	closed, running := h.closed, h.running
	h.mu.Unlock()
	switch {
	case closed:
		return core.ErrClosed
	case running:
		h.w.Dispatch(fn)
	default:
		fn()
	}
	return nil
}

// Dispatch schedules fn on the UI thread.
func (h *Host) Dispatch(fn func()) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if !closed {
		h.w.Dispatch(fn)
	}
}

// Run blocks in the window's event loop until the window closes,
// Terminate is called or ctx ends.
func (h *Host) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return core.ErrClosed
	}
	h.running = true
	h.mu.Unlock()

	stop := context.AfterFunc(ctx, h.w.Terminate)
	defer stop()
	h.w.Run()

	h.mu.Lock()
	h.running = false
	h.mu.Unlock()
	return ctx.Err()
}

// Terminate stops the event loop. Safe from any goroutine.
func (h *Host) Terminate() {
	h.w.Terminate()
}

// Close destroys the window. Call it on the UI thread after Run returned.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.w.Destroy()
	return nil
}

// SetTitle sets the window title.
func (h *Host) SetTitle(title string) {
	_ = h.onUI(func() { h.w.SetTitle(title) })
}

// SetSize resizes the window.
func (h *Host) SetSize(width, height int) {
	_ = h.onUI(func() { h.w.SetSize(width, height, webview.HintNone) })
}
