// Package page implements a headless page host: every navigation loads a
// page script into a fresh JavaScript runtime that is driven by a single
// UI goroutine.
package page

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cryguy/webview/internal/core"
	"github.com/cryguy/webview/internal/eventloop"
	"github.com/cryguy/webview/internal/webapi"
	"go.uber.org/zap"
)

// ErrNavigated fails Evaluate calls whose page went away before the
// result was ready.
var ErrNavigated = errors.New("page navigated away")

// Host runs pages headless. It implements core.Host.
type Host struct {
	loader   core.PageLoader
	factory  core.RuntimeFactory
	memLimit int
	log      *zap.Logger
	pageLog  *zap.Logger

	events core.HostEvents

	mu      sync.Mutex
	tasks   []func()
	inits   []string
	running bool
	closed  bool
	evalSeq int64
	waiters map[int64]*waiter

	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// Owned by the UI goroutine.
	rt  core.PageRuntime
	el  *eventloop.EventLoop
	url string
}

var _ core.Host = (*Host)(nil)

// New returns a Host that loads pages through loader and runs them in
// runtimes made by factory. about:blank and data: URLs never reach loader.
func New(loader core.PageLoader, factory core.RuntimeFactory, cfg core.Config) *Host {
	log := cfg.Log()
	return &Host{
		loader:   WithBuiltins(loader),
		factory:  factory,
		memLimit: cfg.MemoryLimitMB,
		log:      log.Named("page-host"),
		pageLog:  log.Named("page"),
		waiters:  make(map[int64]*waiter),
		el:       eventloop.New(),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Attach installs the bridge hooks.
func (h *Host) Attach(events core.HostEvents) {
	h.events = events
}

// Init registers script for every later page load.
func (h *Host) Init(script string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return core.ErrClosed
	}
	h.inits = append(h.inits, script)
	return nil
}

// Eval queues script for the current page. Errors thrown by the script
// are logged, not returned.
func (h *Host) Eval(script string) error {
	return h.post(func() {
		if h.rt == nil {
			return
		}
		if err := h.rt.Eval(script); err != nil {
			h.log.Warn("eval failed", zap.String("url", h.url), zap.Error(err))
		}
	})
}

// Navigate queues a navigation to url.
func (h *Host) Navigate(url string) error {
	return h.post(func() { h.navigate(url) })
}

// Dispatch runs fn on the UI goroutine. It is dropped once the host is
// closed.
func (h *Host) Dispatch(fn func()) {
	_ = h.post(fn)
}

func (h *Host) post(task func()) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return core.ErrClosed
	}
	h.tasks = append(h.tasks, task)
	h.mu.Unlock()
	select {
	case h.wake <- struct{}{}:
	default:
	}
	return nil
}

func (h *Host) takeTasks() []func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	tasks := h.tasks
	h.tasks = nil
	return tasks
}

// Run is the UI loop. It returns nil after Terminate and ctx.Err() when
// ctx ends.
func (h *Host) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return core.ErrClosed
	}
	if h.running {
		h.mu.Unlock()
		return errors.New("page host already running")
	}
	h.running = true
	h.mu.Unlock()
	defer close(h.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		for _, task := range h.takeTasks() {
			task()
			h.pump()
		}
		if h.rt != nil {
			n, err := h.el.FireDue(h.rt, time.Now())
			if err != nil {
				h.pageLog.Error("timer callback threw", zap.String("url", h.url), zap.Error(err))
			}
			if n > 0 {
				h.pump()
			}
		}

		h.mu.Lock()
		more := len(h.tasks) > 0
		h.mu.Unlock()
		if more {
			continue
		}

		var timerC <-chan time.Time
		if next, ok := h.el.NextDeadline(); ok && h.rt != nil {
			timer.Reset(time.Until(next))
			timerC = timer.C
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.stop:
			return nil
		case <-h.wake:
		case <-timerC:
		}
		if timerC != nil && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}
}

// pump runs microtasks and delivers posted messages until the page is
// quiet.
func (h *Host) pump() {
	for h.rt != nil {
		h.rt.RunMicrotasks()
		msgs := h.el.TakeMessages()
		if len(msgs) == 0 {
			return
		}
		for _, m := range msgs {
			if h.events.OnMessage != nil {
				h.events.OnMessage(m)
			}
		}
	}
}

// Terminate makes Run return.
func (h *Host) Terminate() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Close stops the loop and frees the current page.
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	running := h.running
	h.tasks = nil
	h.mu.Unlock()

	h.Terminate()
	if running {
		<-h.done
	}
	h.failWaiters(core.ErrClosed, true)
	h.dropRuntime()
	return nil
}

// URL returns the URL of the page currently loaded. Only meaningful on
// the UI goroutine or after Run returned.
func (h *Host) URL() string {
	return h.url
}

func (h *Host) dropRuntime() {
	if h.rt != nil {
		h.rt.Close()
		h.rt = nil
	}
	h.el.Reset()
}

func (h *Host) navigate(url string) {
	if url == "" {
		url = BlankURL
	}
	if h.events.OnNavigate != nil {
		h.events.OnNavigate(url)
	}
	h.failWaiters(ErrNavigated, false)
	h.dropRuntime()
	h.url = url

	if err := h.loadPage(url); err != nil {
		h.log.Error("page load failed", zap.String("url", url), zap.Error(err))
	}
	if h.rt != nil {
		if err := webapi.FireLoad(h.rt); err != nil {
			h.pageLog.Error("load event failed", zap.String("url", url), zap.Error(err))
		}
		h.rt.RunMicrotasks()
	}
	if h.events.OnLoad != nil {
		h.events.OnLoad(url)
	}
}

// loadPage builds the runtime for url and runs init scripts followed by
// the page. Errors thrown by scripts are logged and do not abort the load.
func (h *Host) loadPage(url string) error {
	rt, err := h.factory(h.memLimit)
	if err != nil {
		return fmt.Errorf("creating runtime: %w", err)
	}
	h.rt = rt

	if err := h.setupRuntime(rt, url); err != nil {
		return err
	}

	h.mu.Lock()
	inits := append([]string(nil), h.inits...)
	h.mu.Unlock()
	for i, script := range inits {
		if err := rt.Eval(script); err != nil {
			h.pageLog.Error("init script threw", zap.Int("index", i), zap.Error(err))
		}
	}

	src, err := h.loader.Load(url)
	if err != nil {
		return err
	}
	scripts := []string{src}
	if IsHTML(src) {
		if scripts, err = InlineScripts(src); err != nil {
			return fmt.Errorf("parsing %s: %w", url, err)
		}
	}
	for _, s := range scripts {
		if err := rt.Eval(s); err != nil {
			h.pageLog.Error("page script threw", zap.String("url", url), zap.Error(err))
		}
		h.rt.RunMicrotasks()
	}
	return nil
}

func (h *Host) setupRuntime(rt core.PageRuntime, url string) error {
	if err := webapi.SetupWindow(rt, url); err != nil {
		return fmt.Errorf("setting up window: %w", err)
	}
	if err := webapi.SetupConsole(rt, h.pageLog.With(zap.String("url", url))); err != nil {
		return fmt.Errorf("setting up console: %w", err)
	}
	if err := webapi.SetupEvents(rt); err != nil {
		return fmt.Errorf("setting up events: %w", err)
	}
	if err := webapi.SetupTimers(rt, h.el); err != nil {
		return fmt.Errorf("setting up timers: %w", err)
	}
	el := h.el
	if err := rt.RegisterFunc(core.PostFunc, func(msg string) {
		el.Post(msg)
	}); err != nil {
		return fmt.Errorf("registering %s: %w", core.PostFunc, err)
	}
	if err := rt.RegisterFunc(evalDoneFunc, h.evalDone); err != nil {
		return fmt.Errorf("registering %s: %w", evalDoneFunc, err)
	}
	return nil
}
