// Package chrome hosts pages in a Chrome tab driven over the DevTools
// protocol.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/cryguy/webview/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config configures the browser the Host launches.
type Config struct {
	Headless bool
	// ExecPath overrides browser discovery.
	ExecPath string
	Width    int
	Height   int
	// Args are extra command-line flags, "name" or "name=value".
	Args []string
	// DevTools shows the browser window with developer tools open for
	// every tab. It overrides Headless.
	DevTools bool
	Logger   *zap.Logger
}

// Host drives one Chrome tab and implements core.Host.
//
// DevTools listeners never call back into the browser: events are posted
// to the UI loop and every CDP command goes through a single ordered
// command queue.
type Host struct {
	cfg    Config
	log    *zap.Logger
	events core.HostEvents

	mu      sync.Mutex
	tasks   []func()
	cmds    []chromedp.Action
	inits   []string
	start   string
	running bool
	closed  bool

	wake     chan struct{}
	cmdWake  chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// Owned by the UI goroutine.
	url string
}

var _ core.Host = (*Host)(nil)

// New returns a Host. The browser is launched by Run.
func New(cfg Config) *Host {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Host{
		cfg:     cfg,
		log:     log.Named("chrome-host"),
		wake:    make(chan struct{}, 1),
		cmdWake: make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Attach installs the bridge hooks.
func (h *Host) Attach(events core.HostEvents) {
	h.events = events
}

// Init registers script for every new document.
func (h *Host) Init(script string) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return core.ErrClosed
	}
	h.inits = append(h.inits, script)
	running := h.running
	h.mu.Unlock()
	if running {
		return h.command(addInitScript(script))
	}
	return nil
}

// Eval evaluates script in the tab's main frame.
func (h *Host) Eval(script string) error {
	return h.command(chromedp.ActionFunc(func(ctx context.Context) error {
		_, exc, err := runtime.Evaluate(script).Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			h.log.Warn("eval threw", zap.String("error", exceptionText(exc)))
		}
		return nil
	}))
}

// Navigate loads url in the tab. Before Run it sets the start page.
func (h *Host) Navigate(url string) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return core.ErrClosed
	}
	if !h.running {
		h.start = url
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()
	return h.command(chromedp.ActionFunc(func(ctx context.Context) error {
		var res page.NavigateReturns
		if err := cdp.Execute(ctx, page.CommandNavigate, page.Navigate(url), &res); err != nil {
			return err
		}
		if res.ErrorText != "" {
			return fmt.Errorf("navigating to %s: %s", url, res.ErrorText)
		}
		return nil
	}))
}

// Dispatch runs fn on the UI goroutine.
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
	signal(h.wake)
	return nil
}

func (h *Host) command(a chromedp.Action) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return core.ErrClosed
	}
	h.cmds = append(h.cmds, a)
	h.mu.Unlock()
	signal(h.cmdWake)
	return nil
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (h *Host) takeTasks() []func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	tasks := h.tasks
	h.tasks = nil
	return tasks
}

func (h *Host) takeCommands() []chromedp.Action {
	h.mu.Lock()
	defer h.mu.Unlock()
	cmds := h.cmds
	h.cmds = nil
	return cmds
}

// allocatorOptions returns the flags the browser is launched with.
// DevTools reports whether the browser is launched with developer tools
// open.
func (h *Host) DevTools() bool {
	return h.cfg.DevTools
}

func (h *Host) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.Flag("enable-automation", true),
	}
	switch {
	case h.cfg.DevTools:
		opts = append(opts, chromedp.Flag("auto-open-devtools-for-tabs", true))
	case h.cfg.Headless:
		opts = append(opts, chromedp.Headless, chromedp.NoSandbox)
	}
	if h.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(h.cfg.ExecPath))
	}
	if h.cfg.Width > 0 && h.cfg.Height > 0 {
		opts = append(opts, chromedp.WindowSize(h.cfg.Width, h.cfg.Height))
	}
	for _, arg := range h.cfg.Args {
		if key, value, ok := strings.Cut(arg, "="); ok {
			opts = append(opts, chromedp.Flag(key, value))
		} else {
			opts = append(opts, chromedp.Flag(arg, true))
		}
	}
	return opts
}

// Run launches the browser, opens the start page and pumps the UI loop
// until Terminate or ctx ends. The browser exits when Run returns.
func (h *Host) Run(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return core.ErrClosed
	}
	if h.running {
		h.mu.Unlock()
		return errors.New("chrome host already running")
	}
	h.running = true
	inits := append([]string(nil), h.inits...)
	start := h.start
	h.mu.Unlock()
	defer close(h.done)

	sugar := h.log.Sugar()
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), h.allocatorOptions()...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Errorf),
	)
	defer cancelTab()

	chromedp.ListenTarget(tabCtx, h.handleEvent)

	setup := chromedp.Tasks{runtime.AddBinding(core.PostFunc)}
	for _, s := range inits {
		setup = append(setup, addInitScript(s))
	}
	if err := chromedp.Run(tabCtx, setup); err != nil {
		return fmt.Errorf("starting browser: %w", err)
	}
	if start != "" {
		if err := h.Navigate(start); err != nil {
			return err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancel()
		return h.loop(gctx)
	})
	g.Go(func() error { return h.commandLoop(gctx, tabCtx) })
	err := g.Wait()

	if cerr := chromedp.Cancel(tabCtx); cerr != nil {
		h.log.Debug("closing browser", zap.Error(cerr))
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (h *Host) loop(ctx context.Context) error {
	for {
		for _, task := range h.takeTasks() {
			task()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.stop:
			return nil
		case <-h.wake:
		}
	}
}

// commandLoop runs queued CDP commands in order against the tab.
func (h *Host) commandLoop(ctx, tab context.Context) error {
	for {
		for _, a := range h.takeCommands() {
			if err := chromedp.Run(tab, a); err != nil {
				if tab.Err() != nil {
					return fmt.Errorf("browser gone: %w", err)
				}
				h.log.Warn("devtools command failed", zap.Error(err))
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.cmdWake:
		}
	}
}

// handleEvent runs on chromedp's event goroutine and only forwards.
func (h *Host) handleEvent(ev any) {
	switch ev := ev.(type) {
	case *runtime.EventBindingCalled:
		if ev.Name != core.PostFunc {
			return
		}
		payload := ev.Payload
		_ = h.post(func() {
			if h.events.OnMessage != nil {
				h.events.OnMessage(payload)
			}
		})
	case *page.EventFrameNavigated:
		if ev.Frame == nil || ev.Frame.ParentID != "" {
			return
		}
		url := frameURL(ev.Frame)
		_ = h.post(func() {
			h.url = url
			if h.events.OnNavigate != nil {
				h.events.OnNavigate(url)
			}
		})
	case *page.EventLoadEventFired:
		_ = h.post(func() {
			if h.events.OnLoad != nil {
				h.events.OnLoad(h.url)
			}
		})
	case *runtime.EventExceptionThrown:
		if ev.ExceptionDetails != nil {
			h.log.Named("page").Warn("uncaught exception", zap.String("error", exceptionText(ev.ExceptionDetails)))
		}
	}
}

// Terminate makes Run return.
func (h *Host) Terminate() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Close stops Run, which shuts the browser down.
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	running := h.running
	h.tasks = nil
	h.cmds = nil
	h.mu.Unlock()

	h.Terminate()
	if running {
		<-h.done
	}
	return nil
}

// URL returns the main frame's URL. Only meaningful on the UI goroutine.
func (h *Host) URL() string {
	return h.url
}

func addInitScript(script string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
		return err
	})
}

func frameURL(f *cdp.Frame) string {
	return f.URL + f.URLFragment
}

func exceptionText(exc *runtime.ExceptionDetails) string {
	if exc.Exception != nil && exc.Exception.Description != "" {
		return exc.Exception.Description
	}
	return exc.Text
}
