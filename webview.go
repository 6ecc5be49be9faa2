// Package webview exposes a single WebView type over interchangeable page
// hosts, with a bridge that lets page JavaScript call bound Go functions
// and await their results as promises.
package webview

import (
	"context"
	"fmt"
	"sync"

	"github.com/cryguy/webview/internal/bridge"
	"github.com/cryguy/webview/internal/core"
	"github.com/cryguy/webview/internal/page"
	"go.uber.org/zap"
)

// WebView drives one page host and the call bridge into it.
type WebView struct {
	host   core.Host
	bridge *bridge.Bridge
	log    *zap.Logger

	mu     sync.Mutex
	onExit []func()
}

// New wraps host. host must not have been attached to another WebView.
func New(host Host, cfg Config) (*WebView, error) {
	if host == nil {
		return nil, fmt.Errorf("webview: nil host")
	}
	b, err := bridge.New(host, cfg)
	if err != nil {
		return nil, fmt.Errorf("webview: %w", err)
	}
	return &WebView{host: host, bridge: b, log: cfg.Log()}, nil
}

// NewHeadless returns a WebView whose pages run in an embedded JavaScript
// engine (QuickJS, or V8 when built with -tags v8). loader may be nil when
// only about:blank and data: URLs are used.
func NewHeadless(loader PageLoader, cfg Config) (*WebView, error) {
	return New(page.New(loader, newPageRuntime, cfg), cfg)
}

// Bind makes window[name] call binding. The page function returns a
// promise for the result.
func (w *WebView) Bind(name string, binding Binding) error {
	return w.bridge.Bind(name, binding)
}

// BindFunc binds fn with the string convention: the page receives fn's
// result as a string.
func (w *WebView) BindFunc(name string, fn func(params []string) (string, error)) error {
	return w.bridge.Bind(name, bridge.Raw(fn))
}

// BindJSON binds fn with the JSON convention: fn returns a JSON document
// and the page receives it parsed.
func (w *WebView) BindJSON(name string, fn func(params []string) (string, error)) error {
	return w.bridge.Bind(name, bridge.RawJSON(fn))
}

// BindAsync binds fn, which may complete after it returns and from any
// goroutine.
func (w *WebView) BindAsync(name string, conv Convention, fn AsyncHandler) error {
	return w.bridge.Bind(name, bridge.Async(conv, fn))
}

// Unbind removes a binding.
func (w *WebView) Unbind(name string) error {
	return w.bridge.Unbind(name)
}

// Names returns the bound names in registration order.
func (w *WebView) Names() []string {
	return w.bridge.Names()
}

// Init adds script to the start of every later page load.
func (w *WebView) Init(script string) error {
	return w.bridge.Init(script)
}

// Eval runs script in the page, after the page has loaded.
func (w *WebView) Eval(script string) error {
	return w.bridge.Eval(script)
}

// InjectCSS adds a stylesheet to the current document. It is a no-op on
// hosts without a DOM.
func (w *WebView) InjectCSS(css string) error {
	lit, err := core.JSON.MarshalToString(css)
	if err != nil {
		return err
	}
	return w.bridge.Eval(fmt.Sprintf(injectCSSJS, lit))
}

const injectCSSJS = `(function(css) {
	if (typeof document === 'undefined' || !document.createElement) return;
	var s = document.createElement('style');
	s.textContent = css;
	(document.head || document.documentElement).appendChild(s);
})(%s);`

// Navigate loads url. Pending calls of the current page are abandoned.
func (w *WebView) Navigate(url string) error {
	return w.host.Navigate(url)
}

// Dispatch runs fn on the UI thread.
func (w *WebView) Dispatch(fn func()) {
	w.host.Dispatch(fn)
}

// OnNavigate registers fn to run on the UI thread when a navigation
// starts.
func (w *WebView) OnNavigate(fn func(url string)) {
	w.bridge.OnNavigate(fn)
}

// OnExit registers fn to run after Run returns.
func (w *WebView) OnExit(fn func()) {
	w.mu.Lock()
	w.onExit = append(w.onExit, fn)
	w.mu.Unlock()
}

// Run pumps the host until Terminate or until ctx ends.
func (w *WebView) Run(ctx context.Context) error {
	err := w.host.Run(ctx)
	w.mu.Lock()
	exits := append([]func(){}, w.onExit...)
	w.mu.Unlock()
	for _, fn := range exits {
		fn()
	}
	return err
}

// Terminate makes Run return.
func (w *WebView) Terminate() {
	w.host.Terminate()
}

// Close releases the host.
func (w *WebView) Close() error {
	return w.host.Close()
}

// SetTitle sets the window title on hosts with a window.
func (w *WebView) SetTitle(title string) {
	if win, ok := w.host.(core.Window); ok {
		win.SetTitle(title)
	}
}

// SetSize resizes the window on hosts with a window.
func (w *WebView) SetSize(width, height int) {
	if win, ok := w.host.(core.Window); ok {
		win.SetSize(width, height)
	}
}

// Evaluate runs expr in the page and returns String(result), awaiting
// promises. Only hosts that can report results support it.
func (w *WebView) Evaluate(ctx context.Context, expr string) (string, error) {
	ev, ok := w.host.(Evaluator)
	if !ok {
		return "", fmt.Errorf("webview: %T cannot evaluate expressions", w.host)
	}
	return ev.Evaluate(ctx, expr)
}

// Ready reports whether the current page has finished loading.
func (w *WebView) Ready() bool {
	return w.bridge.Ready()
}

// URL returns the URL of the current page.
func (w *WebView) URL() string {
	return w.bridge.URL()
}

// PageID identifies the current page load.
func (w *WebView) PageID() string {
	return w.bridge.PageID()
}

// InFlight returns the number of calls awaiting a reply.
func (w *WebView) InFlight() int {
	return w.bridge.InFlight()
}

// Host returns the underlying host.
func (w *WebView) Host() Host {
	return w.host
}
