// Package bridge implements the JavaScript to Go call bridge on top of any
// core.Host: stub injection, call correlation, dispatch and replies.
package bridge

import (
	"fmt"
	"sync"

	"github.com/cryguy/webview/internal/core"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Bridge wires a Registry of native handlers into the pages shown by a
// Host.
type Bridge struct {
	host    core.Host
	log     *zap.Logger
	journal core.Journal

	inj   *Injector
	reg   *Registry
	corr  *Correlator
	queue *ScriptQueue

	mu        sync.Mutex
	stubbed   map[string]bool // names with a stub among the host init scripts
	ready     bool
	url       string
	pageID    string
	listeners []func(url string)
}

// New attaches a Bridge to host and registers the bootstrap script for
// every page load from now on.
func New(host core.Host, cfg core.Config) (*Bridge, error) {
	log := cfg.Log().Named("bridge")
	b := &Bridge{
		host:    host,
		log:     log,
		journal: cfg.Journal,
		inj:     NewInjector(cfg.MinifyScripts, log),
		reg:     NewRegistry(),
		corr:    NewCorrelator(),
		queue:   NewScriptQueue(cfg.MaxQueued),
		pageID:  uuid.NewString(),
		stubbed: make(map[string]bool),
	}
	host.Attach(core.HostEvents{
		OnMessage:  b.HandleMessage,
		OnNavigate: b.handleNavigate,
		OnLoad:     b.handleLoad,
	})
	if err := host.Init(b.inj.Bootstrap()); err != nil {
		return nil, fmt.Errorf("installing bootstrap: %w", err)
	}
	return b, nil
}

// Bind registers binding under name and makes window[name] available in
// the current page (if loaded) and every later one. Binding a name again
// replaces the previous handler. The host receives one init script per
// name no matter how often the name is bound or unbound.
func (b *Bridge) Bind(name string, binding Binding) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if !binding.valid() {
		return fmt.Errorf("binding %q: no handler", name)
	}
	b.reg.Store(name, binding)

	stub := b.inj.Stub(name)
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.stubbed[name] {
		if err := b.host.Init(stub); err != nil {
			return fmt.Errorf("binding %q: %w", name, err)
		}
		b.stubbed[name] = true
	}
	if b.ready {
		if err := b.host.Eval(stub); err != nil {
			return fmt.Errorf("binding %q: %w", name, err)
		}
	}
	b.log.Debug("bound", zap.String("name", name), zap.Stringer("convention", binding.Convention))
	return nil
}

// Unbind removes name. Calls already in flight still get their reply;
// later calls from pages that kept a reference are rejected. Later pages
// may see the stub while they load; it is removed once they are ready.
func (b *Bridge) Unbind(name string) error {
	if !b.reg.Delete(name) {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ready {
		return b.host.Eval(b.inj.Unbind(name))
	}
	return nil
}

// Init registers script to run at the start of every later page load.
func (b *Bridge) Init(script string) error {
	return b.host.Init(script)
}

// Eval runs script in the page. Before the first load completes, and
// between a navigation and its load, scripts are queued and run in order
// once the page is ready.
func (b *Bridge) Eval(script string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.ready {
		return b.queue.Push(script)
	}
	return b.host.Eval(script)
}

// OnNavigate registers fn to be called on the UI thread whenever a
// navigation starts.
func (b *Bridge) OnNavigate(fn func(url string)) {
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

// Ready reports whether the current page finished loading.
func (b *Bridge) Ready() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// URL returns the URL of the current page.
func (b *Bridge) URL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.url
}

// PageID identifies the current page load.
func (b *Bridge) PageID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pageID
}

// InFlight returns the number of calls awaiting a reply.
func (b *Bridge) InFlight() int {
	return b.corr.InFlight()
}

// Names returns the bound names in registration order.
func (b *Bridge) Names() []string {
	entries := b.reg.Entries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func (b *Bridge) handleNavigate(url string) {
	b.mu.Lock()
	b.ready = false
	b.url = url
	b.pageID = uuid.NewString()
	listeners := append([]func(string){}, b.listeners...)
	b.mu.Unlock()

	if n := b.corr.Reset(); n > 0 {
		b.log.Debug("navigation abandoned in-flight calls", zap.String("url", url), zap.Int("calls", n))
	}
	for _, fn := range listeners {
		fn(url)
	}
}

func (b *Bridge) handleLoad(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ready = true
	if url != "" {
		b.url = url
	}

	// Hosts run Init scripts on load already. Evaluating them again covers
	// hosts that attached late and bindings made during the load; both
	// scripts are idempotent.
	scripts := []string{b.inj.Bootstrap()}
	for _, e := range b.reg.Entries() {
		scripts = append(scripts, b.inj.Stub(e.Name))
	}
	for name := range b.stubbed {
		if _, bound := b.reg.Lookup(name); !bound {
			scripts = append(scripts, b.inj.Unbind(name))
		}
	}
	queued := b.queue.Len()
	scripts = append(scripts, b.queue.Drain()...)
	for _, s := range scripts {
		if err := b.host.Eval(s); err != nil {
			b.log.Warn("evaluating script after load", zap.Error(err))
		}
	}
	b.log.Debug("page ready", zap.String("url", b.url), zap.String("page", b.pageID), zap.Int("queued", queued))
}
