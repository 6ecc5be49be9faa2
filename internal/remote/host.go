// Package remote hosts pages in an ordinary browser tab. Pages are served
// over HTTP with a shim that connects back over a WebSocket; the socket
// carries posts and load notices to the host and scripts to the page.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cryguy/webview/internal/core"
	"github.com/cryguy/webview/internal/page"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config configures a remote Host.
type Config struct {
	// Addr is the listen address, e.g. "127.0.0.1:8765". Port 0 picks a
	// free port.
	Addr string
	// Compress enables brotli for clients that accept it.
	Compress bool
	Logger   *zap.Logger
}

// Host serves pages to a browser and implements core.Host. Only the most
// recently connected tab is driven; older tabs are disconnected.
type Host struct {
	loader   core.PageLoader
	addr     string
	compress bool
	log      *zap.Logger

	events core.HostEvents

	mu       sync.Mutex
	tasks    []func()
	inits    []string
	current  *peer
	peers    map[*peer]struct{}
	conns    sync.WaitGroup
	pending  string // navigation requested before any tab connected
	running  bool
	stopping bool
	closed   bool
	ln       net.Listener
	srv      *http.Server

	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// Owned by the UI goroutine.
	url string
}

var _ core.Host = (*Host)(nil)

// New returns a Host serving pages from loader.
func New(loader core.PageLoader, cfg Config) *Host {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	addr := cfg.Addr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	return &Host{
		loader:   loader,
		addr:     addr,
		compress: cfg.Compress,
		log:      log.Named("remote-host"),
		peers:    make(map[*peer]struct{}),
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Listen binds the server socket and returns the base URL pages are
// served from. Run calls it when it was not called before.
func (h *Host) Listen() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return "", core.ErrClosed
	}
	if h.ln == nil {
		ln, err := net.Listen("tcp", h.addr)
		if err != nil {
			return "", fmt.Errorf("listening on %s: %w", h.addr, err)
		}
		h.ln = ln
		h.srv = &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}
	}
	return "http://" + h.ln.Addr().String(), nil
}

// StartURL returns the path of the last navigation requested before a tab
// connected, or "/" when there was none.
func (h *Host) StartURL() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending == "" {
		return "/"
	}
	return h.pending
}

// Attach installs the bridge hooks.
func (h *Host) Attach(events core.HostEvents) {
	h.events = events
}

// Init registers script for every page served from now on.
func (h *Host) Init(script string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return core.ErrClosed
	}
	h.inits = append(h.inits, script)
	return nil
}

func (h *Host) initScripts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.inits...)
}

// Eval sends script to the connected tab.
func (h *Host) Eval(script string) error {
	p, err := h.peer()
	if err != nil {
		return err
	}
	return p.send(frame{T: frameEval, D: script})
}

// Navigate points the connected tab at url. Without a tab, url becomes
// the start page.
func (h *Host) Navigate(url string) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return core.ErrClosed
	}
	p := h.current
	if p == nil {
		h.pending = url
	}
	h.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.send(frame{T: frameNavigate, U: url})
}

// Dispatch runs fn on the UI goroutine.
func (h *Host) Dispatch(fn func()) {
	_ = h.post(fn)
}

func (h *Host) peer() (*peer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, core.ErrClosed
	}
	if h.current == nil {
		return nil, core.ErrNotConnected
	}
	return h.current, nil
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

// Run serves HTTP and pumps the UI loop until Terminate or ctx ends.
func (h *Host) Run(ctx context.Context) error {
	if _, err := h.Listen(); err != nil {
		return err
	}
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return errors.New("remote host already running")
	}
	h.running = true
	ln, srv := h.ln, h.srv
	h.mu.Unlock()
	defer close(h.done)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer h.shutdown(srv)
		return h.loop(gctx)
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
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

func (h *Host) shutdown(srv *http.Server) {
	h.mu.Lock()
	h.stopping = true
	h.current = nil
	peers := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()
	for _, p := range peers {
		go p.close("host stopped")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		h.log.Warn("http shutdown", zap.Error(err))
	}
	h.conns.Wait()
}

// track registers a live connection. It fails once the host is stopping.
func (h *Host) track(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopping || h.closed {
		return false
	}
	h.peers[p] = struct{}{}
	h.conns.Add(1)
	return true
}

func (h *Host) untrack(p *peer) {
	h.mu.Lock()
	delete(h.peers, p)
	h.mu.Unlock()
	h.conns.Done()
}

// Terminate makes Run return.
func (h *Host) Terminate() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Close stops Run and the server.
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	running := h.running
	ln := h.ln
	h.tasks = nil
	h.mu.Unlock()

	h.Terminate()
	if running {
		<-h.done
	} else if ln != nil {
		return ln.Close()
	}
	return nil
}

// URL returns the location the connected tab last reported. Only
// meaningful on the UI goroutine.
func (h *Host) URL() string {
	return h.url
}

// connected runs on the UI goroutine when a tab opens its socket.
func (h *Host) connected(p *peer, url string) {
	h.mu.Lock()
	old := h.current
	h.current = p
	h.pending = ""
	h.mu.Unlock()
	if old != nil {
		go old.close("superseded")
	}
	if url == "" {
		url = page.BlankURL
	}
	h.url = url
	h.log.Debug("tab connected", zap.String("conn", p.id), zap.String("url", url))
	if h.events.OnNavigate != nil {
		h.events.OnNavigate(url)
	}
}

// received runs on the UI goroutine for each frame from p.
func (h *Host) received(p *peer, f frame) {
	if !h.isCurrent(p) {
		return
	}
	switch f.T {
	case framePost:
		if h.events.OnMessage != nil {
			h.events.OnMessage(f.D)
		}
	case frameLoad:
		if f.U != "" {
			h.url = f.U
		}
		if h.events.OnLoad != nil {
			h.events.OnLoad(h.url)
		}
	default:
		h.log.Debug("unknown frame", zap.String("conn", p.id), zap.String("type", f.T))
	}
}

func (h *Host) disconnected(p *peer) {
	h.mu.Lock()
	if h.current == p {
		h.current = nil
	}
	h.mu.Unlock()
	h.log.Debug("tab disconnected", zap.String("conn", p.id))
}

func (h *Host) isCurrent(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current == p
}
