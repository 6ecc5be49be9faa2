package remote

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/cryguy/webview/internal/core"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxFrameBytes = 16 << 20

// peer is one connected tab. Frames queue without bound until the writer
// drains them, so a slow tab delays replies but never loses them.
type peer struct {
	id   string
	ws   *websocket.Conn
	gone chan struct{}

	mu      sync.Mutex
	pending [][]byte
	ready   chan struct{}
}

func newPeer(ws *websocket.Conn) *peer {
	return &peer{
		id:    uuid.NewString(),
		ws:    ws,
		gone:  make(chan struct{}),
		ready: make(chan struct{}, 1),
	}
}

func (p *peer) send(f frame) error {
	data, err := core.JSON.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	select {
	case <-p.gone:
		return core.ErrNotConnected
	default:
	}
	p.mu.Lock()
	p.pending = append(p.pending, data)
	p.mu.Unlock()
	select {
	case p.ready <- struct{}{}:
	default:
	}
	return nil
}

func (p *peer) take() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.pending
	p.pending = nil
	return out
}

func (p *peer) close(reason string) {
	_ = p.ws.Close(websocket.StatusNormalClosure, reason)
}

func (h *Host) serveSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn("websocket accept failed", zap.Error(err))
		return
	}
	ws.SetReadLimit(maxFrameBytes)

	p := newPeer(ws)
	if !h.track(p) {
		_ = ws.Close(websocket.StatusGoingAway, "host stopped")
		return
	}
	defer h.untrack(p)
	if err := h.post(func() { h.connected(p, r.URL.Query().Get("u")) }); err != nil {
		_ = ws.Close(websocket.StatusGoingAway, "host closed")
		return
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error { return h.readFrames(ctx, p) })
	g.Go(func() error { return writeFrames(ctx, p) })
	err = g.Wait()
	close(p.gone)
	_ = ws.CloseNow()
	_ = h.post(func() { h.disconnected(p) })

	if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
		h.log.Debug("page connection ended", zap.String("conn", p.id), zap.Error(err))
	}
}

func (h *Host) readFrames(ctx context.Context, p *peer) error {
	for {
		typ, data, err := p.ws.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}
		var f frame
		if err := core.JSON.Unmarshal(data, &f); err != nil {
			h.log.Debug("dropping malformed frame", zap.String("conn", p.id), zap.Error(err))
			continue
		}
		if err := h.post(func() { h.received(p, f) }); err != nil {
			return err
		}
	}
}

func writeFrames(ctx context.Context, p *peer) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.ready:
			for _, data := range p.take() {
				if err := p.ws.Write(ctx, websocket.MessageText, data); err != nil {
					return err
				}
			}
		}
	}
}
