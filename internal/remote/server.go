package remote

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/cryguy/webview/internal/page"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ServeHTTP serves pages from the loader and the page socket.
func (h *Host) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == WSPath {
		h.serveSocket(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	p := r.URL.Path
	if strings.HasSuffix(p, "/") {
		p += "index.html"
	}
	src, err := h.loader.Load(p)
	if err != nil {
		if errors.Is(err, page.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.log.Error("loading page failed", zap.String("path", p), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	body := []byte(src)
	ctype := mime.TypeByExtension(path.Ext(p))
	if page.IsHTML(src) {
		if body, err = h.injectShim(src); err != nil {
			h.log.Error("injecting shim failed", zap.String("path", p), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		ctype = "text/html; charset=utf-8"
	} else if ctype == "" {
		ctype = "application/octet-stream"
	}

	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Add("Vary", "Accept-Encoding")
	if h.compress && acceptsBrotli(r) {
		var buf bytes.Buffer
		bw := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
		if _, err := bw.Write(body); err == nil && bw.Close() == nil {
			w.Header().Set("Content-Encoding", "br")
			body = buf.Bytes()
		}
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(body)
	}
}

// injectShim inserts the socket shim followed by every init script as the
// first child of <head>.
func (h *Host) injectShim(doc string) ([]byte, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	head := findElement(root, atom.Head)
	if head == nil {
		return nil, errors.New("document has no head")
	}

	var sb strings.Builder
	sb.WriteString(shimJS)
	for _, s := range h.initScripts() {
		sb.WriteString(";\n")
		sb.WriteString(inlineSafe(s))
	}
	script := &html.Node{Type: html.ElementNode, DataAtom: atom.Script, Data: "script"}
	script.AppendChild(&html.Node{Type: html.TextNode, Data: sb.String()})
	head.InsertBefore(script, head.FirstChild)

	var out bytes.Buffer
	if err := html.Render(&out, root); err != nil {
		return nil, fmt.Errorf("rendering html: %w", err)
	}
	return out.Bytes(), nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func acceptsBrotli(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if enc == "br" {
			return true
		}
	}
	return false
}
