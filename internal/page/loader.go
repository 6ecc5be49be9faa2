package page

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cryguy/webview/internal/core"
)

// ErrNotFound is returned by loaders that have nothing at a URL.
var ErrNotFound = errors.New("page not found")

// BlankURL is the empty page every host starts on.
const BlankURL = "about:blank"

// StaticLoader serves pages from memory, keyed by URL.
type StaticLoader map[string]string

// Load returns the page registered for rawURL.
func (l StaticLoader) Load(rawURL string) (string, error) {
	if src, ok := l[rawURL]; ok {
		return src, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, rawURL)
}

// FileLoader serves pages from a directory. It accepts file:// URLs and
// plain paths; both are resolved inside Root.
type FileLoader struct {
	Root string
}

// Load reads the file rawURL refers to.
func (l FileLoader) Load(rawURL string) (string, error) {
	p := rawURL
	if strings.HasPrefix(p, "file://") {
		u, err := url.Parse(p)
		if err != nil {
			return "", fmt.Errorf("parsing %q: %w", rawURL, err)
		}
		p = u.Path
	}
	// Cleaned against "/" so ".." never climbs out of Root.
	full := filepath.Join(l.Root, filepath.FromSlash(path.Clean("/"+filepath.ToSlash(p))))
	data, err := os.ReadFile(full)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", full, err)
	}
	return string(data), nil
}

// WithBuiltins wraps next so that about:blank and data: URLs are handled
// without it. next may be nil.
func WithBuiltins(next core.PageLoader) core.PageLoader {
	return builtinLoader{next: next}
}

type builtinLoader struct {
	next core.PageLoader
}

func (l builtinLoader) Load(rawURL string) (string, error) {
	switch {
	case rawURL == "" || rawURL == BlankURL:
		return "", nil
	case strings.HasPrefix(rawURL, "data:"):
		return decodeDataURL(rawURL)
	case l.next == nil:
		return "", fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	default:
		return l.next.Load(rawURL)
	}
}

// decodeDataURL returns the payload of a data: URL. The media type is
// ignored; the payload is always treated as text.
func decodeDataURL(rawURL string) (string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(rawURL, "data:"), ",")
	if !ok {
		return "", fmt.Errorf("data URL without payload")
	}
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		out, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", fmt.Errorf("decoding data URL: %w", err)
		}
		return string(out), nil
	}
	out, err := url.PathUnescape(payload)
	if err != nil {
		return "", fmt.Errorf("decoding data URL: %w", err)
	}
	return out, nil
}
