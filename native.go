//go:build native

package webview

import (
	"fmt"

	"github.com/cryguy/webview/internal/native"
)

// WindowOptions configures the window NewNative opens.
type WindowOptions struct {
	Title  string
	Width  int
	Height int
}

// NewNative returns a WebView showing pages in a system webview window.
// It must be called on the thread that later calls Run, normally the main
// thread locked with runtime.LockOSThread. cfg.Debug enables the
// webview's developer tools.
func NewNative(opts WindowOptions, cfg Config) (*WebView, error) {
	host, err := native.New(native.Config{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Debug:  cfg.Debug,
		Logger: cfg.Log(),
	})
	if err != nil {
		return nil, fmt.Errorf("webview: %w", err)
	}
	wv, err := New(host, cfg)
	if err != nil {
		_ = host.Close()
		return nil, err
	}
	return wv, nil
}
