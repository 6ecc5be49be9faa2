package webview

import "github.com/cryguy/webview/internal/chrome"

// ChromeOptions configures the browser NewChrome launches.
type ChromeOptions struct {
	Headless bool
	// ExecPath overrides browser discovery.
	ExecPath string
	Width    int
	Height   int
	// Args are extra command-line flags, "name" or "name=value".
	Args []string
}

// NewChrome returns a WebView driving one Chrome tab over the DevTools
// protocol. With cfg.Debug the browser window is shown with developer
// tools open.
func NewChrome(opts ChromeOptions, cfg Config) (*WebView, error) {
	host := chrome.New(chrome.Config{
		Headless: opts.Headless,
		ExecPath: opts.ExecPath,
		Width:    opts.Width,
		Height:   opts.Height,
		Args:     opts.Args,
		DevTools: cfg.Debug,
		Logger:   cfg.Log(),
	})
	return New(host, cfg)
}
