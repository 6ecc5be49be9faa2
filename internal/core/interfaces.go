package core

import (
	"context"
	"errors"
)

// HostEvents are the hooks a Host fires into the bridge. Every callback runs
// on the host's UI thread (the goroutine executing Run).
type HostEvents struct {
	// OnMessage receives a string the page posted through PostFunc.
	OnMessage func(payload string)
	// OnNavigate fires when a navigation starts. All page-global state of
	// the previous page is gone from this point on.
	OnNavigate func(url string)
	// OnLoad fires once the new page finished loading and scripts may be
	// evaluated in it.
	OnLoad func(url string)
}

// Host is a page toolkit: a headless JS engine, a native webview window, a
// DevTools-driven browser or a remote browser tab. It only has to provide
// the primitives below; the RPC protocol lives in internal/bridge.
type Host interface {
	// Attach installs the bridge's event hooks. Called once, before Run.
	Attach(events HostEvents)

	// Init registers a script that runs at the start of every subsequent
	// page load, before the page's own scripts.
	Init(script string) error

	// Eval asynchronously executes script in the current page. It is safe
	// to call from any goroutine and never waits for the script's result.
	Eval(script string) error

	// Navigate starts loading url.
	Navigate(url string) error

	// Dispatch schedules fn on the UI thread.
	Dispatch(fn func())

	// Run pumps the host loop until Terminate is called or ctx is done.
	Run(ctx context.Context) error

	// Terminate asks Run to return.
	Terminate()

	// Close releases the host's resources.
	Close() error
}

// Window is implemented by hosts that own a native window.
type Window interface {
	SetTitle(title string)
	SetSize(width, height int)
}

// PageLoader retrieves page source for a URL.
type PageLoader interface {
	Load(url string) (string, error)
}

// Journal persists completed bridge calls.
type Journal interface {
	Record(ctx context.Context, entry JournalEntry) error
}

var (
	// ErrClosed is returned by hosts that were already closed.
	ErrClosed = errors.New("host closed")
	// ErrNotConnected is returned when no page is attached to the host.
	ErrNotConnected = errors.New("no page connected")
)
