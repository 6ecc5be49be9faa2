package webview

import (
	"context"

	"github.com/cryguy/webview/internal/bridge"
	"github.com/cryguy/webview/internal/core"
	"github.com/cryguy/webview/internal/page"
)

// Type aliases re-exporting internal types so callers can implement hosts
// and handlers without importing internal packages.

type Config = core.Config
type Host = core.Host
type HostEvents = core.HostEvents
type Window = core.Window
type PageLoader = core.PageLoader
type Journal = core.Journal
type JournalEntry = core.JournalEntry
type Handler = core.Handler
type HandlerFunc = core.HandlerFunc
type AsyncHandler = core.AsyncHandler
type Convention = core.Convention
type CallEnvelope = core.CallEnvelope
type Binding = bridge.Binding
type Param[T any] = bridge.Param[T]
type StaticLoader = page.StaticLoader
type FileLoader = page.FileLoader

// Evaluator is implemented by hosts that can return the value of an
// expression evaluated in the page.
type Evaluator interface {
	Evaluate(ctx context.Context, expr string) (string, error)
}

const (
	ConventionString = core.ConventionString
	ConventionJSON   = core.ConventionJSON
	BlankURL         = page.BlankURL
)

var (
	ErrInvalidName      = bridge.ErrInvalidName
	ErrUnknownFunction  = bridge.ErrUnknownFunction
	ErrArity            = bridge.ErrArity
	ErrInvalidJSON      = bridge.ErrInvalidJSON
	ErrQueueFull        = bridge.ErrQueueFull
	ErrReplyUndelivered = bridge.ErrReplyUndelivered
	ErrClosed           = core.ErrClosed
	ErrNotConnected     = core.ErrNotConnected
)

// Parameter parsers for the typed adapters.
var (
	String = bridge.String
	Int    = bridge.Int
	Float  = bridge.Float
	Bool   = bridge.Bool
)

// Functions re-exported from internal packages.
var (
	Raw           = bridge.Raw
	RawJSON       = bridge.RawJSON
	Async         = bridge.Async
	Action0       = bridge.Action0
	BundleScript  = page.BundleScript
	NeedsBundling = page.NeedsBundling
)

// JSON decodes a parameter the page passed as an object or array.
func JSON[T any]() Param[T] { return bridge.JSON[T]() }

// Func0 binds fn; string results use the string convention, anything else
// is sent as JSON.
func Func0[R any](fn func() (R, error)) Binding { return bridge.Func0(fn) }

// Func1 binds a one-parameter function.
func Func1[A, R any](pa Param[A], fn func(A) (R, error)) Binding { return bridge.Func1(pa, fn) }

// Func2 binds a two-parameter function.
func Func2[A, B, R any](pa Param[A], pb Param[B], fn func(A, B) (R, error)) Binding {
	return bridge.Func2(pa, pb, fn)
}

// Func3 binds a three-parameter function.
func Func3[A, B, C, R any](pa Param[A], pb Param[B], pc Param[C], fn func(A, B, C) (R, error)) Binding {
	return bridge.Func3(pa, pb, pc, fn)
}

// Action1 binds a one-parameter function without a result.
func Action1[A any](pa Param[A], fn func(A) error) Binding { return bridge.Action1(pa, fn) }

// Action2 binds a two-parameter function without a result.
func Action2[A, B any](pa Param[A], pb Param[B], fn func(A, B) error) Binding {
	return bridge.Action2(pa, pb, fn)
}

// IsEvalError reports whether an Evaluate error was thrown by the page
// rather than raised by the host.
func IsEvalError(err error) bool { return page.IsEvalError(err) }
