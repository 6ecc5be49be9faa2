package bridge

import "errors"

var (
	// ErrInvalidName is returned for handler names that cannot become a
	// page-global function.
	ErrInvalidName = errors.New("webview: invalid binding name")
	// ErrUnknownFunction rejects calls for names with no bound handler.
	ErrUnknownFunction = errors.New("webview: no handler bound for")
	// ErrArity rejects calls with the wrong number of parameters.
	ErrArity = errors.New("webview: wrong number of parameters")
	// ErrInvalidJSON rejects JSON-convention results that do not parse.
	ErrInvalidJSON = errors.New("webview: handler returned invalid JSON")
	// ErrQueueFull is returned when too many scripts wait for the page.
	ErrQueueFull = errors.New("webview: script queue full")
	// ErrReplyUndelivered is journaled when the host could not deliver a
	// reply to the page.
	ErrReplyUndelivered = errors.New("webview: reply not delivered")
)
