package core

import (
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// JSON is the codec shared by every package that reads or writes bridge
// wire data.
var JSON = jsoniter.ConfigCompatibleWithStandardLibrary

// PostFunc is the page-global function every host installs as its one-way
// "post string to native" channel.
const PostFunc = "__rpc_post"

// Convention selects how a handler's string result is delivered to the page.
type Convention int

const (
	// ConventionString resolves the page promise with the raw string.
	ConventionString Convention = iota
	// ConventionJSON parses the result as a JSON document first.
	ConventionJSON
)

func (c Convention) String() string {
	switch c {
	case ConventionString:
		return "string"
	case ConventionJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Handler is a native function reachable from page script by name.
type Handler interface {
	Invoke(params []string) (string, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(params []string) (string, error)

// Invoke calls f(params).
func (f HandlerFunc) Invoke(params []string) (string, error) { return f(params) }

// AsyncHandler completes a call later, possibly from another goroutine.
// done must be called exactly once; extra calls are ignored.
type AsyncHandler func(params []string, done func(result string, err error))

// CallEnvelope is one page-to-native call as it travels over the wire.
type CallEnvelope struct {
	Seq   int64    `json:"seq"`
	Func  string   `json:"func"`
	Param []string `json:"param"`
	// Page is the random token of the page load that issued the call.
	// Older pages omit it.
	Page string `json:"page,omitempty"`
}

// rawEnvelope tells "absent" apart from zero values.
type rawEnvelope struct {
	Seq   *int64    `json:"seq"`
	Func  *string   `json:"func"`
	Param *[]string `json:"param"`
	Page  string    `json:"page"`
}

// ErrMalformedEnvelope is returned for payloads that are not a complete
// call envelope.
var ErrMalformedEnvelope = errors.New("malformed call envelope")

// ParseEnvelope decodes a posted payload. seq, func and param are all
// required; seq must be positive and func non-empty.
func ParseEnvelope(payload string) (*CallEnvelope, error) {
	var raw rawEnvelope
	if err := JSON.UnmarshalFromString(payload, &raw); err != nil {
		return nil, ErrMalformedEnvelope
	}
	if raw.Seq == nil || raw.Func == nil || raw.Param == nil {
		return nil, ErrMalformedEnvelope
	}
	if *raw.Seq <= 0 || *raw.Func == "" {
		return nil, ErrMalformedEnvelope
	}
	return &CallEnvelope{
		Seq:   *raw.Seq,
		Func:  *raw.Func,
		Param: *raw.Param,
		Page:  raw.Page,
	}, nil
}

// JournalEntry records one completed bridge call.
type JournalEntry struct {
	PageID    string
	URL       string
	Seq       int64
	Func      string
	Params    []string
	OK        bool
	Result    string
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}
