package bridge

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/cryguy/webview/internal/core"
	"go.uber.org/zap"
)

// HandleMessage decodes one posted envelope and dispatches it. It runs on
// the host UI thread. Malformed payloads are dropped; every well-formed
// call is answered exactly once unless the page navigates first.
func (b *Bridge) HandleMessage(payload string) {
	env, err := core.ParseEnvelope(payload)
	if err != nil {
		b.log.Debug("dropping malformed message", zap.Int("bytes", len(payload)))
		return
	}
	ticket, ok := b.corr.Begin(env.Page, env.Seq, env.Func)
	if !ok {
		b.log.Debug("dropping duplicate call", zap.String("func", env.Func), zap.Int64("seq", env.Seq))
		return
	}

	b.mu.Lock()
	call := callInfo{env: env, pageID: b.pageID, url: b.url}
	b.mu.Unlock()

	binding, found := b.reg.Lookup(env.Func)
	if !found {
		b.finish(ticket, call, "", fmt.Errorf("%w %q", ErrUnknownFunction, env.Func), core.ConventionString)
		return
	}

	if binding.Async != nil {
		b.invokeAsync(ticket, call, binding)
		return
	}
	result, err := b.invoke(env, binding.Handler)
	b.finish(ticket, call, result, err, binding.Convention)
}

type callInfo struct {
	env    *core.CallEnvelope
	pageID string
	url    string
}

func (b *Bridge) invoke(env *core.CallEnvelope, h core.Handler) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("handler panicked",
				zap.String("func", env.Func),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("handler %q panicked: %v", env.Func, r)
		}
	}()
	return h.Invoke(env.Param)
}

func (b *Bridge) invokeAsync(ticket *Ticket, call callInfo, binding Binding) {
	var once sync.Once
	done := func(result string, err error) {
		once.Do(func() {
			b.host.Dispatch(func() {
				b.finish(ticket, call, result, err, binding.Convention)
			})
		})
	}
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("async handler panicked",
				zap.String("func", call.env.Func),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			done("", fmt.Errorf("handler %q panicked: %v", call.env.Func, r))
		}
	}()
	binding.Async(call.env.Param, done)
}

// finish sends the reply for ticket and records it. Replies for a page
// that has navigated away are dropped.
func (b *Bridge) finish(ticket *Ticket, call callInfo, result string, err error, conv core.Convention) {
	if !b.corr.Complete(ticket) {
		b.log.Debug("dropping stale reply", zap.String("func", ticket.Func), zap.Int64("seq", ticket.Seq))
		return
	}
	if err != nil {
		b.log.Debug("call rejected", zap.String("func", ticket.Func), zap.Int64("seq", ticket.Seq), zap.Error(err))
	}
	script := SettleScript(ticket.Token, ticket.Seq, result, err, conv)
	if evalErr := b.host.Eval(script); evalErr != nil {
		b.log.Warn("sending reply", zap.String("func", ticket.Func), zap.Int64("seq", ticket.Seq), zap.Error(evalErr))
		b.record(ticket, call, "", fmt.Errorf("%w: %w", ErrReplyUndelivered, evalErr))
		return
	}
	b.record(ticket, call, result, err)
}

func (b *Bridge) record(ticket *Ticket, call callInfo, result string, err error) {
	if b.journal == nil {
		return
	}
	entry := core.JournalEntry{
		PageID:    call.pageID,
		URL:       call.url,
		Seq:       ticket.Seq,
		Func:      ticket.Func,
		Params:    call.env.Param,
		OK:        err == nil,
		Result:    result,
		Duration:  time.Since(ticket.Started),
		CreatedAt: time.Now(),
	}
	if err != nil {
		entry.Result = ""
		entry.Error = err.Error()
	}
	if jerr := b.journal.Record(context.Background(), entry); jerr != nil {
		b.log.Warn("journal record failed", zap.Error(jerr))
	}
}
