package webapi

import (
	"fmt"
	"time"

	"github.com/cryguy/webview/internal/core"
	"github.com/cryguy/webview/internal/eventloop"
)

// frameInterval paces requestAnimationFrame in a page without a display.
const frameInterval = 16 * time.Millisecond

// maxDelayMs is the largest delay browsers honour; longer ones fire at once.
const maxDelayMs = 1<<31 - 1

// timersJS keeps callbacks in __timerCallbacks, where the event loop looks
// them up by id. String handlers are compiled with indirect eval, as in
// browsers.
const timersJS = `
(function(g) {
	var cbs = g.__timerCallbacks = {};
	var ms = function(delay) {
		delay = Math.floor(Number(delay) || 0);
		return delay > 0 && delay <= %[1]d ? delay : 0;
	};
	var schedule = function(handler, delay, rest, repeat) {
		var fn = handler;
		if (typeof fn !== 'function') {
			var src = String(handler);
			fn = function() { (0, eval)(src); };
		}
		var id = __page_timer_set(ms(delay), repeat);
		cbs[id] = { fn: fn, args: rest, interval: repeat };
		return id;
	};
	var clear = function(id) {
		id = Number(id);
		if (!(id > 0) || !cbs[id]) return;
		__page_timer_clear(id);
		delete cbs[id];
	};
	g.setTimeout = function(handler, delay) {
		return schedule(handler, delay, Array.prototype.slice.call(arguments, 2), false);
	};
	g.setInterval = function(handler, delay) {
		return schedule(handler, delay, Array.prototype.slice.call(arguments, 2), true);
	};
	g.clearTimeout = clear;
	g.clearInterval = clear;

	var started = Date.now();
	g.requestAnimationFrame = function(fn) {
		if (typeof fn !== 'function') throw new TypeError('requestAnimationFrame: callback is not a function');
		var id = __page_timer_set(%[2]d, false);
		cbs[id] = { fn: function() { fn(Date.now() - started); }, args: [], interval: false };
		return id;
	};
	g.cancelAnimationFrame = clear;
})(globalThis);
`

// SetupTimers installs setTimeout, setInterval, requestAnimationFrame and
// their cancel functions, all backed by el.
func SetupTimers(rt core.JSRuntime, el *eventloop.EventLoop) error {
	if err := rt.RegisterFunc("__page_timer_set", func(delayMs int, repeat bool) int {
		return el.RegisterTimer(time.Duration(delayMs)*time.Millisecond, repeat)
	}); err != nil {
		return err
	}
	if err := rt.RegisterFunc("__page_timer_clear", func(id int) {
		el.ClearTimer(id)
	}); err != nil {
		return err
	}
	return rt.Eval(fmt.Sprintf(timersJS, maxDelayMs, frameInterval.Milliseconds()))
}
