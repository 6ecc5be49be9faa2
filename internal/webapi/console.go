package webapi

import (
	"github.com/cryguy/webview/internal/core"
	"go.uber.org/zap"
)

// consoleJS builds a console whose methods forward to __console. Objects
// are JSON-encoded so page logs stay readable in structured output.
const consoleJS = `
(function() {
	var levels = ['log', 'info', 'warn', 'error', 'debug'];
	var fmt = function(arg) {
		if (typeof arg === 'string') return arg;
		if (arg instanceof Error) {
			var head = String(arg);
			if (!arg.stack) return head;
			return arg.stack.indexOf(head) === 0 ? arg.stack : head + '\n' + arg.stack;
		}
		if (typeof arg === 'object' && arg !== null) {
			try { return JSON.stringify(arg); } catch (e) { return String(arg); }
		}
		return String(arg);
	};
	var con = {};
	for (var i = 0; i < levels.length; i++) {
		(function(lvl) {
			con[lvl] = function() {
				var parts = [];
				for (var j = 0; j < arguments.length; j++) parts.push(fmt(arguments[j]));
				__console(lvl, parts.join(' '));
			};
		})(levels[i]);
	}
	var counters = {};
	var timers = {};
	con.trace = con.debug;
	con.assert = function(cond) {
		if (cond) return;
		var args = Array.prototype.slice.call(arguments, 1);
		con.error.apply(null, ['Assertion failed:'].concat(args));
	};
	con.count = function(label) {
		var l = label || 'default';
		counters[l] = (counters[l] || 0) + 1;
		con.log(l + ': ' + counters[l]);
	};
	con.countReset = function(label) { counters[label || 'default'] = 0; };
	con.time = function(label) { timers[label || 'default'] = Date.now(); };
	con.timeEnd = function(label) {
		var l = label || 'default';
		if (timers[l] === undefined) { con.warn('Timer "' + l + '" does not exist'); return; }
		con.log(l + ': ' + (Date.now() - timers[l]) + 'ms');
		delete timers[l];
	};
	con.table = con.dir = function(obj) { con.log(obj); };
	globalThis.console = con;
})();
`

// SetupConsole replaces globalThis.console with one that writes to log.
// log is usually named after the page, see page.Host.
func SetupConsole(rt core.JSRuntime, log *zap.Logger) error {
	if err := rt.RegisterFunc("__console", func(level, message string) {
		switch level {
		case "error":
			log.Error(message)
		case "warn":
			log.Warn(message)
		case "debug":
			log.Debug(message)
		default:
			log.Info(message)
		}
	}); err != nil {
		return err
	}
	return rt.Eval(consoleJS)
}
