package webapi

import (
	"github.com/cryguy/webview/internal/core"
)

// eventsJS makes window and document event targets and defines the
// lifecycle FireLoad runs once the page's own scripts are done. Listener
// exceptions go to reportError and never stop the dispatch.
const eventsJS = `
(function(g) {
	if (typeof g.Event !== 'function') {
		g.Event = function Event(type, init) {
			this.type = String(type);
			this.cancelable = !!(init && init.cancelable);
			this.defaultPrevented = false;
			this.target = null;
			this.timeStamp = Date.now();
		};
		g.Event.prototype.preventDefault = function() {
			if (this.cancelable) this.defaultPrevented = true;
		};
		g.Event.prototype.stopImmediatePropagation = function() { this._stopped = true; };
	}
	if (typeof g.ErrorEvent !== 'function') {
		g.ErrorEvent = function ErrorEvent(type, init) {
			g.Event.call(this, type, init);
			this.error = init && init.error !== undefined ? init.error : null;
			this.message = (init && init.message) || '';
		};
		g.ErrorEvent.prototype = Object.create(g.Event.prototype);
	}

	var target = function(obj) {
		var listeners = {};
		obj.addEventListener = function(type, fn, opts) {
			if (typeof fn !== 'function' && !(fn && typeof fn.handleEvent === 'function')) return;
			var list = listeners[type] || (listeners[type] = []);
			for (var i = 0; i < list.length; i++) if (list[i].fn === fn) return;
			list.push({ fn: fn, once: !!(opts && typeof opts === 'object' && opts.once) });
		};
		obj.removeEventListener = function(type, fn) {
			var list = listeners[type];
			if (list) listeners[type] = list.filter(function(l) { return l.fn !== fn; });
		};
		obj.dispatchEvent = function(ev) {
			ev.target = obj;
			ev.currentTarget = obj;
			var list = (listeners[ev.type] || []).slice();
			var prop = obj['on' + ev.type];
			if (typeof prop === 'function') list.unshift({ fn: prop });
			for (var i = 0; i < list.length && !ev._stopped; i++) {
				var l = list[i];
				if (l.once) obj.removeEventListener(ev.type, l.fn);
				try {
					if (typeof l.fn === 'function') l.fn.call(obj, ev);
					else l.fn.handleEvent(ev);
				} catch (e) {
					g.reportError(e);
				}
			}
			return !ev.defaultPrevented;
		};
		return obj;
	};

	target(g);
	var doc = target(g.document || (g.document = {}));
	doc.readyState = 'loading';
	doc.getElementById = doc.getElementById || function() { return null; };
	doc.querySelector = doc.querySelector || function() { return null; };

	var reporting = false;
	g.reportError = function(err) {
		var msg = err !== null && err !== undefined && err.message !== undefined ? err.message : String(err);
		if (reporting) {
			console.error('Uncaught', err);
			return;
		}
		reporting = true;
		try {
			var ev = new g.ErrorEvent('error', { error: err, message: msg, cancelable: true });
			if (g.dispatchEvent(ev)) console.error('Uncaught', err);
		} finally {
			reporting = false;
		}
	};

	g.__page_lifecycle = function() {
		delete g.__page_lifecycle;
		doc.readyState = 'interactive';
		doc.dispatchEvent(new g.Event('DOMContentLoaded'));
		doc.readyState = 'complete';
		g.dispatchEvent(new g.Event('load'));
	};
})(globalThis);
`

// SetupEvents installs window and document event targets, a minimal
// document and reportError. It must run after SetupConsole.
func SetupEvents(rt core.JSRuntime) error {
	return rt.Eval(eventsJS)
}

// FireLoad moves the document to "complete", firing DOMContentLoaded on
// document and then load on window.
func FireLoad(rt core.JSRuntime) error {
	return rt.Eval(`typeof __page_lifecycle === 'function' && __page_lifecycle()`)
}
