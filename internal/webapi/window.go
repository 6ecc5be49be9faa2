package webapi

import (
	"github.com/cryguy/webview/internal/core"
)

// windowJS gives a headless page the browser globals page scripts commonly
// touch: window/self aliases, location and queueMicrotask.
const windowJS = `
(function(g) {
	g.window = g;
	g.self = g;
	var href = String(g.__page_url || 'about:blank');
	delete g.__page_url;
	var m = /^([a-z][a-z0-9+.-]*:)(?:\/\/([^\/?#]*))?([^?#]*)(\?[^#]*)?(#.*)?$/i.exec(href) || [];
	g.location = {
		href: href,
		protocol: m[1] || '',
		host: m[2] || '',
		hostname: (m[2] || '').replace(/:\d+$/, ''),
		pathname: m[3] || '',
		search: m[4] || '',
		hash: m[5] || '',
		toString: function() { return href; }
	};
	if (typeof g.queueMicrotask !== 'function') {
		g.queueMicrotask = function(fn) { Promise.resolve().then(fn); };
	}
})(globalThis);
`

// SetupWindow installs the window globals for a page loaded from url.
func SetupWindow(rt core.JSRuntime, url string) error {
	if err := rt.SetGlobal("__page_url", url); err != nil {
		return err
	}
	return rt.Eval(windowJS)
}
