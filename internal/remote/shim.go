package remote

import (
	"strings"

	"github.com/cryguy/webview/internal/core"
)

// WSPath is the endpoint the page shim connects to.
const WSPath = "/__rpc/ws"

// shimJS connects the page to the host. Posts made before the socket is
// open are buffered and flushed in order ahead of the load frame.
const shimJS = `
(function(w) {
	var queue = [];
	var proto = w.location.protocol === 'https:' ? 'wss:' : 'ws:';
	var ws = new WebSocket(proto + '//' + w.location.host + '` + WSPath + `?u=' + encodeURIComponent(w.location.href));
	var send = function(f) { ws.send(JSON.stringify(f)); };
	w.` + core.PostFunc + ` = function(s) {
		s = String(s);
		if (ws.readyState === 1) send({ t: 'post', d: s }); else queue.push(s);
	};
	ws.onopen = function() {
		while (queue.length > 0) send({ t: 'post', d: queue.shift() });
		var loaded = function() { send({ t: 'load', u: w.location.href }); };
		if (document.readyState === 'complete') loaded();
		else w.addEventListener('load', loaded);
	};
	ws.onmessage = function(e) {
		var f;
		try { f = JSON.parse(e.data); } catch (err) { return; }
		if (f.t === 'eval') {
			try { (0, eval)(f.d); } catch (err) { console.error(err); }
		} else if (f.t === 'navigate') {
			w.location.href = f.u;
		}
	};
})(window);
`

// frame is one message on the page socket.
type frame struct {
	T string `json:"t"`
	D string `json:"d,omitempty"`
	U string `json:"u,omitempty"`
}

const (
	framePost     = "post"
	frameLoad     = "load"
	frameEval     = "eval"
	frameNavigate = "navigate"
)

// inlineSafe keeps a script from closing its own <script> element.
func inlineSafe(script string) string {
	return strings.ReplaceAll(script, "</script", `<\/script`)
}
