package bridge

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cryguy/webview/internal/core"
	esbuild "github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"
)

// pageGlobal resolves the page's global object on hosts with and without
// a window.
const pageGlobal = `(typeof window !== 'undefined' ? window : globalThis)`

// bootstrapJS installs the page half of the bridge. It is idempotent per
// page load: a second evaluation on the same page is a no-op, a fresh page
// starts over with an empty pending table and seq 0.
const bootstrapJS = `
(function(w) {
	if (w._rpc) return;
	w._rpc = {};
	w._rpc_seq = 0;
	w._rpc_outbox = [];
	w._rpc_token = Math.random().toString(36).slice(2) + Date.now().toString(36);
	var coerce = function(v) {
		if (typeof v === 'string') return v;
		if (v !== null && typeof v === 'object') {
			try { return JSON.stringify(v); } catch (e) { return String(v); }
		}
		return String(v);
	};
	w._rpc_flush = function() {
		var post = w.` + core.PostFunc + `;
		if (typeof post !== 'function') return;
		while (w._rpc_outbox.length > 0) post(w._rpc_outbox.shift());
	};
	w._rpc_send = function(msg) {
		w._rpc_outbox.push(msg);
		w._rpc_flush();
	};
	w._rpc_call = function(name, args) {
		var seq = ++w._rpc_seq;
		var param = [];
		for (var i = 0; i < args.length; i++) param.push(coerce(args[i]));
		var p = new Promise(function(resolve, reject) {
			w._rpc[seq] = { resolve: resolve, reject: reject };
		});
		w._rpc_send(JSON.stringify({ seq: seq, func: name, param: param, page: w._rpc_token }));
		return p;
	};
	w._rpc_settle = function(seq, ok, value, token, json) {
		if (token && token !== w._rpc_token) return;
		var entry = w._rpc[seq];
		if (!entry) return;
		delete w._rpc[seq];
		if (!ok) { entry.reject(new Error(value)); return; }
		if (!json) { entry.resolve(value); return; }
		var parsed;
		try { parsed = JSON.parse(value); } catch (e) { entry.reject(e); return; }
		entry.resolve(parsed);
	};
	w._rpc_flush();
})(` + pageGlobal + `);
`

// stubJS defines one page function. %[1]s is the quoted name. The reply
// carries the result convention, so the stub is the same for every
// binding of a name.
const stubJS = `
(function(w) {
	var name = %[1]s;
	var cur = w[name];
	if (cur !== undefined && !(cur && cur.__rpc_stub)) {
		if (w.console) w.console.error('webview: refusing to overwrite page global "' + name + '"');
		return;
	}
	var stub = function() { return w._rpc_call(name, arguments); };
	stub.__rpc_stub = true;
	w[name] = stub;
})(` + pageGlobal + `);
`

const unbindJS = `
(function(w) {
	var f = w[%[1]s];
	if (f && f.__rpc_stub) delete w[%[1]s];
})(` + pageGlobal + `);
`

// Injector generates the page-side scripts of the bridge.
type Injector struct {
	minify bool
	log    *zap.Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewInjector returns an Injector. With minify set, every generated
// script is passed through esbuild once and cached.
func NewInjector(minify bool, log *zap.Logger) *Injector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Injector{minify: minify, log: log, cache: make(map[string]string)}
}

// Bootstrap returns the bootstrap script.
func (i *Injector) Bootstrap() string {
	return i.finish(bootstrapJS)
}

// Stub returns the script defining the page function name.
func (i *Injector) Stub(name string) string {
	return i.finish(fmt.Sprintf(stubJS, jsString(name)))
}

// Unbind returns the script removing the page function name.
func (i *Injector) Unbind(name string) string {
	return i.finish(fmt.Sprintf(unbindJS, jsString(name)))
}

func (i *Injector) finish(src string) string {
	if !i.minify {
		return src
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if out, ok := i.cache[src]; ok {
		return out
	}
	out := minifyJS(src, i.log)
	i.cache[src] = out
	return out
}

// minifyJS shrinks a generated script. Generated scripts are ES5 so the
// ES2015 target never needs syntax lowering. On failure the source is
// returned unchanged.
func minifyJS(src string, log *zap.Logger) string {
	result := esbuild.Transform(src, esbuild.TransformOptions{
		Loader:            esbuild.LoaderJS,
		Target:            esbuild.ES2015,
		MinifyWhitespace:  true,
		MinifySyntax:      true,
		MinifyIdentifiers: true,
	})
	if len(result.Errors) > 0 {
		log.Warn("minifying bridge script failed, using source",
			zap.String("error", result.Errors[0].Text))
		return src
	}
	return strings.TrimSpace(string(result.Code))
}

// jsString returns s as a JavaScript string literal.
func jsString(s string) string {
	out, err := core.JSON.MarshalToString(s)
	if err != nil {
		// Strings always marshal; keep the literal well-formed regardless.
		return `""`
	}
	return lineSepReplacer.Replace(out)
}

// U+2028 and U+2029 end a line inside pre-ES2019 string literals.
var lineSepReplacer = strings.NewReplacer("\u2028", `\u2028`, "\u2029", `\u2029`)
