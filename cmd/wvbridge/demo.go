package main

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cryguy/webview"
)

const demoPath = "/index.html"

const demoHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>wvbridge demo</title></head>
<body>
<pre id="out"></pre>
<script>
(async function() {
	var show = function(line) {
		console.log(line);
		var el = document.getElementById('out');
		if (el) el.textContent += line + '\n';
	};
	try {
		show('double("21") = ' + await double("21"));
		show('echo("hi") = ' + await echo("hi"));
		show('echoJson() = ' + JSON.stringify(await echoJson()));
		show('add(2, 3) = ' + await add(2, 3));
		show('later("done", 50) = ' + await later("done", 50));
	} catch (e) {
		show('error: ' + e.message);
	}
})();
</script>
</body>
</html>
`

type demoReply struct {
	OK   bool   `json:"ok"`
	Time string `json:"time"`
}

// registerDemo binds the functions the demo page calls.
func registerDemo(wv *webview.WebView) error {
	return errors.Join(
		wv.Bind("double", webview.Func1(webview.Int, func(n int64) (string, error) {
			return strconv.FormatInt(n*2, 10), nil
		})),
		wv.BindFunc("echo", func(p []string) (string, error) {
			if len(p) == 0 {
				return "", nil
			}
			return p[0], nil
		}),
		wv.Bind("echoJson", webview.Func0(func() (demoReply, error) {
			return demoReply{OK: true, Time: time.Now().UTC().Format(time.RFC3339)}, nil
		})),
		wv.Bind("add", webview.Func2(webview.Float, webview.Float, func(a, b float64) (float64, error) {
			return a + b, nil
		})),
		wv.Bind("upper", webview.Func1(webview.String, func(s string) (string, error) {
			return strings.ToUpper(s), nil
		})),
		wv.BindAsync("later", webview.ConventionString, func(p []string, done func(string, error)) {
			if len(p) != 2 {
				done("", fmt.Errorf("later wants (value, ms), got %d params", len(p)))
				return
			}
			ms, err := strconv.Atoi(p[1])
			if err != nil {
				done("", fmt.Errorf("later: bad delay %q", p[1]))
				return
			}
			time.AfterFunc(time.Duration(ms)*time.Millisecond, func() { done(p[0], nil) })
		}),
		wv.Bind("setTitle", webview.Action1(webview.String, func(title string) error {
			wv.SetTitle(title)
			return nil
		})),
	)
}

// loaderFor serves files from root, or the demo page when root is empty.
func loaderFor(root string) webview.PageLoader {
	if root == "" {
		return webview.StaticLoader{demoPath: demoHTML, "/": demoHTML}
	}
	return webview.FileLoader{Root: root}
}

func demoDataURL() string {
	return "data:text/html;charset=utf-8," + url.PathEscape(demoHTML)
}
