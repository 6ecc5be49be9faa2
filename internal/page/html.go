package page

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IsHTML reports whether a page source is an HTML document rather than a
// bare script.
func IsHTML(src string) bool {
	s := strings.TrimSpace(src)
	return strings.HasPrefix(s, "<")
}

// InlineScripts returns the bodies of the document's inline classic
// scripts in document order. External and module scripts are skipped.
func InlineScripts(doc string) ([]string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, err
	}
	var scripts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script && isClassicInline(n) {
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			scripts = append(scripts, b.String())
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return scripts, nil
}

func isClassicInline(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "src":
			return false
		case "type":
			t := strings.ToLower(strings.TrimSpace(a.Val))
			if t != "" && t != "text/javascript" && t != "application/javascript" {
				return false
			}
		}
	}
	return true
}
