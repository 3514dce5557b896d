// browser/dom/query.go
package dom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
)

// ErrInvalidSelector wraps syntax errors from either query language.
var ErrInvalidSelector = errors.New("invalid selector")

// Language is the query language a selector is written in.
type Language int

const (
	CSS Language = iota
	XPath
)

func (l Language) String() string {
	if l == XPath {
		return "xpath"
	}
	return "css"
}

// Query returns every element matching selector, in document order.
func (d *Document) Query(lang Language, selector string) ([]Element, error) {
	if lang == XPath {
		return d.QueryXPath(selector)
	}
	return d.QueryCSS(selector)
}

// QueryCSS evaluates a CSS selector group.
func (d *Document) QueryCSS(selector string) ([]Element, error) {
	sel, err := cascadia.Compile(strings.TrimSpace(selector))
	if err != nil {
		return nil, fmt.Errorf("%w: css %q: %v", ErrInvalidSelector, selector, err)
	}
	return wrap(d.gq.FindMatcher(sel).Nodes), nil
}

// QueryXPath evaluates an XPath expression. Only element nodes are returned.
func (d *Document) QueryXPath(expr string) ([]Element, error) {
	nodes, err := htmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("%w: xpath %q: %v", ErrInvalidSelector, expr, err)
	}
	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		// Attribute results come back as detached element nodes.
		if isElement(n) && n.Parent != nil {
			elements = append(elements, Element{node: n})
		}
	}
	return elements, nil
}
