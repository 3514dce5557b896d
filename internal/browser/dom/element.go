// browser/dom/element.go
package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Element is a single matched node.
type Element struct {
	node *html.Node
}

// Option is an <option> child of a <select> element.
type Option struct {
	Text  string
	Value string
}

func wrap(nodes []*html.Node) []Element {
	elements := make([]Element, len(nodes))
	for i, n := range nodes {
		elements[i] = Element{node: n}
	}
	return elements
}

func isElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// Node exposes the underlying html node.
func (e Element) Node() *html.Node {
	return e.node
}

// Tag returns the lower-cased tag name.
func (e Element) Tag() string {
	if e.node == nil {
		return ""
	}
	return strings.ToLower(e.node.Data)
}

// Attr returns the attribute value and whether it is present.
func (e Element) Attr(name string) (string, bool) {
	if e.node == nil {
		return "", false
	}
	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// Text returns the element's text content, including descendants.
func (e Element) Text() string {
	if e.node == nil {
		return ""
	}
	return goquery.NewDocumentFromNode(e.node).Text()
}

// Options lists the <option> descendants in document order. An option
// without a value attribute takes its text as value, like browsers do.
func (e Element) Options() []Option {
	if e.node == nil {
		return nil
	}
	nodes, err := htmlquery.QueryAll(e.node, ".//option")
	if err != nil {
		return nil
	}
	options := make([]Option, 0, len(nodes))
	for _, n := range nodes {
		text := htmlquery.InnerText(n)
		value, ok := Element{node: n}.Attr("value")
		if !ok {
			value = strings.TrimSpace(text)
		}
		options = append(options, Option{Text: text, Value: value})
	}
	return options
}
