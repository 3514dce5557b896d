// browser/dom/path.go
package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Path returns an absolute XPath locating the element, anchored on the
// nearest ancestor with an id when there is one. Used for log output.
func (e Element) Path() string {
	if e.node == nil {
		return ""
	}

	var segments []string
	for n := e.node; n != nil && n.Type != html.DocumentNode; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		tag := strings.ToLower(n.Data)
		if id, ok := (Element{node: n}).Attr("id"); ok && id != "" {
			segments = append(segments, fmt.Sprintf(`//*[@id='%s']`, id))
			break
		}

		// XPath positions are 1-based and count same-tag siblings only.
		position := 1
		for prev := n.PrevSibling; prev != nil; prev = prev.PrevSibling {
			if prev.Type == html.ElementNode && strings.ToLower(prev.Data) == tag {
				position++
			}
		}
		segments = append(segments, fmt.Sprintf("%s[%d]", tag, position))
	}

	if len(segments) == 0 {
		return "/"
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	path := strings.Join(segments, "/")
	if !strings.HasPrefix(path, "//*[@id=") {
		path = "/" + path
	}
	return path
}
