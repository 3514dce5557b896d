// browser/dom/document.go
package dom

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrSnapshotNotFound is returned when a DOM snapshot file does not exist.
var ErrSnapshotNotFound = errors.New("dom snapshot not found")

// Document is a parsed DOM snapshot that can be queried with CSS selectors
// and XPath expressions. It is immutable once parsed and safe to share
// between goroutines for querying.
type Document struct {
	root *html.Node
	gq   *goquery.Document
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return FromNode(root), nil
}

// FromNode wraps an already parsed tree.
func FromNode(root *html.Node) *Document {
	return &Document{root: root, gq: goquery.NewDocumentFromNode(root)}
}

// LoadSnapshot opens and parses the snapshot stored at path.
func LoadSnapshot(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, path)
		}
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer f.Close()

	return Parse(f)
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.root
}
