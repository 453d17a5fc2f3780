// internal/scraper/page.go
package scraper

import (
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Page is the parsed content of one rendered URL. It is owned by the
// invocation that requested it and discarded once the record for that URL
// is assembled; pages are never shared across URLs.
type Page struct {
	URL  string
	HTML string

	doc  *goquery.Document
	root *html.Node

	textOnce sync.Once
	text     string
}

// NewPage parses raw HTML into a Page. The DOM is parsed once and queried
// by both the CSS and XPath evaluators.
func NewPage(url, rawHTML string) (*Page, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	return &Page{
		URL:  url,
		HTML: rawHTML,
		doc:  goquery.NewDocumentFromNode(root),
		root: root,
	}, nil
}

// Title returns the document title, or "" when the page has none.
func (p *Page) Title() string {
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

// Text returns the page's visible text with a newline between adjacent text
// nodes, so label/value patterns like "Score: 87" survive element
// boundaries. Computed once per page.
func (p *Page) Text() string {
	p.textOnce.Do(func() {
		var parts []string
		var walk func(n *html.Node)
		walk = func(n *html.Node) {
			switch n.Type {
			case html.TextNode:
				parts = append(parts, n.Data)
			case html.ElementNode:
				if n.Data == "script" || n.Data == "style" {
					return
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(p.root)
		p.text = strings.Join(parts, "\n")
	})
	return p.text
}
