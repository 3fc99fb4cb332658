// Package scrape fetches web pages and reduces them to readable text for
// the summary nodes.
package scrape

import (
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MaxContentChars bounds the text handed to the model.
const MaxContentChars = 10000

// UntitledPage is reported when a document has no <title>.
const UntitledPage = "(untitled)"

// Page is the readable part of a web page.
type Page struct {
	Title   string
	Content string
}

var noiseTags = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
	atom.Nav:    true,
	atom.Header: true,
	atom.Footer: true,
	atom.Aside:  true,
}

// contentSelectors are tried in order; the first match wins.
var contentSelectors = []func(*html.Node) bool{
	isTag(atom.Main),
	isTag(atom.Article),
	hasClass("content"),
	hasClass("post"),
	hasClass("entry"),
	hasID("content"),
	hasID("main"),
	hasClass("main-content"),
}

// ExtractPage parses an HTML document and returns its title and main text.
// Noise elements are dropped, whitespace is collapsed and the content is
// cut to MaxContentChars characters.
func ExtractPage(r io.Reader) (Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Page{}, err
	}
	stripNoise(doc)

	title := UntitledPage
	if t := find(doc, isTag(atom.Title)); t != nil {
		if s := strings.TrimSpace(text(t)); s != "" {
			title = s
		}
	}

	var root *html.Node
	for _, match := range contentSelectors {
		if n := find(doc, match); n != nil && strings.TrimSpace(text(n)) != "" {
			root = n
			break
		}
	}
	if root == nil {
		root = find(doc, isTag(atom.Body))
	}
	if root == nil {
		root = doc
	}

	content := strings.Join(strings.Fields(text(root)), " ")
	if utf8.RuneCountInString(content) > MaxContentChars {
		content = string([]rune(content)[:MaxContentChars]) + "..."
	}
	return Page{Title: title, Content: content}, nil
}

func stripNoise(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && noiseTags[c.DataAtom] {
			n.RemoveChild(c)
		} else {
			stripNoise(c)
		}
		c = next
	}
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func isTag(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.DataAtom == a }
}

func hasClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		for _, attr := range n.Attr {
			if attr.Key == "class" && containsWord(attr.Val, class) {
				return true
			}
		}
		return false
	}
}

func hasID(id string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == id {
				return true
			}
		}
		return false
	}
}

func containsWord(list, word string) bool {
	for _, f := range strings.Fields(list) {
		if f == word {
			return true
		}
	}
	return false
}
