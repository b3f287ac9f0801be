package parser

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipAtoms are elements whose content is never part of the readable text
var skipAtoms = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
}

// XHTML allows <script/>, which an HTML parser reads as an unterminated raw
// text element that swallows the rest of the document.
var selfClosingRawTextPattern = regexp.MustCompile(`(?is)<(script|style|title)\b([^>]*)/>`)

// extractBodyText parses markup leniently and returns the flattened text of
// its body with script and style subtrees removed and whitespace collapsed.
func extractBodyText(markup string) (string, error) {
	markup = selfClosingRawTextPattern.ReplaceAllString(markup, "<$1$2></$1>")

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", err
	}

	root := findElement(doc, atom.Body)
	if root == nil {
		root = doc
	}
	removeElements(root, skipAtoms)

	var sb strings.Builder
	collectText(root, &sb)
	return collapseWhitespace(sb.String()), nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func removeElements(n *html.Node, atoms map[atom.Atom]bool) {
	var matched []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (atoms[c.DataAtom] || atoms[atom.Lookup([]byte(c.Data))]) {
				matched = append(matched, c)
				continue
			}
			walk(c)
		}
	}
	walk(n)

	for _, m := range matched {
		m.Parent.RemoveChild(m)
	}
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

// collapseWhitespace replaces every run of Unicode whitespace with a single
// space and trims both ends.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
