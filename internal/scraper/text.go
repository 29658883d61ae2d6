package scraper

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockElements end a line when rendered as plain text.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Table: true, atom.Section: true,
}

// htmlToText renders a description fragment as plain text, one line per
// block element, dropping scripts and styles.
func htmlToText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return cleanText(fragment)
	}

	var buffer bytes.Buffer
	for _, n := range nodes {
		getTextRecursive(n, &buffer)
	}

	var lines []string
	for _, line := range strings.Split(buffer.String(), "\n") {
		if line = cleanText(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	switch node.Type {
	case html.TextNode:
		buffer.WriteString(node.Data)
		return
	case html.ElementNode:
		if node.DataAtom == atom.Script || node.DataAtom == atom.Style {
			return
		}
	}

	block := node.Type == html.ElementNode && blockElements[node.DataAtom]
	if block {
		buffer.WriteByte('\n')
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		getTextRecursive(child, buffer)
	}
	if block {
		buffer.WriteByte('\n')
	}
}

// cleanText collapses runs of whitespace into single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
