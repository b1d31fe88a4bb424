package embed

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Strategy selects where in a document a snippet is inserted
type Strategy struct {
	// Append places the snippet at the very end of the document
	Append bool
	// AfterHeading places the snippet after the Nth heading (1-based).
	// Fewer headings fall back to the last one, no headings to after the
	// first paragraph, and a document without paragraphs prepends.
	AfterHeading int
}

// AfterHeadingN inserts after the nth heading occurrence
func AfterHeadingN(n int) Strategy { return Strategy{AfterHeading: n} }

// AtEnd appends to the document
func AtEnd() Strategy { return Strategy{Append: true} }

var headingAtoms = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true,
}

// Insert splices snippet into content HTML per the strategy. Content is
// parsed into a node tree, never regex-spliced, so unusual markup degrades
// through the fallback chain instead of landing the snippet mid-tag.
func Insert(content, snippet string, strategy Strategy) string {
	root, err := parseFragment(content)
	if err != nil {
		// Unparseable input: safest spot is the end
		return content + snippet
	}

	snippetNodes, err := parseSnippet(snippet)
	if err != nil || len(snippetNodes) == 0 {
		return content
	}

	if strategy.Append {
		for _, n := range snippetNodes {
			root.AppendChild(n)
		}
		return render(root)
	}

	headings := collect(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && headingAtoms[n.DataAtom]
	})

	var anchor *html.Node
	switch {
	case len(headings) >= strategy.AfterHeading && strategy.AfterHeading > 0:
		anchor = headings[strategy.AfterHeading-1]
	case len(headings) > 0:
		anchor = headings[len(headings)-1]
	default:
		paragraphs := collect(root, func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.DataAtom == atom.P
		})
		if len(paragraphs) > 0 {
			anchor = paragraphs[0]
		}
	}

	if anchor == nil {
		// No headings, no paragraphs: prepend
		for i := len(snippetNodes) - 1; i >= 0; i-- {
			root.InsertBefore(snippetNodes[i], root.FirstChild)
		}
		return render(root)
	}

	insertAfter(anchor, snippetNodes)
	return render(root)
}

// Strip removes every previously inserted embed block, identified by the
// marker class, plus any stray glazer embed comments. Running it on content
// without embeds is a no-op, which is what makes re-publishing idempotent.
func Strip(content string) string {
	root, err := parseFragment(content)
	if err != nil {
		return content
	}

	marked := collect(root, func(n *html.Node) bool {
		if n.Type == html.CommentNode {
			return strings.Contains(n.Data, MarkerClass)
		}
		if n.Type != html.ElementNode {
			return false
		}
		for _, attr := range n.Attr {
			if attr.Key == "class" && hasClass(attr.Val, MarkerClass) {
				return true
			}
		}
		return false
	})

	for _, n := range marked {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}

	return render(root)
}

// HasEmbed reports whether content already carries an embed of the given
// marker kind (e.g. MarkerClassVideo)
func HasEmbed(content, kind string) bool {
	root, err := parseFragment(content)
	if err != nil {
		return false
	}
	found := collect(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, attr := range n.Attr {
			if attr.Key == "class" && hasClass(attr.Val, kind) {
				return true
			}
		}
		return false
	})
	return len(found) > 0
}

func hasClass(classAttr, class string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == class {
			return true
		}
	}
	return false
}

// parseFragment parses body-level HTML into a synthetic container node
func parseFragment(content string) (*html.Node, error) {
	container := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, nil
}

func parseSnippet(snippet string) ([]*html.Node, error) {
	return html.ParseFragment(strings.NewReader(snippet), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
}

// collect walks the tree depth-first and returns nodes matching the predicate
func collect(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if match(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

func insertAfter(anchor *html.Node, nodes []*html.Node) {
	parent := anchor.Parent
	next := anchor.NextSibling
	for _, n := range nodes {
		if next != nil {
			parent.InsertBefore(n, next)
		} else {
			parent.AppendChild(n)
		}
	}
}

// render serializes the container's children back to an HTML string
func render(root *html.Node) string {
	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		// Render errors only happen on invalid node types we never build
		_ = html.Render(&buf, c)
	}
	return buf.String()
}
