package docmodel

import (
	"iter"
	"strings"

	"golang.org/x/net/html"
)

// Predicate filters element nodes during a query.
type Predicate func(n *html.Node) bool

// AttrEquals matches elements whose attribute equals value exactly.
func AttrEquals(name, value string) Predicate {
	return func(n *html.Node) bool {
		v, ok := Attribute(n, name)
		return ok && v == value
	}
}

// AttrContains matches elements whose attribute contains substr.
func AttrContains(name, substr string) Predicate {
	return func(n *html.Node) bool {
		v, ok := Attribute(n, name)
		return ok && strings.Contains(v, substr)
	}
}

// AttrHasToken matches elements whose whitespace-separated attribute value
// includes token, the way class selectors work.
func AttrHasToken(name, token string) Predicate {
	return func(n *html.Node) bool {
		v, ok := Attribute(n, name)
		if !ok {
			return false
		}
		for _, f := range strings.Fields(v) {
			if f == token {
				return true
			}
		}
		return false
	}
}

// HasClass is AttrHasToken on the class attribute.
func HasClass(token string) Predicate {
	return AttrHasToken("class", token)
}

// HasAttr matches elements carrying the attribute at all.
func HasAttr(name string) Predicate {
	return func(n *html.Node) bool {
		_, ok := Attribute(n, name)
		return ok
	}
}

// Find yields, in document order, every element below scope whose tag
// matches (empty tag matches any element) and which satisfies all preds.
// The scope node itself is not considered.
func Find(scope *html.Node, tag string, preds ...Predicate) iter.Seq[*html.Node] {
	tag = strings.ToLower(tag)
	return func(yield func(*html.Node) bool) {
		if scope == nil {
			return
		}
		// explicit stack so deep documents don't grow the goroutine stack
		stack := make([]*html.Node, 0, 32)
		for c := scope.LastChild; c != nil; c = c.PrevSibling {
			stack = append(stack, c)
		}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if n.Type == html.ElementNode && (tag == "" || n.Data == tag) && matchAll(n, preds) {
				if !yield(n) {
					return
				}
			}
			for c := n.LastChild; c != nil; c = c.PrevSibling {
				stack = append(stack, c)
			}
		}
	}
}

// Find runs an unscoped query over the whole document.
func (d *Document) Find(tag string, preds ...Predicate) iter.Seq[*html.Node] {
	return Find(d.Root, tag, preds...)
}

// First returns the first node of seq, or nil.
func First(seq iter.Seq[*html.Node]) *html.Node {
	for n := range seq {
		return n
	}
	return nil
}

func matchAll(n *html.Node, preds []Predicate) bool {
	for _, p := range preds {
		if !p(n) {
			return false
		}
	}
	return true
}

// Attribute returns the value of the named attribute.
func Attribute(n *html.Node, name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// TextContent concatenates all descendant text and trims the result.
func TextContent(n *html.Node) string {
	return strings.TrimSpace(RawText(n))
}

// NormalizedText is TextContent with inner whitespace runs collapsed to a
// single space.
func NormalizedText(n *html.Node) string {
	return strings.Join(strings.Fields(RawText(n)), " ")
}

// RawText concatenates all descendant text without trimming.
func RawText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// SerializeSubtree renders n and its descendants back to markup.
func SerializeSubtree(n *html.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return "", err
	}
	return sb.String(), nil
}
