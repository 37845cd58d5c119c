package literal

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
)

// Locator finds named array-literal assignments inside script text.
// A Locator owns a tree-sitter parser and must not be shared between
// goroutines; create one per worker.
type Locator struct {
	parser *sitter.Parser
}

// NewLocator creates a locator backed by the JavaScript grammar.
func NewLocator() *Locator {
	parser := sitter.NewParser()
	parser.SetLanguage(sitter.NewLanguage(javascript.Language()))
	return &Locator{parser: parser}
}

// Close releases the underlying parser.
func (l *Locator) Close() {
	if l.parser != nil {
		l.parser.Close()
	}
}

// Locate returns the text of the first `name = [ ... ]` array assigned in
// script, either through a const/let/var declaration or a bare assignment.
// When the syntax tree cannot expose the array (the literal itself is
// malformed), it falls back to a token scan that skips strings and
// comments, so the caller still gets the body and a precise syntax error
// from Normalize.
func (l *Locator) Locate(script string, name string) (string, bool) {
	if body, ok := l.locateTree(script, name); ok {
		return body, true
	}
	return locateScan(script, name)
}

func (l *Locator) locateTree(script string, name string) (string, bool) {
	src := []byte(script)
	tree := l.parser.Parse(src, nil)
	if tree == nil {
		return "", false
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return "", false
	}

	var found *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != nil {
			return
		}

		switch n.Kind() {
		case "variable_declarator":
			nameNode := n.ChildByFieldName("name")
			value := n.ChildByFieldName("value")
			if nameNode != nil && value != nil && value.Kind() == "array" && nameNode.Utf8Text(src) == name {
				found = value
				return
			}
		case "assignment_expression":
			left := n.ChildByFieldName("left")
			right := n.ChildByFieldName("right")
			if left != nil && right != nil && right.Kind() == "array" && left.Utf8Text(src) == name {
				found = right
				return
			}
		}

		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	if found == nil || found.HasError() {
		return "", false
	}
	return found.Utf8Text(src), true
}

// locateScan is the fallback when the syntax tree cannot expose the array:
// it walks the script token by token, skipping strings and comments, finds
// `name = [` and returns up to the matching `]`.
func locateScan(script string, name string) (string, bool) {
	for i := 0; i < len(script); i++ {
		c := script[i]
		switch {
		case c == '"' || c == '\'' || c == '`':
			j := skipString(script, i)
			if j < 0 {
				return "", false
			}
			i = j
		case c == '/' && i+1 < len(script) && (script[i+1] == '/' || script[i+1] == '*'):
			j := skipComment(script, i)
			if j < 0 {
				return "", false
			}
			i = j - 1
		case isIdentPart(c):
			start := i
			for i < len(script) && isIdentPart(script[i]) {
				i++
			}
			if script[start:i] == name && (start == 0 || script[start-1] != '.') {
				if open, ok := assignedArray(script, i); ok {
					end, ok := matchBracket(script, open)
					if !ok {
						return "", false
					}
					return script[open : end+1], true
				}
			}
			i--
		}
	}
	return "", false
}

// assignedArray reports whether `= [` follows position i, and where the
// bracket is.
func assignedArray(s string, i int) (int, bool) {
	i = skipSpace(s, i)
	if i < 0 || i >= len(s) || s[i] != '=' {
		return 0, false
	}
	if i+1 < len(s) && (s[i+1] == '=' || s[i+1] == '>') {
		return 0, false
	}
	i = skipSpace(s, i+1)
	if i < 0 || i >= len(s) || s[i] != '[' {
		return 0, false
	}
	return i, true
}

// skipSpace returns the index of the next byte that is neither whitespace
// nor inside a comment, or -1 for an unterminated block comment.
func skipSpace(s string, i int) int {
	for i < len(s) {
		switch {
		case s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r':
			i++
		case s[i] == '/' && i+1 < len(s) && (s[i+1] == '/' || s[i+1] == '*'):
			if i = skipComment(s, i); i < 0 {
				return -1
			}
		default:
			return i
		}
	}
	return i
}

// skipComment returns the index just past the comment starting at i, or -1
// for an unterminated block comment.
func skipComment(s string, i int) int {
	if s[i+1] == '/' {
		for i < len(s) && s[i] != '\n' {
			i++
		}
		return i
	}
	j := strings.Index(s[i+2:], "*/")
	if j < 0 {
		return -1
	}
	return i + 2 + j + 2
}

// matchBracket returns the index of the bracket closing the one at open.
func matchBracket(s string, open int) (int, bool) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\'', '`':
			j := skipString(s, i)
			if j < 0 {
				return 0, false
			}
			i = j
		case '/':
			if i+1 < len(s) && (s[i+1] == '/' || s[i+1] == '*') {
				j := skipComment(s, i)
				if j < 0 {
					return 0, false
				}
				i = j - 1
			}
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				return i, c == ']'
			}
		}
	}
	return 0, false
}

// skipString returns the index of the quote closing the string at i.
func skipString(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j
		case '\n':
			if q != '`' {
				return -1
			}
		}
	}
	return -1
}
