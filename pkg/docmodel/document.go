package docmodel

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	commonerrors "github.com/duynguyendang/coursepack/pkg/common/errors"
)

// Document is a parsed markup tree. The tree is best-effort: unclosed tags
// and a missing doctype are repaired by the parser and listed in Diagnostics.
type Document struct {
	Root        *html.Node
	Diagnostics []string
}

// ParseFailure is returned by Parse when no usable tree could be built.
type ParseFailure struct {
	Reason      string
	Diagnostics []string
	Err         error
}

func (p *ParseFailure) Error() string {
	if len(p.Diagnostics) == 0 {
		return p.Reason
	}
	return fmt.Sprintf("%s (%s)", p.Reason, strings.Join(p.Diagnostics, "; "))
}

func (p *ParseFailure) Unwrap() error {
	return p.Err
}

// Parse builds a Document from raw markup. It returns a *ParseFailure
// instead of a Document when the input is empty or contains no markup
// elements at all. Invalid UTF-8 sequences are replaced with U+FFFD and
// reported in Diagnostics.
func Parse(text string) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseFailure{Reason: "empty document", Err: commonerrors.ErrEmptyDocument}
	}

	var repaired []string
	if !utf8.ValidString(text) {
		repaired = append(repaired, fmt.Sprintf("invalid UTF-8 at offset %d replaced with U+FFFD", invalidOffset(text)))
		text = strings.ToValidUTF8(text, "\uFFFD")
	}

	diags := append(repaired, scanDiagnostics(text)...)

	root, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return nil, &ParseFailure{Reason: "markup parse failed", Diagnostics: append(diags, err.Error()), Err: commonerrors.ErrUnparsable}
	}

	if !hasAuthoredElement(root) {
		return nil, &ParseFailure{Reason: "no markup elements found", Diagnostics: diags, Err: commonerrors.ErrUnparsable}
	}

	return &Document{Root: root, Diagnostics: diags}, nil
}

// hasAuthoredElement reports whether the tree has any element besides the
// html/head/body scaffolding the parser inserts on its own.
func hasAuthoredElement(root *html.Node) bool {
	for n := range Find(root, "") {
		switch n.DataAtom {
		case atom.Html, atom.Head, atom.Body:
			continue
		}
		return true
	}
	return false
}

func invalidOffset(text string) int {
	for i, r := range text {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(text[i:]); size <= 1 {
				return i
			}
		}
	}
	return -1
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// optionalEnd elements may legally omit their end tag.
var optionalEnd = map[string]bool{
	"p": true, "li": true, "dt": true, "dd": true, "option": true,
	"tr": true, "td": true, "th": true, "tbody": true, "thead": true,
}

// scanDiagnostics tokenizes the input once to report structural problems
// the tree builder silently repairs.
func scanDiagnostics(text string) []string {
	var diags []string
	var open []string
	sawDoctype := false

	z := html.NewTokenizer(strings.NewReader(text))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				diags = append(diags, fmt.Sprintf("tokenizer: %v", err))
			}
			break
		}

		switch tt {
		case html.DoctypeToken:
			sawDoctype = true
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if !voidElements[tag] {
				open = append(open, tag)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			idx := -1
			for i := len(open) - 1; i >= 0; i-- {
				if open[i] == tag {
					idx = i
					break
				}
			}
			if idx == -1 {
				diags = append(diags, fmt.Sprintf("stray </%s>", tag))
				continue
			}
			for _, unclosed := range open[idx+1:] {
				if !optionalEnd[unclosed] {
					diags = append(diags, fmt.Sprintf("unclosed <%s>", unclosed))
				}
			}
			open = open[:idx]
		}
	}

	for _, unclosed := range open {
		if !optionalEnd[unclosed] {
			diags = append(diags, fmt.Sprintf("unclosed <%s>", unclosed))
		}
	}
	if !sawDoctype {
		diags = append(diags, "missing doctype")
	}
	return diags
}
