package docmodel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/duynguyendang/coursepack/pkg/common/errors"
)

const sample = `<!DOCTYPE html>
<html><head><title> Chapter 1.2 </title></head>
<body data-module="3">
  <nav class="tabs main-nav">
    <a class="tab active" href="#intro" data-icon="book">Intro</a>
    <a class="tab" href="#practice">Practice</a>
  </nav>
  <main class="lesson-content"><p class="lead">Hello <b>world</b></p></main>
  <a class="tabular" href="#other">Not a tab</a>
</body></html>`

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  error
		wantDiag string
	}{
		{name: "Well formed", input: sample},
		{name: "Empty", input: "  \n\t", wantErr: commonerrors.ErrEmptyDocument},
		{name: "Plain text", input: "just some words", wantErr: commonerrors.ErrUnparsable},
		{name: "Unclosed div", input: "<div><span>x</span>", wantDiag: "unclosed <div>"},
		{name: "Stray end tag", input: "<div>x</div></section>", wantDiag: "stray </section>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				var pf *ParseFailure
				assert.True(t, errors.As(err, &pf))
				assert.Nil(t, doc)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, doc.Root)
			if tt.wantDiag != "" {
				assert.Contains(t, doc.Diagnostics, tt.wantDiag)
				assert.Contains(t, doc.Diagnostics, "missing doctype")
			}
		})
	}
}

func TestParseReplacesInvalidUTF8(t *testing.T) {
	doc, err := Parse("<!DOCTYPE html><p>ok \xff\xfe done</p>")
	require.NoError(t, err)
	require.NotNil(t, doc.Root)
	assert.Contains(t, doc.Diagnostics, "invalid UTF-8 at offset 21 replaced with U+FFFD")

	p := First(doc.Find("p"))
	require.NotNil(t, p)
	assert.Equal(t, "ok \uFFFD done", TextContent(p))
}

func TestParseOptionalEndTagsAreNotDiagnosed(t *testing.T) {
	doc, err := Parse("<!DOCTYPE html><ul><li>a<li>b</ul><p>para")
	require.NoError(t, err)
	assert.Empty(t, doc.Diagnostics)
}

func TestFind(t *testing.T) {
	doc, err := Parse(sample)
	require.NoError(t, err)

	var hrefs []string
	for n := range doc.Find("a", HasClass("tab")) {
		href, _ := Attribute(n, "href")
		hrefs = append(hrefs, href)
	}
	assert.Equal(t, []string{"#intro", "#practice"}, hrefs)

	// substring containment also matches "tabular"
	count := 0
	for range doc.Find("a", AttrContains("class", "tab")) {
		count++
	}
	assert.Equal(t, 3, count)

	exact := First(doc.Find("a", AttrEquals("class", "tab")))
	require.NotNil(t, exact)
	assert.Equal(t, "Practice", TextContent(exact))

	assert.NotNil(t, First(doc.Find("body", HasAttr("data-module"))))
	assert.Nil(t, First(doc.Find("section")))
}

func TestFindScoped(t *testing.T) {
	doc, err := Parse(sample)
	require.NoError(t, err)

	nav := First(doc.Find("nav", HasClass("main-nav")))
	require.NotNil(t, nav)

	count := 0
	for range Find(nav, "a") {
		count++
	}
	assert.Equal(t, 2, count)

	// the scope node itself is excluded
	assert.Nil(t, First(Find(nav, "nav")))
	assert.Nil(t, First(Find(nil, "a")))
}

func TestFindStopsEarly(t *testing.T) {
	doc, err := Parse(sample)
	require.NoError(t, err)

	seen := 0
	for range doc.Find("") {
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestTextAndSerialize(t *testing.T) {
	doc, err := Parse(sample)
	require.NoError(t, err)

	title := First(doc.Find("title"))
	assert.Equal(t, "Chapter 1.2", TextContent(title))

	lead := First(doc.Find("p", HasClass("lead")))
	require.NotNil(t, lead)
	assert.Equal(t, "Hello world", TextContent(lead))

	out, err := SerializeSubtree(lead)
	require.NoError(t, err)
	assert.Equal(t, `<p class="lead">Hello <b>world</b></p>`, out)

	nav := First(doc.Find("nav"))
	assert.Equal(t, "Intro Practice", NormalizedText(nav))

	_, ok := Attribute(lead, "id")
	assert.False(t, ok)
}
