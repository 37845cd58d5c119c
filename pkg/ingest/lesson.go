package ingest

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	commonerrors "github.com/duynguyendang/coursepack/pkg/common/errors"
	"github.com/duynguyendang/coursepack/pkg/docmodel"
	"github.com/duynguyendang/coursepack/pkg/ordering"
	"github.com/duynguyendang/coursepack/pkg/records"
)

func (e *Extractor) extractLesson(id string, doc *docmodel.Document) (*records.LessonRecord, []records.Finding, error) {
	var warnings []records.Finding

	slug := ordering.Slug(id)
	if slug == "" {
		return nil, nil, commonerrors.NewExtractError(id, "cannot derive slug", commonerrors.ErrInvalidInput)
	}

	t := documentTitle(doc)
	lesson := &records.LessonRecord{
		Slug:       slug,
		OrderIndex: ordering.ChapterKey(t).Value,
		Title:      t,
		Subtitle:   e.subtitle(doc),
		Tabs:       e.tabs(doc),
		SourceFile: id,
	}

	label, hasLabel := e.moduleLabel(doc)
	fileID, hasFile := ordering.ModuleFromFilename(id)
	res := ordering.ResolveModule(label, hasLabel, fileID, hasFile)
	if res.Found {
		lesson.ModuleID = records.IntPtr(res.ID)
		if hasLabel && !res.Conflict {
			lesson.ModuleName = label.Name
		}
	}
	if res.Conflict {
		warnings = append(warnings, records.Warnf(records.CategoryModuleMismatch, id,
			"module label says %d but file name says %d; using %d", res.LabelID, res.FileID, res.ID))
	}

	content, err := lessonContent(e.contentNode(doc))
	if err != nil {
		return nil, nil, commonerrors.NewExtractError(id, "cannot serialize content", err)
	}
	lesson.Content = content

	if a := docmodel.First(doc.Find("a", docmodel.HasClass(e.conv.PrevClass))); a != nil {
		href, _ := docmodel.Attribute(a, "href")
		lesson.PrevSlug = ordering.LinkSlug(href)
	}
	if a := docmodel.First(doc.Find("a", docmodel.HasClass(e.conv.NextClass))); a != nil {
		href, _ := docmodel.Attribute(a, "href")
		lesson.NextSlug = ordering.LinkSlug(href)
	}

	return lesson, warnings, nil
}

func (e *Extractor) subtitle(doc *docmodel.Document) string {
	if n := docmodel.First(doc.Find("", docmodel.HasClass(e.conv.SubtitleClass))); n != nil {
		return docmodel.NormalizedText(n)
	}
	if header := docmodel.First(doc.Find("header")); header != nil {
		return docmodel.NormalizedText(docmodel.First(docmodel.Find(header, "h2")))
	}
	return ""
}

func (e *Extractor) contentNode(doc *docmodel.Document) *html.Node {
	if n := docmodel.First(doc.Find("main")); n != nil {
		return n
	}
	if n := docmodel.First(doc.Find("", docmodel.HasClass(e.conv.ContentClass))); n != nil {
		return n
	}
	return docmodel.First(doc.Find("body"))
}

// lessonContent serializes the content element. An element with neither
// text nor child elements yields "".
func lessonContent(n *html.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	if docmodel.TextContent(n) == "" && !hasElementChild(n) {
		return "", nil
	}
	s, err := docmodel.SerializeSubtree(n)
	if err != nil {
		return "", fmt.Errorf("render <%s>: %w", n.Data, err)
	}
	return s, nil
}

func hasElementChild(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return true
		}
	}
	return false
}

// tabs reads the tab bar of the first nav element, or of the whole document
// when there is none.
func (e *Extractor) tabs(doc *docmodel.Document) []records.NavigationTab {
	scope := doc.Root
	if nav := docmodel.First(doc.Find("nav")); nav != nil {
		scope = nav
	}

	out := []records.NavigationTab{}
	for a := range docmodel.Find(scope, "a", docmodel.HasClass(e.conv.TabClass)) {
		tab := records.NavigationTab{Label: docmodel.NormalizedText(a)}
		if href, ok := docmodel.Attribute(a, "href"); ok && strings.HasPrefix(href, "#") && len(href) > 1 {
			tab.ID = href[1:]
		} else if v, ok := docmodel.Attribute(a, e.conv.TabIDAttr); ok && v != "" {
			tab.ID = v
		} else {
			tab.ID = tab.Label
		}
		if icon, ok := docmodel.Attribute(a, e.conv.TabIconAttr); ok {
			tab.Icon = strings.TrimSpace(icon)
		}
		out = append(out, tab)
	}
	return out
}
