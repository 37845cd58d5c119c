package ingest

import (
	"path"
	"strconv"
	"strings"

	"github.com/duynguyendang/coursepack/internal/config"
	"github.com/duynguyendang/coursepack/internal/logger"
	commonerrors "github.com/duynguyendang/coursepack/pkg/common/errors"
	"github.com/duynguyendang/coursepack/pkg/docmodel"
	"github.com/duynguyendang/coursepack/pkg/literal"
	"github.com/duynguyendang/coursepack/pkg/ordering"
)

// Extractor turns one document into records. It holds a literal locator
// backed by a tree-sitter parser, so each worker needs its own Extractor.
type Extractor struct {
	conv    config.Conventions
	quiz    config.QuizDefaults
	locator *literal.Locator
	log     *logger.Logger
}

// NewExtractor creates a new extractor instance.
func NewExtractor(cfg config.Config, log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.Nop()
	}
	return &Extractor{
		conv:    cfg.Conventions,
		quiz:    cfg.Quiz,
		locator: literal.NewLocator(),
		log:     log,
	}
}

// Close releases the locator's parser.
func (e *Extractor) Close() {
	e.locator.Close()
}

// KindOf classifies a document by its base name.
func KindOf(id string, marker string) Kind {
	if marker != "" && strings.Contains(strings.ToLower(path.Base(id)), strings.ToLower(marker)) {
		return KindQuiz
	}
	return KindLesson
}

// Extract runs the per-document state machine. It never returns a partial
// record: the outcome is either accepted with its records or failed with
// the error that stopped it.
func (e *Extractor) Extract(id string, data []byte) Outcome {
	out := Outcome{Source: id, Kind: KindOf(id, e.conv.QuizFileMarker), State: StatePending}
	log := e.log.With("file", id, "kind", out.Kind)

	doc, err := docmodel.Parse(string(data))
	if err != nil {
		return e.fail(log, out, commonerrors.NewExtractError(id, "cannot parse document", err))
	}
	out.State = StateParsed
	log.Debug("document parsed", "state", out.State, "diagnostics", len(doc.Diagnostics))
	for _, d := range doc.Diagnostics {
		log.Debug("markup repaired", "detail", d)
	}

	switch out.Kind {
	case KindQuiz:
		quiz, questions, warnings, err := e.extractQuiz(id, doc)
		if err != nil {
			return e.fail(log, out, err)
		}
		out.Quiz, out.Questions, out.Warnings = quiz, questions, warnings
	default:
		lesson, warnings, err := e.extractLesson(id, doc)
		if err != nil {
			return e.fail(log, out, err)
		}
		out.Lesson, out.Warnings = lesson, warnings
	}
	out.State = StateExtracted
	log.Debug("fields extracted", "state", out.State, "warnings", len(out.Warnings))

	out.State = StateAccepted
	log.Debug("document accepted", "state", out.State)
	return out
}

func (e *Extractor) fail(log *logger.Logger, out Outcome, err error) Outcome {
	from := out.State
	out.State = StateFailed
	out.Err = err
	log.Warn("document failed", "from", from, "state", out.State, "error", err)
	return out
}

// moduleLabel reads a "Module <n>" label from the badge element, falling
// back to the module attribute on body.
func (e *Extractor) moduleLabel(doc *docmodel.Document) (ordering.ModuleLabel, bool) {
	if badge := docmodel.First(doc.Find("", docmodel.HasClass(e.conv.ModuleBadgeClass))); badge != nil {
		if l, ok := parseModuleText(docmodel.NormalizedText(badge)); ok {
			return l, true
		}
	}
	if body := docmodel.First(doc.Find("body")); body != nil {
		if v, ok := docmodel.Attribute(body, e.conv.ModuleAttr); ok {
			if l, ok := parseModuleText(v); ok {
				return l, true
			}
		}
	}
	return ordering.ModuleLabel{}, false
}

// documentTitle is the first h1, else the document title.
func documentTitle(doc *docmodel.Document) string {
	if t := docmodel.NormalizedText(docmodel.First(doc.Find("h1"))); t != "" {
		return t
	}
	return docmodel.NormalizedText(docmodel.First(doc.Find("title")))
}

// parseModuleText accepts either a bare number or a "Module <n>" label.
func parseModuleText(text string) (ordering.ModuleLabel, bool) {
	text = strings.TrimSpace(text)
	if n, err := strconv.Atoi(text); err == nil && n >= 0 {
		return ordering.ModuleLabel{ID: n}, true
	}
	return ordering.ParseModuleLabel(text)
}
