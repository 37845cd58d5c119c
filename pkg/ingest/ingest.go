package ingest

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/duynguyendang/coursepack/internal/config"
	"github.com/duynguyendang/coursepack/internal/logger"
	commonerrors "github.com/duynguyendang/coursepack/pkg/common/errors"
	"github.com/duynguyendang/coursepack/pkg/records"
	"github.com/duynguyendang/coursepack/pkg/validate"
)

// Result is the outcome of one run.
type Result struct {
	Batch    records.Batch
	Report   *validate.Report
	Outcomes []Outcome // in input order
}

// Orchestrator drives extraction over every document of a Source.
type Orchestrator struct {
	src Source
	cfg config.Config
	log *logger.Logger
}

// New creates an orchestrator. A nil log discards output.
func New(src Source, cfg config.Config, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{src: src, cfg: cfg, log: log}
}

// Run extracts every document, folds the outcomes in input order and
// validates the batch. Document failures never abort the run; only an
// empty source or a cancelled context do.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	listed, err := o.src.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := append([]string(nil), listed...)
	sort.Strings(ids)
	if len(ids) == 0 {
		return nil, commonerrors.ErrNoDocuments
	}

	outcomes := make([]Outcome, len(ids))

	workerCount := o.cfg.Workers
	if workerCount > config.MaxWorkers {
		workerCount = config.MaxWorkers
	}
	if workerCount > len(ids) {
		workerCount = len(ids)
	}
	if workerCount < 1 {
		workerCount = 1
	}
	o.log.Debug("extraction started", "documents", len(ids), "workers", workerCount)

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int, len(ids))

	g.Go(func() error {
		defer close(jobs)
		for i := range ids {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workerCount; w++ {
		g.Go(func() error {
			localExt := NewExtractor(o.cfg, o.log)
			defer localExt.Close()
			for i := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				outcomes[i] = o.process(gctx, localExt, ids[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extraction interrupted: %w", err)
	}

	res := fold(outcomes)
	res.Report = validate.Validate(res.Batch)
	res.Report.Documents = len(ids)
	for _, out := range outcomes {
		if out.State == StateFailed {
			res.Report.Failed++
		}
	}
	res.Report.Extraction = extractionFindings(outcomes)

	o.log.Info("extraction finished",
		"documents", res.Report.Documents,
		"failed", res.Report.Failed,
		"lessons", len(res.Batch.Lessons),
		"quizzes", len(res.Batch.Quizzes),
		"questions", len(res.Batch.Questions),
		"errors", res.Report.Count(records.SeverityError),
		"warnings", res.Report.Count(records.SeverityWarning))
	return res, nil
}

func (o *Orchestrator) process(ctx context.Context, ext *Extractor, id string) Outcome {
	data, err := o.src.Read(ctx, id)
	if err != nil {
		if !errors.Is(err, commonerrors.ErrUnreadable) {
			err = fmt.Errorf("%w: %v", commonerrors.ErrUnreadable, err)
		}
		o.log.Warn("document failed", "file", id, "from", StatePending, "state", StateFailed, "error", err)
		return Outcome{
			Source: id,
			Kind:   KindOf(id, o.cfg.Conventions.QuizFileMarker),
			State:  StateFailed,
			Err:    commonerrors.NewExtractError(id, "cannot read document", err),
		}
	}
	return ext.Extract(id, data)
}

// fold collects accepted records in input order and applies the output
// ordering.
func fold(outcomes []Outcome) *Result {
	res := &Result{Outcomes: outcomes}
	b := &res.Batch
	b.Lessons = []records.LessonRecord{}
	b.Quizzes = []records.QuizRecord{}
	b.Questions = []records.QuestionRecord{}

	for _, out := range outcomes {
		if out.State != StateAccepted {
			continue
		}
		if out.Lesson != nil {
			b.Lessons = append(b.Lessons, *out.Lesson)
		}
		if out.Quiz != nil {
			b.Quizzes = append(b.Quizzes, *out.Quiz)
			b.Questions = append(b.Questions, out.Questions...)
		}
	}

	SortBatch(b)
	return res
}

// SortBatch applies the canonical record order: lessons by ordering key,
// quizzes by id, questions by quiz id then order index. All sorts are
// stable, so ties keep input order.
func SortBatch(b *records.Batch) {
	sort.SliceStable(b.Lessons, func(i, j int) bool {
		return b.Lessons[i].OrderIndex < b.Lessons[j].OrderIndex
	})
	sort.SliceStable(b.Quizzes, func(i, j int) bool {
		return b.Quizzes[i].ID < b.Quizzes[j].ID
	})
	sort.SliceStable(b.Questions, func(i, j int) bool {
		qi, qj := b.Questions[i], b.Questions[j]
		if qi.QuizID != qj.QuizID {
			return qi.QuizID < qj.QuizID
		}
		return qi.OrderIndex < qj.OrderIndex
	})
}

func extractionFindings(outcomes []Outcome) []records.Finding {
	var findings []records.Finding
	for _, out := range outcomes {
		findings = append(findings, out.Warnings...)
		if out.Err != nil {
			findings = append(findings, commonerrors.ToFinding(out.Source, out.Err))
		}
	}
	return findings
}
