package report

import (
	"context"
	"notebookeval/internal/logging"
	"notebookeval/internal/model"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Extractor turns a local notebook file into prompt text.
type Extractor func(path string) string

// Evaluator scores notebook text.
type Evaluator interface {
	Evaluate(ctx context.Context, content string) model.Evaluation
}

type Builder struct {
	extract  Extractor
	eval     Evaluator
	parallel int
}

// NewBuilder returns a Builder that evaluates up to parallel notebooks at a time.
// Values below 1 mean one at a time.
func NewBuilder(extract Extractor, eval Evaluator, parallel int) *Builder {
	return &Builder{extract: extract, eval: eval, parallel: max(parallel, 1)}
}

type job struct {
	student model.StudentRecord
	ref     model.NotebookRef
}

// Build produces one row per notebook in discovery order.
func (b *Builder) Build(ctx context.Context, students []model.StudentRecord) []model.ReportRow {
	var jobs []job
	for _, s := range students {
		for _, ref := range s.Notebooks {
			jobs = append(jobs, job{student: s, ref: ref})
		}
	}

	rows := make([]model.ReportRow, len(jobs))
	if b.parallel == 1 {
		for i, j := range jobs {
			rows[i] = b.row(ctx, j)
		}
		return rows
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallel)
	for i, j := range jobs {
		g.Go(func() error {
			rows[i] = b.row(gctx, j)
			return nil
		})
	}
	_ = g.Wait()
	return rows
}

func (b *Builder) row(ctx context.Context, j job) model.ReportRow {
	ev := b.eval.Evaluate(ctx, b.extract(j.ref.Path))

	if logger, ok := logging.GetFromContext(ctx); ok {
		logger.Info(ctx, "notebook evaluated",
			zap.String("student", j.student.Name),
			zap.String("notebook", filepath.Base(j.ref.Path)),
			zap.Int("total", ev.Score().Total()),
			zap.String("notes", ev.Notes()),
		)
	}

	return model.ReportRow{
		StudentID:      j.student.Name,
		Notebook:       filepath.Base(j.ref.Path),
		LastModified:   j.ref.ModifiedTime,
		Evaluation:     ev,
		NotebookCount:  len(j.student.Notebooks),
		SubfolderCount: j.student.SubfolderCount,
	}
}
