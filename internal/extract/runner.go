package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coi-cli/internal/model"
	"github.com/sells-group/coi-cli/internal/resilience"
)

// Runner extracts the pending attachments of a document.
type Runner struct {
	svc     Service
	retry   resilience.Policy
	tempDir string
}

// NewRunner creates a Runner. tempDir holds unpacked archives and defaults
// to the system temp directory.
func NewRunner(svc Service, retry resilience.Policy, tempDir string) *Runner {
	return &Runner{svc: svc, retry: retry, tempDir: tempDir}
}

// Run returns a copy of doc with every pending attachment extracted. A ZIP
// attachment is replaced by one attachment per PDF it contains. Failures are
// recorded on the attachment and never stop the others; only a cancelled
// context aborts the run.
func (r *Runner) Run(ctx context.Context, doc model.Document) (model.Document, error) {
	log := zap.L().With(zap.String("document", doc.ID))

	out := doc
	out.Attachments = make([]model.Attachment, 0, len(doc.Attachments))
	for _, a := range doc.Attachments {
		if !a.Pending() {
			out.Attachments = append(out.Attachments, a)
			continue
		}

		var extracted []model.Attachment
		switch {
		case isZIP(a.Path):
			extracted = r.runArchive(ctx, a)
		case isPDF(a.Path):
			extracted = []model.Attachment{r.runPDF(ctx, a, a.Path)}
		default:
			a.Error = "unsupported attachment type " + filepath.Ext(a.Path)
			extracted = []model.Attachment{a}
		}

		if err := ctx.Err(); err != nil {
			return doc, eris.Wrapf(err, "extract: document %s", doc.ID)
		}
		for _, e := range extracted {
			if e.Failed() {
				log.Warn("extract: attachment failed",
					zap.String("attachment", e.ID),
					zap.String("error", e.Error),
				)
			}
		}
		out.Attachments = append(out.Attachments, extracted...)
	}
	return out, nil
}

func (r *Runner) runPDF(ctx context.Context, a model.Attachment, path string) model.Attachment {
	p := r.retry
	if p.OnRetry == nil {
		p.OnRetry = resilience.LogRetries("extraction", zap.String("attachment", a.ID))
	}

	policies, err := resilience.Value(ctx, p, func(ctx context.Context) (map[string]model.Policy, error) {
		return r.svc.Extract(ctx, path)
	})
	if err != nil {
		a.Error = err.Error()
		a.Policies = nil
		return a
	}
	if policies == nil {
		policies = map[string]model.Policy{}
	}
	a.Policies = policies
	return a
}

func (r *Runner) runArchive(ctx context.Context, a model.Attachment) []model.Attachment {
	fail := func(err error) []model.Attachment {
		a.Error = err.Error()
		return []model.Attachment{a}
	}

	dir, err := os.MkdirTemp(r.tempDir, "coi-zip-*")
	if err != nil {
		return fail(eris.Wrap(err, "extract: create temp dir"))
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	pdfs, err := unzipPDFs(a.Path, dir)
	if err != nil {
		return fail(err)
	}
	if len(pdfs) == 0 {
		return fail(eris.Errorf("extract: no PDF files in %s", filepath.Base(a.Path)))
	}

	out := make([]model.Attachment, 0, len(pdfs))
	for _, pdf := range pdfs {
		rel, _ := filepath.Rel(dir, pdf)
		child := model.Attachment{
			ID:   a.ID + "/" + filepath.ToSlash(rel),
			Name: strings.TrimSuffix(filepath.Base(pdf), filepath.Ext(pdf)),
			Path: a.Path,
		}
		out = append(out, r.runPDF(ctx, child, pdf))
		if ctx.Err() != nil {
			break
		}
	}
	return out
}
