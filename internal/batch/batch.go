// Package batch assesses many documents at once: it extracts pending
// attachments, pools documents by trading partner and evaluates the pools
// concurrently.
package batch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/coi-cli/internal/compliance"
	"github.com/sells-group/coi-cli/internal/model"
	"github.com/sells-group/coi-cli/internal/store"
)

// Extractor fills in the policies of pending attachments.
type Extractor interface {
	Run(ctx context.Context, doc model.Document) (model.Document, error)
}

// Assessor runs batch assessments. Extractor and Store are optional.
type Assessor struct {
	Extractor   Extractor
	Store       store.Store
	Options     compliance.Options
	Concurrency int
	Now         func() time.Time
}

// Assess evaluates docs and returns one assessment per document, ordered by
// partner then document id. Assessments get fresh ids, replaced by the
// stored id when a Store is configured. Persistence failures are logged and
// do not fail the batch.
func (a *Assessor) Assess(ctx context.Context, docs []model.Document) ([]model.Assessment, error) {
	now := time.Now().UTC()
	if a.Now != nil {
		now = a.Now()
	}
	concurrency := a.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	groups := compliance.GroupByPartner(docs)
	zap.L().Info("assessing documents",
		zap.Int("documents", len(docs)),
		zap.Int("partners", len(groups)),
		zap.Int("concurrency", concurrency),
	)

	results := make([][]model.Assessment, len(groups))
	var saveFailures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, grp := range groups {
		g.Go(func() error {
			log := zap.L().With(zap.String("partner", grp.Key))

			if a.Extractor != nil {
				for j, d := range grp.Documents {
					out, err := a.Extractor.Run(gctx, d)
					if err != nil {
						return eris.Wrapf(err, "batch: extract partner %s", grp.Key)
					}
					grp.Documents[j] = out
				}
			}

			assessed := compliance.AssessPartner(grp, now, a.Options)
			for j := range assessed {
				as := &assessed[j]
				as.ID = uuid.New().String()
				if a.Store == nil {
					continue
				}
				if err := a.Store.SaveAssessment(gctx, as); err != nil {
					saveFailures.Add(1)
					log.Error("save assessment failed",
						zap.String("document", as.Document.ID),
						zap.Error(err),
					)
				}
			}
			log.Debug("partner assessed", zap.Int("documents", len(assessed)))
			results[i] = assessed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.Assessment
	for _, r := range results {
		out = append(out, r...)
	}

	var approved int
	for _, as := range out {
		if as.Result.Action == model.ActionApprove {
			approved++
		}
	}
	zap.L().Info("assessment complete",
		zap.Int("assessed", len(out)),
		zap.Int("approved", approved),
		zap.Int64("save_failures", saveFailures.Load()),
	)
	return out, nil
}

// Validate runs the live expiration check on one document, extracting its
// pending attachments first. It always yields a decision.
func Validate(ctx context.Context, ex Extractor, doc model.Document, today time.Time) (model.Decision, error) {
	if ex != nil {
		out, err := ex.Run(ctx, doc)
		if err != nil {
			return model.Decision{}, err
		}
		doc = out
	}
	return compliance.Decide(compliance.ValidateDocument(doc, today)), nil
}
