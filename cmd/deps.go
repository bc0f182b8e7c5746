package main

import (
	"context"
	"time"

	"github.com/sells-group/coi-cli/internal/batch"
	"github.com/sells-group/coi-cli/internal/compliance"
	"github.com/sells-group/coi-cli/internal/config"
	"github.com/sells-group/coi-cli/internal/extract"
	"github.com/sells-group/coi-cli/internal/resilience"
	"github.com/sells-group/coi-cli/internal/store"
	"github.com/sells-group/coi-cli/pkg/portal"
)

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}

// initExtractor returns nil when no extraction service is configured; only
// documents with policies already filled in can be assessed then.
func initExtractor(c config.ExtractConfig) batch.Extractor {
	if c.BaseURL == "" {
		return nil
	}
	svc := extract.NewHTTPService(c.BaseURL, c.APIKey,
		extract.WithTimeout(time.Duration(c.TimeoutSecs)*time.Second),
	)
	return extract.NewRunner(svc, resilience.NewPolicy(c.MaxAttempts, c.InitialBackoffMs), c.TempDir)
}

func initPortal(c config.PortalConfig) portal.Client {
	return portal.NewClient(c.BaseURL, c.Token, portal.WithRateLimit(c.RequestsPerSecond))
}

func assessOptions(c config.AssessConfig) compliance.Options {
	return compliance.Options{MismatchTolerance: compliance.Tolerance(c.MismatchTolerance())}
}
