// Package store persists assessment results as review records.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coi-cli/internal/model"
)

// ErrNotFound is returned when a requested assessment does not exist.
var ErrNotFound = eris.New("store: assessment not found")

// AssessmentFilter specifies criteria for listing assessments.
type AssessmentFilter struct {
	PartnerID string       `json:"partner_id,omitempty"`
	Action    model.Action `json:"action,omitempty"`
	Limit     int          `json:"limit,omitempty"`
	Offset    int          `json:"offset,omitempty"`
}

// Store defines the persistence interface for assessments. Saving the same
// document twice replaces the earlier record and keeps its id.
type Store interface {
	SaveAssessment(ctx context.Context, a *model.Assessment) error
	GetAssessment(ctx context.Context, id string) (*model.Assessment, error)
	ListAssessments(ctx context.Context, filter AssessmentFilter) ([]model.Assessment, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 100

func listLimit(f AssessmentFilter) int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}
