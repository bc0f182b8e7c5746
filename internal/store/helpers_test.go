package store

import (
	"time"

	"github.com/sells-group/coi-cli/internal/model"
)

func amt(v float64) *model.Amount {
	a := model.Amount(v)
	return &a
}

func sampleAssessment(docID, partnerID string, action model.Action, at time.Time) *model.Assessment {
	return &model.Assessment{
		Document: model.Document{
			ID:         docID,
			Name:       "COI " + docID,
			Partner:    model.Partner{ID: partnerID, Name: "Partner " + partnerID},
			ExpireDate: "2026-06-01",
		},
		Pooled: model.TrellisCOI{
			ID: partnerID,
			CGL: &model.CombinedPolicy{
				Policy: model.Policy{Type: model.PolicyCGL, ExpireDate: "2026-06-01", EachOccurrence: amt(2_000_000)},
				Active: true,
				Count:  1,
			},
		},
		Result: model.AssessmentResult{
			Passed:  action == model.ActionApprove,
			Reasons: []string{},
			Action:  action,
		},
		AssessedAt: at,
	}
}
