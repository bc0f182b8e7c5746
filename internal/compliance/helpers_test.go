package compliance

import (
	"time"

	"github.com/sells-group/coi-cli/internal/model"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const (
	nextYear = "2026-06-01"
	lastYear = "2024-06-01"
	artifact = "1900-01-01"
)

func amt(v float64) *model.Amount {
	a := model.Amount(v)
	return &a
}

func attachment(id string, policies ...model.Policy) model.Attachment {
	m := make(map[string]model.Policy, len(policies))
	for i, p := range policies {
		m[string(p.Type)+"-"+string(rune('a'+i))] = p
	}
	return model.Attachment{ID: id, Policies: m}
}

func cgl(each, agg float64, exp string) model.Policy {
	return model.Policy{
		Type:             model.PolicyCGL,
		EffectiveDate:    "2025-01-01",
		ExpireDate:       exp,
		EachOccurrence:   amt(each),
		GeneralAggregate: amt(agg),
	}
}

func auto(csl float64, exp string) model.Policy {
	return model.Policy{Type: model.PolicyAL, EffectiveDate: "2025-01-01", ExpireDate: exp, CombinedSingle: amt(csl)}
}

func employers(each float64, exp string) model.Policy {
	return model.Policy{Type: model.PolicyEL, EffectiveDate: "2025-01-01", ExpireDate: exp, ELEachAccident: amt(each)}
}

func umbrella(each float64, exp string) model.Policy {
	return model.Policy{Type: model.PolicyUL, EffectiveDate: "2025-01-01", ExpireDate: exp, EachOccurrence: amt(each)}
}

func workers(exp string) model.Policy {
	return model.Policy{Type: model.PolicyWC, EffectiveDate: "2025-01-01", ExpireDate: exp}
}

// compliantPolicies satisfies every rule in DefaultLimits.
func compliantPolicies() []model.Policy {
	return []model.Policy{
		cgl(2_000_000, 5_000_000, nextYear),
		auto(1_000_000, nextYear),
		employers(1_000_000, nextYear),
		workers(nextYear),
	}
}

func evaluateAttachments(declared string, atts ...model.Attachment) model.AssessmentResult {
	coi := Combine("doc", atts, testNow)
	return Evaluate(Input{Pooled: coi, Single: coi, DeclaredExpiration: declared}, testNow, Options{})
}
