package compliance

import (
	"sort"
	"time"

	"github.com/sells-group/coi-cli/internal/model"
)

type sourcedPolicy struct {
	source string
	policy model.Policy
}

// Combine merges the policies of every successfully extracted attachment into
// one combined record per category. Failed attachments contribute nothing.
// The result does not depend on attachment order.
func Combine(id string, attachments []model.Attachment, now time.Time) model.TrellisCOI {
	policies := collect(attachments)

	coi := model.TrellisCOI{ID: id, ExpireDate: minUsableExpiration(policies)}
	for _, t := range model.PolicyTypes {
		var ofType []model.Policy
		for _, sp := range policies {
			if sp.policy.Type == t {
				ofType = append(ofType, sp.policy)
			}
		}
		coi.SetCategory(t, combineCategory(t, ofType, now))
	}
	return coi
}

// CombineDocuments pools the attachments of every document into one record.
// Attachment ids are qualified with the document id so attachments that share
// an id across documents still order deterministically.
func CombineDocuments(id string, docs []model.Document, now time.Time) model.TrellisCOI {
	var attachments []model.Attachment
	for _, d := range docs {
		for _, a := range d.Attachments {
			a.ID = d.ID + "/" + a.ID
			attachments = append(attachments, a)
		}
	}
	return Combine(id, attachments, now)
}

// collect flattens attachment policy maps into a deterministically ordered
// slice so sums and representative picks are independent of input order.
func collect(attachments []model.Attachment) []sourcedPolicy {
	var out []sourcedPolicy
	for _, a := range attachments {
		if a.Failed() {
			continue
		}
		for key, p := range a.Policies {
			if !p.Type.Valid() {
				continue
			}
			if p.Key == "" {
				p.Key = key
			}
			out = append(out, sourcedPolicy{source: a.ID + "/" + key, policy: p})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].source != out[j].source {
			return out[i].source < out[j].source
		}
		if out[i].policy.ExpireDate != out[j].policy.ExpireDate {
			return out[i].policy.ExpireDate < out[j].policy.ExpireDate
		}
		return out[i].policy.EffectiveDate < out[j].policy.EffectiveDate
	})
	return out
}

// isActive treats artifact dates as not disqualifying; they are flagged later.
func isActive(p model.Policy, now time.Time) bool {
	return isFuture(p.ExpireDate, now) || IsArtifactDate(p.ExpireDate)
}

func combineCategory(t model.PolicyType, policies []model.Policy, now time.Time) *model.CombinedPolicy {
	if len(policies) == 0 {
		return nil
	}

	var active, expired []model.Policy
	for _, p := range policies {
		if isActive(p, now) {
			active = append(active, p)
		} else {
			expired = append(expired, p)
		}
	}

	if len(active) == 0 {
		// The representative is the first policy in collection order; its
		// numbers are shown for context only and never count as coverage.
		rep := expired[0]
		exp := rep.ExpireDate
		for _, p := range expired[1:] {
			if e, err := EarlierOf(exp, p.ExpireDate); err == nil {
				exp = e
			}
		}
		rep.Key = ""
		rep.ExpireDate = exp
		return &model.CombinedPolicy{Policy: rep}
	}

	cp := &model.CombinedPolicy{Policy: model.Policy{Type: t}, Active: true}
	for _, p := range active {
		addAmounts(cp, p)
		if d, err := EarlierOf(cp.EffectiveDate, p.EffectiveDate); err == nil {
			cp.EffectiveDate = d
		}
		if d, err := EarlierOf(cp.ExpireDate, p.ExpireDate); err == nil {
			cp.ExpireDate = d
		}
		cp.Count++
	}
	return cp
}

// addAmounts sums the numeric fields that belong to the policy's category.
// Every model.PolicyTypes member must have a case here.
func addAmounts(dst *model.CombinedPolicy, p model.Policy) {
	switch p.Type {
	case model.PolicyCGL:
		dst.EachOccurrence = sum(dst.EachOccurrence, p.EachOccurrence)
		dst.GeneralAggregate = sum(dst.GeneralAggregate, p.GeneralAggregate)
		dst.ProductsCompOpAgg = sum(dst.ProductsCompOpAgg, p.ProductsCompOpAgg)
	case model.PolicyAL:
		dst.CombinedSingle = sum(dst.CombinedSingle, p.CombinedSingle)
	case model.PolicyEL:
		dst.ELEachAccident = sum(dst.ELEachAccident, p.ELEachAccident)
	case model.PolicyUL:
		dst.EachOccurrence = sum(dst.EachOccurrence, p.EachOccurrence)
	case model.PolicyWC:
		// existence and dates only
	}
}

func sum(acc, v *model.Amount) *model.Amount {
	total := model.Amount(0)
	if acc != nil {
		total = model.Amount(acc.OrZero())
	}
	if v != nil {
		total += model.Amount(v.OrZero())
	}
	return &total
}

// minUsableExpiration is the earliest non-artifact expiration across every
// policy, or "" when none remain.
func minUsableExpiration(policies []sourcedPolicy) string {
	var earliest string
	for _, sp := range policies {
		if !UsableDate(sp.policy.ExpireDate) {
			continue
		}
		if d, err := EarlierOf(earliest, sp.policy.ExpireDate); err == nil {
			earliest = d
		}
	}
	return earliest
}
