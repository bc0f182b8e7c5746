package compliance

import (
	"sort"
	"time"

	"github.com/sells-group/coi-cli/internal/model"
)

// PartnerGroup is the set of documents pooled for one trading partner.
type PartnerGroup struct {
	Key       string
	Partner   model.Partner
	Documents []model.Document
}

// GroupByPartner pools documents by trading partner, ordered by partner key
// and then document id.
func GroupByPartner(docs []model.Document) []PartnerGroup {
	byKey := make(map[string]*PartnerGroup)
	for _, d := range docs {
		key := d.PartnerKey()
		g, ok := byKey[key]
		if !ok {
			g = &PartnerGroup{Key: key, Partner: d.Partner}
			byKey[key] = g
		}
		g.Documents = append(g.Documents, d)
	}

	groups := make([]PartnerGroup, 0, len(byKey))
	for _, g := range byKey {
		sort.SliceStable(g.Documents, func(i, j int) bool {
			return g.Documents[i].ID < g.Documents[j].ID
		})
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// AssessPartner evaluates every document of the group against one pooled
// combination, using each document's own combination for the expiration
// checks. Results follow document order.
func AssessPartner(g PartnerGroup, now time.Time, opts Options) []model.Assessment {
	pooled := CombineDocuments(g.Key, g.Documents, now)

	out := make([]model.Assessment, 0, len(g.Documents))
	for _, d := range g.Documents {
		single := Combine(d.ID, d.Attachments, now)
		res := Evaluate(Input{
			Pooled:             pooled,
			Single:             single,
			DeclaredExpiration: d.ExpireDate,
		}, now, opts)
		out = append(out, model.Assessment{
			Document:         d,
			Pooled:           pooled,
			Single:           single,
			Result:           res,
			ExtractionErrors: d.ExtractionErrors(),
			AssessedAt:       now,
		})
	}
	return out
}

// AssessDocument evaluates a single document on its own.
func AssessDocument(d model.Document, now time.Time, opts Options) model.Assessment {
	return AssessPartner(PartnerGroup{Key: d.ID, Partner: d.Partner, Documents: []model.Document{d}}, now, opts)[0]
}
