package main

import (
	"github.com/sells-group/coi-cli/internal/model"
)

func amt(v float64) *model.Amount {
	a := model.Amount(v)
	return &a
}

func compliantDoc(id, partner string) model.Document {
	return model.Document{
		ID:         id,
		Name:       "COI " + id,
		Partner:    model.Partner{ID: partner, Name: "Partner " + partner},
		ExpireDate: "2099-06-01",
		Attachments: []model.Attachment{{
			ID: id + "-a",
			Policies: map[string]model.Policy{
				"cgl": {Type: model.PolicyCGL, ExpireDate: "2099-06-01", EachOccurrence: amt(2_000_000), GeneralAggregate: amt(5_000_000)},
				"al":  {Type: model.PolicyAL, ExpireDate: "2099-06-01", CombinedSingle: amt(1_000_000)},
				"el":  {Type: model.PolicyEL, ExpireDate: "2099-06-01", ELEachAccident: amt(1_000_000)},
				"wc":  {Type: model.PolicyWC, ExpireDate: "2099-06-01"},
			},
		}},
	}
}
