package compliance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/coi-cli/internal/model"
)

func TestCombine_ExpiredPolicyExcludedFromSum(t *testing.T) {
	coi := Combine("doc", []model.Attachment{
		attachment("a1", cgl(1_000_000, 0, nextYear)),
		attachment("a2", cgl(5_000_000, 0, lastYear)),
	}, testNow)

	require.NotNil(t, coi.CGL)
	assert.True(t, coi.CGL.Active)
	assert.Equal(t, 1, coi.CGL.Count)
	assert.InDelta(t, 1_000_000, coi.CGL.EachOccurrence.OrZero(), 0.001)
}

func TestCombine_ActivePoliciesSum(t *testing.T) {
	coi := Combine("doc", []model.Attachment{
		attachment("a1", cgl(1_000_000, 2_000_000, nextYear)),
		attachment("a2", cgl(2_000_000, 3_000_000, "2026-03-01")),
	}, testNow)

	require.NotNil(t, coi.CGL)
	assert.InDelta(t, 3_000_000, coi.CGL.EachOccurrence.OrZero(), 0.001)
	assert.InDelta(t, 5_000_000, coi.CGL.GeneralAggregate.OrZero(), 0.001)
	assert.Equal(t, "2026-03-01", coi.CGL.ExpireDate)
	assert.Equal(t, 2, coi.CGL.Count)
}

func TestCombine_EarliestEffectiveDate(t *testing.T) {
	p1 := auto(500_000, nextYear)
	p1.EffectiveDate = "2025-02-01"
	p2 := auto(500_000, "2026-01-15")
	p2.EffectiveDate = "2024-12-01"

	coi := Combine("doc", []model.Attachment{attachment("a1", p1, p2)}, testNow)

	require.NotNil(t, coi.AL)
	assert.Equal(t, "2024-12-01", coi.AL.EffectiveDate)
	assert.Equal(t, "2026-01-15", coi.AL.ExpireDate)
	assert.InDelta(t, 1_000_000, coi.AL.CombinedSingle.OrZero(), 0.001)
}

func TestCombine_NonNumericCoercesToZero(t *testing.T) {
	bad := employers(0, nextYear)
	nan := model.Amount(math.NaN())
	bad.ELEachAccident = &nan
	missing := employers(0, nextYear)
	missing.ELEachAccident = nil

	coi := Combine("doc", []model.Attachment{
		attachment("a1", bad, missing, employers(750_000, nextYear)),
	}, testNow)

	require.NotNil(t, coi.EL)
	assert.InDelta(t, 750_000, coi.EL.ELEachAccident.OrZero(), 0.001)
	assert.True(t, coi.EL.ELEachAccident.Numeric())
}

func TestCombine_NumericStrings(t *testing.T) {
	p := cgl(0, 0, nextYear)
	each := model.ParseAmount("$1,250,000")
	p.EachOccurrence = &each

	coi := Combine("doc", []model.Attachment{attachment("a1", p)}, testNow)
	assert.InDelta(t, 1_250_000, coi.CGL.EachOccurrence.OrZero(), 0.001)
}

func TestCombine_AbsentCategory(t *testing.T) {
	coi := Combine("doc", []model.Attachment{attachment("a1", cgl(1, 1, nextYear))}, testNow)

	assert.NotNil(t, coi.CGL)
	assert.Nil(t, coi.AL)
	assert.Nil(t, coi.EL)
	assert.Nil(t, coi.UL)
	assert.Nil(t, coi.WC)
}

// The representative for an all-expired category is implementation-defined:
// currently the first policy in attachment-id/key order.
func TestCombine_AllExpiredUsesMinimumExpiration(t *testing.T) {
	coi := Combine("doc", []model.Attachment{
		attachment("a1", cgl(1_000_000, 2_000_000, "2024-09-01")),
		attachment("a2", cgl(3_000_000, 4_000_000, "2024-03-01")),
	}, testNow)

	require.NotNil(t, coi.CGL)
	assert.False(t, coi.CGL.Active)
	assert.Equal(t, 0, coi.CGL.Count)
	assert.Equal(t, "2024-03-01", coi.CGL.ExpireDate)
	assert.InDelta(t, 1_000_000, coi.CGL.EachOccurrence.OrZero(), 0.001)
}

func TestCombine_ArtifactDatesStayActive(t *testing.T) {
	coi := Combine("doc", []model.Attachment{
		attachment("a1", cgl(1_000_000, 0, artifact), cgl(1_000_000, 0, nextYear)),
	}, testNow)

	require.NotNil(t, coi.CGL)
	assert.True(t, coi.CGL.Active)
	assert.Equal(t, 2, coi.CGL.Count)
	assert.Equal(t, artifact, coi.CGL.ExpireDate)
	assert.Equal(t, nextYear, coi.ExpireDate)
}

func TestCombine_GroupExpireDateSkipsArtifacts(t *testing.T) {
	coi := Combine("doc", []model.Attachment{
		attachment("a1", cgl(1, 1, artifact), auto(1, "2026-01-01")),
		attachment("a2", workers("2025-12-01")),
	}, testNow)

	assert.Equal(t, "2025-12-01", coi.ExpireDate)
}

func TestCombine_GroupExpireDateIncludesExpired(t *testing.T) {
	coi := Combine("doc", []model.Attachment{
		attachment("a1", cgl(1, 1, lastYear), cgl(1, 1, nextYear)),
	}, testNow)

	assert.Equal(t, lastYear, coi.ExpireDate)
}

func TestCombine_OnlyArtifactDatesLeavesGroupDateEmpty(t *testing.T) {
	coi := Combine("doc", []model.Attachment{
		attachment("a1", cgl(1, 1, artifact), workers("01/01/1900")),
	}, testNow)

	assert.Empty(t, coi.ExpireDate)
	assert.NotNil(t, coi.CGL)
}

func TestCombine_SkipsFailedAttachments(t *testing.T) {
	failed := attachment("a2", cgl(9_000_000, 9_000_000, nextYear))
	failed.Error = "extraction timed out"

	coi := Combine("doc", []model.Attachment{
		attachment("a1", cgl(1_000_000, 1_000_000, nextYear)),
		failed,
	}, testNow)

	assert.InDelta(t, 1_000_000, coi.CGL.EachOccurrence.OrZero(), 0.001)
}

func TestCombine_SkipsUnknownTypes(t *testing.T) {
	coi := Combine("doc", []model.Attachment{{
		ID: "a1",
		Policies: map[string]model.Policy{
			"x": {Type: "property", ExpireDate: "2020-01-01"},
		},
	}}, testNow)

	assert.Empty(t, coi.ExpireDate)
	for _, pt := range model.PolicyTypes {
		assert.Nil(t, coi.Category(pt))
	}
}

func TestCombine_EveryPolicyTypeHandled(t *testing.T) {
	for _, pt := range model.PolicyTypes {
		t.Run(string(pt), func(t *testing.T) {
			p := model.Policy{
				Type:              pt,
				ExpireDate:        nextYear,
				EachOccurrence:    amt(1),
				GeneralAggregate:  amt(1),
				ProductsCompOpAgg: amt(1),
				CombinedSingle:    amt(1),
				ELEachAccident:    amt(1),
			}
			coi := Combine("doc", []model.Attachment{attachment("a1", p)}, testNow)
			cp := coi.Category(pt)
			require.NotNil(t, cp)
			assert.Equal(t, pt, cp.Type)
			assert.True(t, cp.Active)
		})
	}
}

func TestCombine_FieldsBelongToCategory(t *testing.T) {
	p := model.Policy{
		Type:           model.PolicyAL,
		ExpireDate:     nextYear,
		CombinedSingle: amt(1_000_000),
		EachOccurrence: amt(9_000_000),
	}
	coi := Combine("doc", []model.Attachment{attachment("a1", p)}, testNow)

	require.NotNil(t, coi.AL)
	assert.Nil(t, coi.AL.EachOccurrence)
	assert.InDelta(t, 1_000_000, coi.AL.CombinedSingle.OrZero(), 0.001)
}

func TestCombineDocuments_Pools(t *testing.T) {
	docs := []model.Document{
		{ID: "d1", Attachments: []model.Attachment{attachment("a1", cgl(1_000_000, 0, nextYear))}},
		{ID: "d2", Attachments: []model.Attachment{attachment("a2", cgl(1_500_000, 0, nextYear))}},
	}
	coi := CombineDocuments("partner", docs, testNow)

	assert.Equal(t, "partner", coi.ID)
	assert.InDelta(t, 2_500_000, coi.CGL.EachOccurrence.OrZero(), 0.001)
}

func TestCombineDocuments_SharedAttachmentIDsOrderIndependent(t *testing.T) {
	d1 := model.Document{ID: "d1", Attachments: []model.Attachment{attachment("a1", cgl(1_000_000, 0, lastYear))}}
	d2 := model.Document{ID: "d2", Attachments: []model.Attachment{attachment("a1", cgl(3_000_000, 0, lastYear))}}

	forward := CombineDocuments("partner", []model.Document{d1, d2}, testNow)
	reverse := CombineDocuments("partner", []model.Document{d2, d1}, testNow)

	require.NotNil(t, forward.CGL)
	assert.False(t, forward.CGL.Active)
	assert.Equal(t, forward, reverse)
	assert.InDelta(t, 1_000_000, forward.CGL.EachOccurrence.OrZero(), 0.001)
}
