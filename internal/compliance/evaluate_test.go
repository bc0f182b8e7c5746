package compliance

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/coi-cli/internal/model"
)

func limitResult(t *testing.T, res model.AssessmentResult, path string) model.LimitResult {
	t.Helper()
	for _, lr := range res.Limits {
		if lr.Limit.Path == path {
			return lr
		}
	}
	t.Fatalf("no limit result for %s", path)
	return model.LimitResult{}
}

// One document, one attachment, every category active and at threshold.
// The aggregate is set because the rule table requires it alongside the
// per-occurrence limit.
func TestEvaluate_CompliantDocumentApproves(t *testing.T) {
	res := evaluateAttachments("", attachment("a1", compliantPolicies()...))

	assert.True(t, res.Passed)
	assert.Empty(t, res.Reasons)
	assert.Equal(t, model.ActionApprove, res.Action)
	assert.True(t, res.WorkersPassed)
	assert.True(t, res.ExpiryPassed)
	assert.False(t, res.ParsingError)
	assert.Equal(t, nextYear, res.MinExpireDate)
	assert.Len(t, res.Limits, len(DefaultLimits))
	for _, lr := range res.Limits {
		assert.True(t, lr.Passed, lr.Limit.Title)
		assert.False(t, lr.UmbrellaApplied)
	}
}

func TestEvaluate_UmbrellaOffset(t *testing.T) {
	policies := compliantPolicies()
	policies[0] = cgl(1_500_000, 5_000_000, nextYear)

	bare := evaluateAttachments("", attachment("a1", policies...))
	assert.False(t, limitResult(t, bare, "cgl.each_occurrence").Passed)
	assert.Equal(t, model.ActionReject, bare.Action)

	withUmbrella := evaluateAttachments("", attachment("a1", append(policies, umbrella(1_000_000, nextYear))...))
	lr := limitResult(t, withUmbrella, "cgl.each_occurrence")
	assert.InDelta(t, 1_500_000, lr.Value, 0.001)
	assert.InDelta(t, 2_500_000, lr.Effective, 0.001)
	assert.True(t, lr.Passed)
	assert.True(t, lr.UmbrellaApplied)
	assert.True(t, withUmbrella.Passed)
}

// The umbrella amount is added to every rule, employers' liability included.
// This mirrors the behavior the portal reviewers have relied on and is kept
// until a product owner says otherwise.
func TestEvaluate_UmbrellaOffsetAppliesToEmployersLiability(t *testing.T) {
	policies := compliantPolicies()
	policies[2] = employers(500_000, nextYear)
	policies = append(policies, umbrella(500_000, nextYear))

	res := evaluateAttachments("", attachment("a1", policies...))
	lr := limitResult(t, res, "el.el_each_accident")
	assert.InDelta(t, 1_000_000, lr.Effective, 0.001)
	assert.True(t, lr.Passed)
}

func TestEvaluate_ExpiredUmbrellaNotCounted(t *testing.T) {
	policies := compliantPolicies()
	policies[0] = cgl(1_500_000, 5_000_000, nextYear)
	policies = append(policies, umbrella(1_000_000, lastYear))

	res := evaluateAttachments("", attachment("a1", policies...))
	lr := limitResult(t, res, "cgl.each_occurrence")
	assert.False(t, lr.Passed)
	assert.False(t, lr.UmbrellaApplied)
}

func TestEvaluate_ShortfallReason(t *testing.T) {
	policies := compliantPolicies()
	policies[0] = cgl(1_500_000, 5_000_000, nextYear)

	res := evaluateAttachments("", attachment("a1", policies...))

	require.Len(t, res.Reasons, 1)
	assert.Equal(t,
		"General Liability (Per Occurrence) of $1,500,000 (umbrella not counted) is below the required $2,000,000",
		res.Reasons[0])
	assert.Equal(t, res.Reasons[0], res.Message)
}

func TestEvaluate_ShortfallReasonMentionsUmbrella(t *testing.T) {
	policies := compliantPolicies()
	policies[0] = cgl(1_000_000, 5_000_000, nextYear)
	policies = append(policies, umbrella(500_000, nextYear))

	res := evaluateAttachments("", attachment("a1", policies...))

	require.NotEmpty(t, res.Reasons)
	assert.Contains(t, res.Reasons[0], "including $500,000 umbrella")
	assert.Contains(t, res.Reasons[0], "$1,500,000")
}

func TestEvaluate_MissingCategoryIsNoCoverage(t *testing.T) {
	res := evaluateAttachments("", attachment("a1",
		cgl(2_000_000, 5_000_000, nextYear),
		employers(1_000_000, nextYear),
		workers(nextYear),
	))

	lr := limitResult(t, res, "al.combined_single_limit")
	assert.False(t, lr.Passed)
	assert.Zero(t, lr.Value)
	assert.Contains(t, res.Reasons, "Automobile Liability (Combined Single Limit) of $0 (umbrella not counted) is below the required $1,000,000")
	assert.Equal(t, model.ActionReject, res.Action)
}

func TestEvaluate_ExpiredCategory(t *testing.T) {
	policies := compliantPolicies()
	policies[1] = auto(1_000_000, "2025-01-31")

	res := evaluateAttachments("", attachment("a1", policies...))

	lr := limitResult(t, res, "al.combined_single_limit")
	assert.True(t, lr.Expired)
	assert.False(t, lr.Passed)
	assert.Contains(t, res.Reasons, "Automobile Liability policy expired 2025-01-31")
	assert.False(t, res.Passed)
}

func TestEvaluate_ExpiredReasonNotDuplicated(t *testing.T) {
	policies := compliantPolicies()
	policies[0] = cgl(2_000_000, 5_000_000, "2025-01-31")

	res := evaluateAttachments("", attachment("a1", policies...))

	count := 0
	for _, r := range res.Reasons {
		if r == "Commercial General Liability policy expired 2025-01-31" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestEvaluate_ArtifactDatesWarnInsteadOfExpire(t *testing.T) {
	policies := compliantPolicies()
	policies[0] = cgl(2_000_000, 5_000_000, artifact)

	res := evaluateAttachments("", attachment("a1", policies...))

	for _, path := range []string{"cgl.each_occurrence", "cgl.general_aggregate"} {
		lr := limitResult(t, res, path)
		assert.True(t, lr.DateParseWarning, path)
		assert.False(t, lr.Expired, path)
		assert.True(t, lr.Passed, path)
	}
	for _, r := range res.Reasons {
		assert.NotContains(t, r, "expired")
	}
	assert.True(t, res.Passed)
}

func TestEvaluate_WorkersCompRequired(t *testing.T) {
	policies := compliantPolicies()[:3]

	res := evaluateAttachments("", attachment("a1", policies...))

	assert.False(t, res.WorkersPassed)
	assert.False(t, res.WorkersPresent)
	assert.False(t, res.ParsingError)
	assert.Equal(t, []string{ReasonWorkersRequired}, res.Reasons)
	assert.Equal(t, model.ActionReject, res.Action)
}

func TestEvaluate_WorkersCompExpired(t *testing.T) {
	policies := compliantPolicies()
	policies[3] = workers("2025-05-01")

	res := evaluateAttachments("", attachment("a1", policies...))

	assert.True(t, res.WorkersPresent)
	assert.False(t, res.WorkersPassed)
	assert.Contains(t, res.Reasons, "Worker's Comp policy is expired 2025-05-01.")
}

func TestEvaluate_WorkersCompArtifactDatePasses(t *testing.T) {
	policies := compliantPolicies()
	policies[3] = workers(artifact)

	res := evaluateAttachments("", attachment("a1", policies...))
	assert.True(t, res.WorkersPassed)
}

func TestEvaluate_ParsingErrorIgnores(t *testing.T) {
	res := evaluateAttachments("", attachment("a1",
		cgl(100, 100, artifact),
		workers(artifact),
	))

	assert.True(t, res.ParsingError)
	assert.False(t, res.Passed)
	assert.Equal(t, model.ActionIgnore, res.Action)
	assert.Equal(t, []string{ReasonParsingError}, res.Reasons)
}

func TestEvaluate_NoAttachmentsIsParsingError(t *testing.T) {
	failed := model.Attachment{ID: "a1", Error: "ocr failed"}
	res := evaluateAttachments("", failed)

	assert.True(t, res.ParsingError)
	assert.Equal(t, model.ActionIgnore, res.Action)
	assert.NotContains(t, res.Reasons, ReasonWorkersRequired)
}

func TestEvaluate_ExpiryMismatch(t *testing.T) {
	res := evaluateAttachments("2026-09-01", attachment("a1", compliantPolicies()...))

	assert.True(t, res.ExpiryMismatch)
	assert.False(t, res.ExpiryPassed)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Reasons, "Declared expiration 2026-09-01 is later than the certificate expiration 2026-06-01.")
}

func TestEvaluate_ExpiryMismatchTolerance(t *testing.T) {
	res := evaluateAttachments("2026-06-01T11:00:00Z", attachment("a1", compliantPolicies()...))
	assert.False(t, res.ExpiryMismatch)

	res = evaluateAttachments("2026-06-01T13:00:00Z", attachment("a1", compliantPolicies()...))
	assert.True(t, res.ExpiryMismatch)
}

func TestEvaluate_CustomTolerance(t *testing.T) {
	coi := Combine("doc", []model.Attachment{attachment("a1", compliantPolicies()...)}, testNow)
	res := Evaluate(Input{Pooled: coi, Single: coi, DeclaredExpiration: "2026-06-03"}, testNow,
		Options{MismatchTolerance: Tolerance(72 * time.Hour)})
	assert.False(t, res.ExpiryMismatch)
}

func TestEvaluate_ZeroToleranceIsExact(t *testing.T) {
	coi := Combine("doc", []model.Attachment{attachment("a1", compliantPolicies()...)}, testNow)
	in := Input{Pooled: coi, Single: coi, DeclaredExpiration: "2026-06-01T01:00:00Z"}

	assert.False(t, Evaluate(in, testNow, Options{}).ExpiryMismatch, "default tolerance absorbs one hour")
	assert.True(t, Evaluate(in, testNow, Options{MismatchTolerance: Tolerance(0)}).ExpiryMismatch)
}

func TestEvaluate_DeclaredEarlierIsNotMismatch(t *testing.T) {
	res := evaluateAttachments("2026-01-01", attachment("a1", compliantPolicies()...))
	assert.False(t, res.ExpiryMismatch)
	assert.True(t, res.Passed)
}

func TestEvaluate_StaleDocument(t *testing.T) {
	policies := append(compliantPolicies(), workers("2025-03-01"))

	res := evaluateAttachments("", attachment("a1", policies...))

	assert.Equal(t, "2025-03-01", res.MinExpireDate)
	assert.False(t, res.ExpiryPassed)
	assert.Contains(t, res.Reasons, "Certificate expired 2025-03-01.")
	assert.True(t, res.WorkersPassed)
}

func TestEvaluate_NonNumericValueHasNoShortfallReason(t *testing.T) {
	policies := compliantPolicies()
	rep := auto(0, "2025-01-01")
	nan := model.Amount(math.NaN())
	rep.CombinedSingle = &nan
	policies[1] = rep

	res := evaluateAttachments("", attachment("a1", policies...))

	lr := limitResult(t, res, "al.combined_single_limit")
	assert.False(t, lr.Numeric)
	assert.False(t, lr.Passed)
	for _, r := range res.Reasons {
		assert.NotContains(t, r, "Automobile Liability (Combined Single Limit) of")
	}
	assert.Contains(t, res.Reasons, "Automobile Liability policy expired 2025-01-01")
}

func TestEvaluate_CustomLimits(t *testing.T) {
	coi := Combine("doc", []model.Attachment{attachment("a1", compliantPolicies()...)}, testNow)
	res := Evaluate(Input{Pooled: coi, Single: coi}, testNow, Options{Limits: []model.Limit{{
		Path: "cgl.products_-_compop_agg", Category: model.PolicyCGL, Field: model.FieldProductsCompOpAgg,
		Threshold: 1, Title: "Products",
	}}})

	require.Len(t, res.Limits, 1)
	assert.False(t, res.Limits[0].Passed)
}

func TestEvaluate_Deterministic(t *testing.T) {
	att := attachment("a1", append(compliantPolicies(), umbrella(1, nextYear))...)
	assert.Equal(t, evaluateAttachments("2026-01-01", att), evaluateAttachments("2026-01-01", att))
}
