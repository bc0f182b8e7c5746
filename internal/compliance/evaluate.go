package compliance

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/coi-cli/internal/model"
)

// DefaultLimits is the required-coverage rule table.
var DefaultLimits = []model.Limit{
	{
		Path:      "cgl.each_occurrence",
		Category:  model.PolicyCGL,
		Field:     model.FieldEachOccurrence,
		Threshold: 2_000_000,
		Title:     "General Liability (Per Occurrence)",
	},
	{
		Path:      "cgl.general_aggregate",
		Category:  model.PolicyCGL,
		Field:     model.FieldGeneralAggregate,
		Threshold: 5_000_000,
		Title:     "General Liability (Aggregate)",
	},
	{
		Path:      "al.combined_single_limit",
		Category:  model.PolicyAL,
		Field:     model.FieldCombinedSingle,
		Threshold: 1_000_000,
		Title:     "Automobile Liability (Combined Single Limit)",
	},
	{
		Path:      "el.el_each_accident",
		Category:  model.PolicyEL,
		Field:     model.FieldELEachAccident,
		Threshold: 1_000_000,
		Title:     "Employers' Liability (Each Accident)",
	},
}

// DefaultMismatchTolerance is subtracted from a declared expiration before
// comparing it with the extracted one.
const DefaultMismatchTolerance = 12 * time.Hour

// Reason strings with fixed wording.
const (
	ReasonWorkersRequired = "Worker's Comp policy required."
	ReasonParsingError    = "Could not extract expiration dates from the certificate."
)

// Options tunes evaluation. The zero value uses the defaults.
type Options struct {
	Limits []model.Limit
	// MismatchTolerance overrides DefaultMismatchTolerance when set; an
	// explicit zero compares the dates exactly.
	MismatchTolerance *time.Duration
}

// Tolerance returns d as an Options.MismatchTolerance value.
func Tolerance(d time.Duration) *time.Duration {
	return &d
}

func (o Options) withDefaults() Options {
	if len(o.Limits) == 0 {
		o.Limits = DefaultLimits
	}
	if o.MismatchTolerance == nil || *o.MismatchTolerance < 0 {
		o.MismatchTolerance = Tolerance(DefaultMismatchTolerance)
	}
	return o
}

// Input is everything the evaluator needs for one document.
type Input struct {
	// Pooled combines every document of the trading partner and drives the
	// coverage-limit and workers' comp checks.
	Pooled model.TrellisCOI
	// Single combines this document's attachments only and drives the
	// staleness, mismatch and parsing-error checks.
	Single model.TrellisCOI
	// DeclaredExpiration is the expiration the submitter entered.
	DeclaredExpiration string
}

var printer = message.NewPrinter(language.English)

func money(v float64) string {
	return printer.Sprintf("$%d", int64(math.Round(v)))
}

// Evaluate applies the limit table to in and produces a verdict. It never
// fails; data problems surface as flags and reasons.
func Evaluate(in Input, now time.Time, opts Options) model.AssessmentResult {
	opts = opts.withDefaults()

	res := model.AssessmentResult{
		MinExpireDate: in.Single.ExpireDate,
		ParsingError:  in.Single.ExpireDate == "",
	}
	var reasons reasonList

	umbrella := umbrellaOffset(in.Pooled)

	allLimits := true
	for _, l := range opts.Limits {
		lr := evaluateLimit(l, in.Pooled, umbrella, now)
		res.Limits = append(res.Limits, lr)
		if lr.Passed {
			continue
		}
		allLimits = false
		if res.ParsingError {
			continue
		}
		if lr.Expired {
			reasons.add(expiredReason(l.Category, lr.ExpireDate))
		}
		if lr.Numeric && lr.Effective < l.Threshold {
			reasons.add(shortfallReason(lr, umbrella))
		}
	}

	wc := in.Pooled.WC
	res.WorkersPresent = wc != nil
	wcExpired := wc != nil && categoryExpired(wc, now)
	res.WorkersPassed = wc != nil && !wcExpired
	switch {
	case wc == nil && !res.ParsingError:
		reasons.add(ReasonWorkersRequired)
	case wcExpired:
		reasons.add(fmt.Sprintf("Worker's Comp policy is expired %s.", wc.ExpireDate))
	}

	stale := !res.ParsingError && isPast(in.Single.ExpireDate, now)
	if stale {
		reasons.add(fmt.Sprintf("Certificate expired %s.", in.Single.ExpireDate))
	}
	res.ExpiryMismatch = expiryMismatch(in.Single.ExpireDate, in.DeclaredExpiration, *opts.MismatchTolerance)
	if res.ExpiryMismatch {
		reasons.add(fmt.Sprintf("Declared expiration %s is later than the certificate expiration %s.",
			NormalizeDate(in.DeclaredExpiration), NormalizeDate(in.Single.ExpireDate)))
	}
	if res.ParsingError {
		reasons.add(ReasonParsingError)
	}
	res.ExpiryPassed = !res.ParsingError && !stale && !res.ExpiryMismatch

	res.Passed = allLimits && res.ExpiryPassed && res.WorkersPassed
	res.Reasons = reasons.list()
	switch {
	case res.Passed:
		res.Action = model.ActionApprove
	case res.ParsingError:
		res.Action = model.ActionIgnore
	default:
		res.Action = model.ActionReject
	}
	res.Message = strings.Join(res.Reasons, " ")
	return res
}

// umbrellaOffset is the active umbrella each-occurrence amount. It is added
// to every limit in the table, employers' liability included.
func umbrellaOffset(coi model.TrellisCOI) float64 {
	ul := coi.UL
	if ul == nil || !ul.Active || ul.EachOccurrence == nil {
		return 0
	}
	return ul.EachOccurrence.OrZero()
}

func evaluateLimit(l model.Limit, coi model.TrellisCOI, umbrella float64, now time.Time) model.LimitResult {
	lr := model.LimitResult{Limit: l, Numeric: true, UmbrellaApplied: umbrella > 0}

	cp := coi.Category(l.Category)
	if cp != nil {
		if a := cp.Field(l.Field); a != nil {
			lr.Numeric = a.Numeric()
			lr.Value = a.OrZero()
		}
		lr.ExpireDate = cp.ExpireDate
		lr.DateParseWarning = IsArtifactDate(cp.ExpireDate)
		lr.Expired = categoryExpired(cp, now)
	}
	lr.Effective = lr.Value + umbrella
	lr.Passed = lr.Effective >= l.Threshold && !lr.Expired
	return lr
}

// categoryExpired reports a hard expiration. Artifact dates never count; a
// category with no active policy always does.
func categoryExpired(cp *model.CombinedPolicy, now time.Time) bool {
	if IsArtifactDate(cp.ExpireDate) {
		return false
	}
	return !cp.Active || isPast(cp.ExpireDate, now)
}

// expiryMismatch reports whether the extracted expiration is earlier than
// the declared one, less tolerance.
func expiryMismatch(extracted, declared string, tolerance time.Duration) bool {
	ext, ok := ParseDate(extracted)
	if !ok {
		return false
	}
	dec, ok := ParseDate(declared)
	if !ok {
		return false
	}
	return ext.Before(dec.Add(-tolerance))
}

func expiredReason(t model.PolicyType, date string) string {
	if !UsableDate(date) {
		return fmt.Sprintf("%s policy expiration date could not be read", t.Name())
	}
	return fmt.Sprintf("%s policy expired %s", t.Name(), date)
}

func shortfallReason(lr model.LimitResult, umbrella float64) string {
	umb := "umbrella not counted"
	if umbrella > 0 {
		umb = "including " + money(umbrella) + " umbrella"
	}
	return fmt.Sprintf("%s of %s (%s) is below the required %s",
		lr.Limit.Title, money(lr.Effective), umb, money(lr.Limit.Threshold))
}

// reasonList keeps reasons in first-seen order without duplicates.
type reasonList struct {
	items []string
	seen  map[string]bool
}

func (r *reasonList) add(s string) {
	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	if r.seen[s] {
		return
	}
	r.seen[s] = true
	r.items = append(r.items, s)
}

func (r *reasonList) list() []string {
	if r.items == nil {
		return []string{}
	}
	return r.items
}
