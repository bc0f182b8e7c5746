package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Limit is a required-coverage rule evaluated against a TrellisCOI.
type Limit struct {
	Path      string     `json:"path"`
	Category  PolicyType `json:"category"`
	Field     string     `json:"field"`
	Threshold float64    `json:"threshold"`
	Title     string     `json:"title"`
}

// Action is the recommended disposition for a document.
type Action string

const (
	ActionApprove Action = "Approve"
	ActionReject  Action = "Reject"
	ActionIgnore  Action = "Ignore"
)

// Actions lists every disposition.
var Actions = []Action{ActionApprove, ActionReject, ActionIgnore}

// ParseAction matches s against the known actions case-insensitively.
func ParseAction(s string) (Action, error) {
	s = strings.TrimSpace(s)
	for _, a := range Actions {
		if strings.EqualFold(s, string(a)) {
			return a, nil
		}
	}
	return "", eris.Errorf("model: unknown action %q", s)
}

// Canonical returns the known spelling of a, or a unchanged when it is not
// a known action.
func (a Action) Canonical() Action {
	if c, err := ParseAction(string(a)); err == nil {
		return c
	}
	return a
}

// LimitResult is the outcome of one Limit.
type LimitResult struct {
	Limit Limit `json:"limit"`
	// Value is the combined category value before the umbrella offset.
	Value float64 `json:"value"`
	// Numeric is false when the extracted value could not be read as a number.
	Numeric bool `json:"numeric"`
	// Effective is Value plus the umbrella offset.
	Effective        float64 `json:"effective"`
	UmbrellaApplied  bool    `json:"umbrella_applied"`
	ExpireDate       string  `json:"expire_date,omitempty"`
	Expired          bool    `json:"expired"`
	Passed           bool    `json:"passed"`
	DateParseWarning bool    `json:"date_parse_warning"`
}

// AssessmentResult is the compliance verdict for one document.
type AssessmentResult struct {
	Passed         bool          `json:"passed"`
	Reasons        []string      `json:"reasons"`
	Limits         []LimitResult `json:"limits"`
	MinExpireDate  string        `json:"min_expire_date,omitempty"`
	ExpiryPassed   bool          `json:"expiry_passed"`
	ExpiryMismatch bool          `json:"expiry_mismatch"`
	WorkersPresent bool          `json:"workers_present"`
	WorkersPassed  bool          `json:"workers_passed"`
	ParsingError   bool          `json:"parsing_error"`
	Action         Action        `json:"action"`
	Message        string        `json:"message,omitempty"`
}

// Assessment pairs a result with the document it was computed for.
type Assessment struct {
	ID               string           `json:"id"`
	Document         Document         `json:"document"`
	Pooled           TrellisCOI       `json:"pooled"`
	Single           TrellisCOI       `json:"single"`
	Result           AssessmentResult `json:"result"`
	ExtractionErrors []string         `json:"extraction_errors,omitempty"`
	AssessedAt       time.Time        `json:"assessed_at"`
}

// Decision is the outcome sent to the portal on the live-approval path.
type Decision struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}
