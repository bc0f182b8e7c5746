package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// PolicyType identifies an insurance coverage category on a certificate.
type PolicyType string

const (
	PolicyCGL PolicyType = "cgl" // Commercial General Liability
	PolicyAL  PolicyType = "al"  // Automobile Liability
	PolicyEL  PolicyType = "el"  // Employers' Liability
	PolicyUL  PolicyType = "ul"  // Umbrella Liability
	PolicyWC  PolicyType = "wc"  // Workers' Compensation
)

// PolicyTypes lists every coverage category in report order.
var PolicyTypes = []PolicyType{PolicyCGL, PolicyAL, PolicyEL, PolicyUL, PolicyWC}

var policyTypeNames = map[PolicyType]string{
	PolicyCGL: "Commercial General Liability",
	PolicyAL:  "Automobile Liability",
	PolicyEL:  "Employers' Liability",
	PolicyUL:  "Umbrella Liability",
	PolicyWC:  "Workers' Compensation",
}

// Name returns the display name of the category.
func (t PolicyType) Name() string {
	if n, ok := policyTypeNames[t]; ok {
		return n
	}
	return string(t)
}

// Valid reports whether t is one of the known categories.
func (t PolicyType) Valid() bool {
	_, ok := policyTypeNames[t]
	return ok
}

// ParsePolicyType accepts a slug ("cgl") or a display name
// ("Commercial General Liability"), case-insensitively.
func ParsePolicyType(s string) (PolicyType, error) {
	s = strings.TrimSpace(s)
	for t, name := range policyTypeNames {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, name) {
			return t, nil
		}
	}
	switch strings.ToLower(s) {
	case "employers liability":
		return PolicyEL, nil
	case "workers compensation", "worker's compensation", "workers comp":
		return PolicyWC, nil
	case "excess liability", "umbrella", "excess":
		return PolicyUL, nil
	}
	return "", eris.Errorf("model: unknown policy type %q", s)
}

// UnmarshalText keeps an unrecognized type as its raw lowercase text so the
// policy still decodes; Valid reports false for it and combination skips it.
func (t *PolicyType) UnmarshalText(b []byte) error {
	pt, err := ParsePolicyType(string(b))
	if err != nil {
		*t = PolicyType(strings.ToLower(strings.TrimSpace(string(b))))
		return nil
	}
	*t = pt
	return nil
}

func (t *PolicyType) UnmarshalYAML(node *yaml.Node) error {
	return t.UnmarshalText([]byte(node.Value))
}

// Amount is a coverage limit as reported by the extractor. It decodes from
// numbers, numeric strings and currency strings; anything else becomes NaN.
type Amount float64

// ParseAmount parses "1000000", "$1,000,000" or "1,000,000.00".
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount(math.NaN())
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Amount(math.NaN())
	}
	return Amount(f)
}

// Numeric reports whether the amount holds a real number.
func (a Amount) Numeric() bool {
	return !math.IsNaN(float64(a))
}

// OrZero coerces NaN to 0.
func (a Amount) OrZero() float64 {
	if !a.Numeric() {
		return 0
	}
	return float64(a)
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = Amount(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*a = Amount(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*a = Amount(math.NaN())
		return nil
	}
	*a = ParseAmount(s)
	return nil
}

// MarshalJSON writes NaN as null since JSON has no representation for it.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Numeric() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(a))
}

func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	*a = ParseAmount(node.Value)
	return nil
}

// Policy is one insurance policy extracted from a certificate. Only the
// numeric fields belonging to Type are meaningful.
type Policy struct {
	Key               string     `json:"key,omitempty" yaml:"key,omitempty"`
	Type              PolicyType `json:"type" yaml:"type"`
	EffectiveDate     string     `json:"effective_date" yaml:"effective_date"`
	ExpireDate        string     `json:"expire_date" yaml:"expire_date"`
	EachOccurrence    *Amount    `json:"each_occurrence,omitempty" yaml:"each_occurrence,omitempty"`
	GeneralAggregate  *Amount    `json:"general_aggregate,omitempty" yaml:"general_aggregate,omitempty"`
	ProductsCompOpAgg *Amount    `json:"products_-_compop_agg,omitempty" yaml:"products_-_compop_agg,omitempty"`
	CombinedSingle    *Amount    `json:"combined_single_limit,omitempty" yaml:"combined_single_limit,omitempty"`
	ELEachAccident    *Amount    `json:"el_each_accident,omitempty" yaml:"el_each_accident,omitempty"`
}

// Field names used by limit paths.
const (
	FieldEachOccurrence    = "each_occurrence"
	FieldGeneralAggregate  = "general_aggregate"
	FieldProductsCompOpAgg = "products_-_compop_agg"
	FieldCombinedSingle    = "combined_single_limit"
	FieldELEachAccident    = "el_each_accident"
)

// Field returns the named numeric field, or nil if absent.
func (p Policy) Field(name string) *Amount {
	switch name {
	case FieldEachOccurrence:
		return p.EachOccurrence
	case FieldGeneralAggregate:
		return p.GeneralAggregate
	case FieldProductsCompOpAgg:
		return p.ProductsCompOpAgg
	case FieldCombinedSingle:
		return p.CombinedSingle
	case FieldELEachAccident:
		return p.ELEachAccident
	}
	return nil
}

// CombinedPolicy is the per-category synthesis of every contributing policy.
type CombinedPolicy struct {
	Policy
	// Active is false when every contributing policy was expired; the
	// numeric fields then come from a single representative policy.
	Active bool `json:"active"`
	// Count is the number of policies that contributed to the sums.
	Count int `json:"count"`
}

// TrellisCOI is the combined view of one document group.
type TrellisCOI struct {
	ID         string          `json:"id"`
	ExpireDate string          `json:"expire_date,omitempty"`
	CGL        *CombinedPolicy `json:"cgl,omitempty"`
	AL         *CombinedPolicy `json:"al,omitempty"`
	EL         *CombinedPolicy `json:"el,omitempty"`
	UL         *CombinedPolicy `json:"ul,omitempty"`
	WC         *CombinedPolicy `json:"wc,omitempty"`
}

// Category returns the combined record for t, or nil when absent.
func (c TrellisCOI) Category(t PolicyType) *CombinedPolicy {
	switch t {
	case PolicyCGL:
		return c.CGL
	case PolicyAL:
		return c.AL
	case PolicyEL:
		return c.EL
	case PolicyUL:
		return c.UL
	case PolicyWC:
		return c.WC
	}
	return nil
}

// SetCategory stores cp as the combined record for t.
func (c *TrellisCOI) SetCategory(t PolicyType, cp *CombinedPolicy) {
	switch t {
	case PolicyCGL:
		c.CGL = cp
	case PolicyAL:
		c.AL = cp
	case PolicyEL:
		c.EL = cp
	case PolicyUL:
		c.UL = cp
	case PolicyWC:
		c.WC = cp
	}
}
