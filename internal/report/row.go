// Package report maps assessments to flat rows of named cells and renders
// them as a spreadsheet.
package report

import (
	"fmt"
	"strings"

	"github.com/sells-group/coi-cli/internal/model"
)

// ConfirmDatesNote marks values whose policy dates came back as artifacts.
const ConfirmDatesNote = "(Confirm Effective Dates)"

// Column names that are not derived from the limit table.
const (
	ColPartner          = "Trading Partner"
	ColDocument         = "Document"
	ColSubmittedBy      = "Submitted By"
	ColDeclared         = "Declared Expiration"
	ColExtracted        = "Extracted Expiration"
	ColUmbrella         = "Umbrella Each Occurrence"
	ColWorkers          = "Worker's Comp"
	ColMismatch         = "Expiry Mismatch"
	ColParsingError     = "Parsing Error"
	ColExtractionErrors = "Extraction Errors"
	ColAction           = "Action"
	ColReasons          = "Reasons"
	ColComments         = "Comments"
	ColAssessedAt       = "Assessed At"
)

// Cell is one named value in a row. Pass and Warn are nil when the cell has
// no verdict to highlight.
type Cell struct {
	Name      string `json:"name"`
	Value     any    `json:"value"`
	Pass      *bool  `json:"pass,omitempty"`
	Warn      *bool  `json:"warn,omitempty"`
	Hyperlink string `json:"hyperlink,omitempty"`
}

// Failing reports whether the cell should be highlighted as a failure.
func (c Cell) Failing() bool {
	return c.Pass != nil && !*c.Pass
}

// Warning reports whether the cell should be highlighted as a warning.
func (c Cell) Warning() bool {
	return c.Warn != nil && *c.Warn
}

// Row is an ordered list of cells for one document.
type Row []Cell

// Get returns the cell with the given name.
func (r Row) Get(name string) (Cell, bool) {
	for _, c := range r {
		if c.Name == name {
			return c, true
		}
	}
	return Cell{}, false
}

// Names returns the cell names in order.
func (r Row) Names() []string {
	names := make([]string, len(r))
	for i, c := range r {
		names[i] = c.Name
	}
	return names
}

// RowOptions controls link rendering.
type RowOptions struct {
	// DocumentURL is a format string with one %s for the document id, used
	// when the document carries no link of its own.
	DocumentURL string
}

func flag(b bool) *bool { return &b }

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// BuildRow maps an assessment to a row. It is deterministic and has no side
// effects. A parsing error suppresses per-cell failure highlighting since
// the parsing-error cell already explains the gap.
func BuildRow(a model.Assessment, opts RowOptions) Row {
	res := a.Result
	doc := a.Document
	highlight := func(passed bool) *bool {
		if res.ParsingError {
			return nil
		}
		return flag(passed)
	}

	link := doc.Link
	if link == "" && opts.DocumentURL != "" && doc.ID != "" {
		link = fmt.Sprintf(opts.DocumentURL, doc.ID)
	}
	name := doc.Name
	if name == "" {
		name = doc.ID
	}

	row := Row{
		{Name: ColPartner, Value: doc.Partner.Name},
		{Name: ColDocument, Value: name, Hyperlink: link},
		{Name: ColSubmittedBy, Value: doc.SubmittedBy},
	}

	declared := Cell{Name: ColDeclared, Value: doc.ExpireDate}
	if doc.ExpireDate != "" {
		declared.Pass = highlight(!res.ExpiryMismatch)
	}
	row = append(row, declared,
		Cell{Name: ColExtracted, Value: res.MinExpireDate, Pass: highlight(res.ExpiryPassed)})

	for _, lr := range res.Limits {
		c := Cell{Name: lr.Limit.Title, Pass: highlight(lr.Passed)}
		switch {
		case !lr.Numeric:
			c.Value = ""
		case lr.DateParseWarning:
			c.Value = fmt.Sprintf("%.0f %s", lr.Value, ConfirmDatesNote)
		default:
			c.Value = lr.Value
		}
		if lr.DateParseWarning {
			c.Warn = flag(true)
		}
		row = append(row, c)
	}

	umb := Cell{Name: ColUmbrella, Value: ""}
	if ul := a.Pooled.UL; ul != nil && ul.Active && ul.EachOccurrence != nil {
		umb.Value = ul.EachOccurrence.OrZero()
	}

	workers := "No"
	switch {
	case res.WorkersPassed:
		workers = "Yes"
	case res.WorkersPresent:
		workers = "Expired"
	}

	row = append(row,
		umb,
		Cell{Name: ColWorkers, Value: workers, Pass: highlight(res.WorkersPassed)},
		Cell{Name: ColMismatch, Value: yesNo(res.ExpiryMismatch), Pass: highlight(!res.ExpiryMismatch)},
		Cell{Name: ColParsingError, Value: yesNo(res.ParsingError), Warn: flag(res.ParsingError)},
		Cell{Name: ColExtractionErrors, Value: strings.Join(a.ExtractionErrors, "; ")},
		Cell{Name: ColAction, Value: string(res.Action), Pass: highlight(res.Action == model.ActionApprove), Warn: flag(res.Action == model.ActionIgnore)},
		Cell{Name: ColReasons, Value: res.Message},
		Cell{Name: ColComments, Value: doc.Comments},
	)

	assessed := ""
	if !a.AssessedAt.IsZero() {
		assessed = a.AssessedAt.UTC().Format("2006-01-02")
	}
	return append(row, Cell{Name: ColAssessedAt, Value: assessed})
}

// BuildRows maps every assessment in order.
func BuildRows(as []model.Assessment, opts RowOptions) []Row {
	rows := make([]Row, 0, len(as))
	for _, a := range as {
		rows = append(rows, BuildRow(a, opts))
	}
	return rows
}
