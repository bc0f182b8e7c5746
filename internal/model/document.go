package model

// Partner is the trading partner (supplier) that submitted a document.
type Partner struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Attachment is one file on a source document together with its extraction
// outcome. Exactly one of Policies or Error is set once extraction has run;
// Path names a PDF or ZIP still waiting for extraction.
type Attachment struct {
	ID       string            `json:"id" yaml:"id"`
	Name     string            `json:"name,omitempty" yaml:"name,omitempty"`
	Path     string            `json:"path,omitempty" yaml:"path,omitempty"`
	Policies map[string]Policy `json:"policies,omitempty" yaml:"policies,omitempty"`
	Error    string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether extraction failed for this attachment.
func (a Attachment) Failed() bool {
	return a.Error != ""
}

// Pending reports whether the attachment still needs extraction.
func (a Attachment) Pending() bool {
	return a.Path != "" && a.Policies == nil && a.Error == ""
}

// Document is a certificate of insurance submitted through the portal.
type Document struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Partner     Partner      `json:"partner" yaml:"partner"`
	SubmittedBy string       `json:"submitted_by,omitempty" yaml:"submitted_by,omitempty"`
	ExpireDate  string       `json:"expire_date,omitempty" yaml:"expire_date,omitempty"`
	Comments    string       `json:"comments,omitempty" yaml:"comments,omitempty"`
	Link        string       `json:"link,omitempty" yaml:"link,omitempty"`
	Attachments []Attachment `json:"attachments" yaml:"attachments"`
}

// PartnerKey returns the id used to pool documents; documents without a
// partner stand alone.
func (d Document) PartnerKey() string {
	if d.Partner.ID != "" {
		return d.Partner.ID
	}
	return "doc:" + d.ID
}

// ExtractionErrors returns the error strings of failed attachments.
func (d Document) ExtractionErrors() []string {
	var errs []string
	for _, a := range d.Attachments {
		if a.Failed() {
			errs = append(errs, a.Error)
		}
	}
	return errs
}
