package compliance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coi-cli/internal/model"
)

// ErrNoExpirationDates means validation could not run because no usable
// expiration date was extracted. It is distinct from a failed validation.
var ErrNoExpirationDates = eris.New("compliance: could not extract expiration dates")

// ValidateExpiration compares a document's declared expiration with the
// earliest usable expiration extracted from its attachments. Dates are
// compared as YYYY-MM-DD strings. The returned Decision has an empty message
// on success.
func ValidateExpiration(attachments []model.Attachment, declared string, today time.Time) (model.Decision, error) {
	extracted := minUsableExpiration(collect(attachments))
	if extracted == "" {
		return model.Decision{}, ErrNoExpirationDates
	}

	ext := NormalizeDate(extracted)
	day := today.Format("2006-01-02")

	// A declared date that does not parse is treated as not declared, the
	// same way Evaluate skips it for the mismatch flag.
	var dec string
	if d, ok := ParseDate(declared); ok {
		dec = d.Format("2006-01-02")
	}

	var problems []string
	if dec != "" && dec > ext {
		problems = append(problems, fmt.Sprintf(
			"Declared expiration %s does not match the certificate expiration %s.", dec, ext))
	}
	if ext <= day {
		problems = append(problems, fmt.Sprintf("Certificate expired %s.", ext))
	}

	if len(problems) > 0 {
		return model.Decision{Status: false, Message: strings.Join(problems, " ")}, nil
	}
	return model.Decision{Status: true}, nil
}

// ValidateDocument runs ValidateExpiration against the document's own
// declared expiration.
func ValidateDocument(doc model.Document, today time.Time) (model.Decision, error) {
	return ValidateExpiration(doc.Attachments, doc.ExpireDate, today)
}

// Decide folds a validation error into a failed Decision so callers on the
// live-approval path always have something to post.
func Decide(d model.Decision, err error) model.Decision {
	if err == nil {
		return d
	}
	if errors.Is(err, ErrNoExpirationDates) {
		return model.Decision{Status: false, Message: ReasonParsingError}
	}
	return model.Decision{Status: false, Message: err.Error()}
}
