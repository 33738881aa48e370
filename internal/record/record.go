// Package record defines the per-target record and its terminal status.
package record

import "strings"

// Unavailable is the sentinel stored when a stage could not produce
// content. Stages degrade to it instead of aborting the record, and it
// is never replaced by a blank value.
const Unavailable = "Not Available"

// Skip/error reasons. Every terminal status carries exactly one.
const (
	ReasonDirective          = "directive"
	ReasonBadAddress         = "bad-address"
	ReasonDuplicate          = "duplicate"
	ReasonInsufficientAssets = "insufficient-assets"
	ReasonDraftFailed        = "draft-failed"
	ReasonFilingFailed       = "filing-failed"
)

type StatusKind int

const (
	StatusNone StatusKind = iota
	StatusSkipped
	StatusError
	StatusSuccess
)

func (k StatusKind) String() string {
	switch k {
	case StatusSkipped:
		return "skipped"
	case StatusError:
		return "error"
	case StatusSuccess:
		return "success"
	default:
		return ""
	}
}

// Status is the tagged outcome of one record. Exactly one of Reason
// (Skipped/Error) or DraftID (Success) is meaningful.
type Status struct {
	Kind    StatusKind
	Reason  string
	DraftID string
}

func Skipped(reason string) Status { return Status{Kind: StatusSkipped, Reason: reason} }
func Errored(reason string) Status { return Status{Kind: StatusError, Reason: reason} }
func Success(draftID string) Status {
	return Status{Kind: StatusSuccess, DraftID: draftID}
}

func (s Status) Terminal() bool { return s.Kind != StatusNone }

func (s Status) String() string {
	switch s.Kind {
	case StatusSkipped:
		return "skipped: " + s.Reason
	case StatusError:
		return "error: " + s.Reason
	case StatusSuccess:
		return "success: draft " + s.DraftID
	default:
		return "unprocessed"
	}
}

// Outcome is the strictly-grown bag of stage results. Stages only
// ever add fields; nothing is cleared once set.
type Outcome struct {
	MainBusiness      string
	CooperationPoints string
	Subject           string
	Body              string
	Status            Status
}

// Record is one outreach target, built fresh each batch from the
// source sheet and alive only for that batch.
type Record struct {
	CompanyName string
	Recipient   string
	Website     string
	Contact     string

	// Directive is the raw "process" cell; only an affirmative value
	// lets the record past validation.
	Directive string

	// Locale optionally pins the letter language for this record.
	Locale string

	Outcome Outcome
}

// ShouldProcess reports whether the process directive affirms this
// record (literal "yes", case-insensitive, trimmed).
func (r *Record) ShouldProcess() bool {
	return strings.EqualFold(strings.TrimSpace(r.Directive), "yes")
}

// ValidRecipient reports whether the recipient address has the minimal
// shape we insist on: an "@" with a "." somewhere after it.
func (r *Record) ValidRecipient() bool {
	at := strings.Index(r.Recipient, "@")
	if at < 0 {
		return false
	}
	return strings.Contains(r.Recipient[at+1:], ".")
}

// DedupeKey returns the normalized recipient address used for
// duplicate suppression across batches.
func (r *Record) DedupeKey() string {
	return NormalizeKey(r.Recipient)
}

// NormalizeKey trims and case-folds a recipient address.
func NormalizeKey(recipient string) string {
	return strings.ToLower(strings.TrimSpace(recipient))
}

// ContactOrCompany returns the contact person, falling back to the
// company name when the sheet left the contact empty.
func (r *Record) ContactOrCompany() string {
	if strings.TrimSpace(r.Contact) != "" {
		return r.Contact
	}
	return r.CompanyName
}

// ResolveLocale returns the pinned locale, else the caller's default.
func (r *Record) ResolveLocale(fallback string) string {
	if strings.TrimSpace(r.Locale) != "" {
		return r.Locale
	}
	return fallback
}
