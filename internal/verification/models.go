package verification

import (
	"fmt"
	"strings"
	"time"

	dErrors "mapproperties/pkg/domain-errors"
)

// Status is the verification state attached to a property or a submitted document.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	// StatusNeedsReview is only produced by a policy configured with a review band.
	StatusNeedsReview Status = "NEEDS_REVIEW"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected, StatusNeedsReview:
		return st, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown verification status %q", s))
	}
}

// DocumentType names the kind of identity document submitted.
type DocumentType string

const (
	DocumentAadhaar DocumentType = "AADHAAR"
	DocumentPAN     DocumentType = "PAN"
	DocumentSelfie  DocumentType = "SELFIE"
)

// Supported reports whether the type belongs to the closed set this service scores.
func (d DocumentType) Supported() bool {
	switch d {
	case DocumentAadhaar, DocumentPAN, DocumentSelfie:
		return true
	}
	return false
}

// Reason is a machine-readable cause attached to a non-approved decision.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonLowImageQuality   Reason = "low_image_quality"
	ReasonInvalidIDFormat   Reason = "invalid_id_format"
	ReasonUnreadableImage   Reason = "unreadable_image"
	ReasonUnsupportedType   Reason = "unsupported_document_type"
	ReasonBorderlineQuality Reason = "borderline_quality"
)

// QualityResult holds the image statistics of a single submission.
type QualityResult struct {
	Score      int
	IsBlurry   bool
	IsDark     bool
	Brightness float64
	Detail     float64
	Details    string
}

// IdentityDocument is one submission: a typed ID number plus a photo of the document.
// The raw IDNumber must never be logged; use ObscureID.
type IdentityDocument struct {
	DocType  DocumentType
	IDNumber string
	Image    []byte
}

// Decision is the policy output for one submission.
type Decision struct {
	Status  Status
	Reason  Reason
	Message string
}

// Result is the full, serializable outcome of Verify.
type Result struct {
	DocType      DocumentType
	MaskedID     string
	Score        int
	Quality      QualityResult
	QualityError string
	FormatValid  bool
	Status       Status
	Reason       Reason
	Message      string
	EvaluatedAt  time.Time
}
