package verification

import "fmt"

// MinAcceptableScore is the lowest quality score that can be approved.
const MinAcceptableScore = 50

// Policy turns analyzer signals into a Decision. It is a pure value and safe
// for concurrent use.
type Policy struct {
	reviewBelow int
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// WithReviewBelow routes scores in [MinAcceptableScore, n) to NEEDS_REVIEW
// instead of approving them. Values at or below MinAcceptableScore disable the band.
func WithReviewBelow(n int) PolicyOption {
	return func(p *Policy) {
		p.reviewBelow = n
	}
}

// NewPolicy builds a policy. Without options NEEDS_REVIEW is never produced.
func NewPolicy(opts ...PolicyOption) Policy {
	var p Policy
	for _, opt := range opts {
		if opt != nil {
			opt(&p)
		}
	}
	return p
}

// Decide applies the rule chain (fail-fast):
//  1. quality below MinAcceptableScore rejects
//  2. a malformed ID number rejects
//  3. an optional review band holds borderline scores
//  4. everything else is approved
func (p Policy) Decide(q QualityResult, docType DocumentType, formatValid bool) Decision {
	if q.Score < MinAcceptableScore {
		return Decision{
			Status:  StatusRejected,
			Reason:  ReasonLowImageQuality,
			Message: "Image Quality too low. " + q.Details,
		}
	}
	if !formatValid {
		return Decision{
			Status:  StatusRejected,
			Reason:  ReasonInvalidIDFormat,
			Message: fmt.Sprintf("Invalid %s Number Format.", docType),
		}
	}
	if q.Score < p.reviewBelow {
		return Decision{
			Status:  StatusNeedsReview,
			Reason:  ReasonBorderlineQuality,
			Message: "Image quality is borderline. " + q.Details,
		}
	}
	return Decision{Status: StatusApproved}
}

// UnreadableImage is the terminal decision for a buffer that failed to decode.
func UnreadableImage(err error) Decision {
	return Decision{
		Status:  StatusRejected,
		Reason:  ReasonUnreadableImage,
		Message: "Image could not be read. " + err.Error(),
	}
}

// UnsupportedDocument is the terminal decision for a document type outside the closed set.
func UnsupportedDocument(docType DocumentType) Decision {
	return Decision{
		Status:  StatusRejected,
		Reason:  ReasonUnsupportedType,
		Message: fmt.Sprintf("Unsupported document type %q.", string(docType)),
	}
}
