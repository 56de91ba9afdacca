package verification

import (
	"errors"
	"regexp"
	"strings"
)

// ErrUnsupportedDocumentType is returned for document types outside the closed set.
var ErrUnsupportedDocumentType = errors.New("unsupported document type")

var (
	// 12 digits, never starting with 0 or 1.
	aadhaarPattern = regexp.MustCompile(`^[2-9][0-9]{11}$`)
	// 5 letters, 4 digits, 1 letter (e.g. ABCDE1234F).
	panPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

const maskToken = "****"

// ValidateIDFormat checks id against the fixed pattern for docType. The whole
// string must match. Selfies carry no number and always pass.
func ValidateIDFormat(docType DocumentType, id string) (bool, error) {
	switch docType {
	case DocumentAadhaar:
		return aadhaarPattern.MatchString(id), nil
	case DocumentPAN:
		return panPattern.MatchString(id), nil
	case DocumentSelfie:
		return true, nil
	default:
		return false, ErrUnsupportedDocumentType
	}
}

// ObscureID masks every character but the last four, preserving length.
// IDs shorter than four characters collapse to a fixed mask so their length
// is not revealed.
func ObscureID(id string) string {
	runes := []rune(id)
	if len(runes) < 4 {
		return maskToken
	}
	return strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-4:])
}
