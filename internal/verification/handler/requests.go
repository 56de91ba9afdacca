package handler

import (
	"strings"

	"github.com/google/uuid"

	"mapproperties/internal/verification"
	dErrors "mapproperties/pkg/domain-errors"
)

// UploadRequest carries the form fields of POST /verification/upload.
type UploadRequest struct {
	DocType  string `json:"doc_type" validate:"required,max=16"`
	IDNumber string `json:"id_number" validate:"max=32"`
	Image    []byte `json:"-"`

	PropertyID uuid.UUID `json:"-"`
}

// Normalize trims form values. Document types are matched upper-case.
func (r *UploadRequest) Normalize() {
	if r == nil {
		return
	}
	r.DocType = strings.ToUpper(strings.TrimSpace(r.DocType))
	r.IDNumber = strings.TrimSpace(r.IDNumber)
}

// Validate checks the parts DecodeAndPrepare cannot: a multipart upload has no JSON body.
func (r *UploadRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Image) == 0 {
		return dErrors.New(dErrors.CodeValidation, "file is required")
	}
	return nil
}

// ToDocument builds the domain submission.
func (r *UploadRequest) ToDocument() verification.IdentityDocument {
	return verification.IdentityDocument{
		DocType:  verification.DocumentType(r.DocType),
		IDNumber: r.IDNumber,
		Image:    r.Image,
	}
}
