package handler

import (
	"time"

	"mapproperties/internal/verification"
)

// UploadResponse is the HTTP response for POST /verification/upload.
type UploadResponse struct {
	DocType         string                 `json:"doc_type"`
	MaskedID        string                 `json:"masked_id"`
	AIScore         int                    `json:"ai_score"`
	QualityDetails  QualityDetailsResponse `json:"quality_details"`
	FormatValid     bool                   `json:"format_valid"`
	Status          string                 `json:"status"`
	Reason          string                 `json:"reason,omitempty"`
	RejectionReason *string                `json:"rejection_reason"`
	EvaluatedAt     time.Time              `json:"evaluated_at"`
}

// QualityDetailsResponse mirrors the analyzer output. Unreadable images
// carry only a zero score and the decode error.
type QualityDetailsResponse struct {
	Score    int    `json:"score"`
	IsBlurry *bool  `json:"is_blurry,omitempty"`
	IsDark   *bool  `json:"is_dark,omitempty"`
	Details  string `json:"details,omitempty"`
	Error    string `json:"error,omitempty"`
}

// FromResult converts a verification result into the upload response.
func FromResult(result *verification.Result) *UploadResponse {
	resp := &UploadResponse{
		DocType:     string(result.DocType),
		MaskedID:    result.MaskedID,
		AIScore:     result.Score,
		FormatValid: result.FormatValid,
		Status:      string(result.Status),
		Reason:      string(result.Reason),
		EvaluatedAt: result.EvaluatedAt,
	}
	if result.Message != "" && result.Status != verification.StatusApproved {
		msg := result.Message
		resp.RejectionReason = &msg
	}

	if result.QualityError != "" {
		resp.QualityDetails = QualityDetailsResponse{Error: result.QualityError}
		return resp
	}
	blurry, dark := result.Quality.IsBlurry, result.Quality.IsDark
	resp.QualityDetails = QualityDetailsResponse{
		Score:    result.Quality.Score,
		IsBlurry: &blurry,
		IsDark:   &dark,
		Details:  result.Quality.Details,
	}
	return resp
}
