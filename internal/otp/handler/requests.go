package handler

import "strings"

// SendRequest is the body of POST /verification/send-aadhaar-otp.
type SendRequest struct {
	AadhaarNumber string `json:"aadhaar_number" validate:"required"`
}

func (r *SendRequest) Validate() error {
	r.AadhaarNumber = strings.TrimSpace(r.AadhaarNumber)
	return nil
}

// VerifyRequest is the body of POST /verification/verify-aadhaar-otp.
type VerifyRequest struct {
	AadhaarNumber string `json:"aadhaar_number" validate:"required"`
	OTP           string `json:"otp" validate:"required,max=8"`
}

func (r *VerifyRequest) Validate() error {
	r.AadhaarNumber = strings.TrimSpace(r.AadhaarNumber)
	r.OTP = strings.TrimSpace(r.OTP)
	return nil
}

// SendResponse mirrors the challenge acknowledgement.
type SendResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	DevHint string `json:"dev_hint,omitempty"`
}

// VerifyResponse carries the token a client attaches to later submissions.
type VerifyResponse struct {
	Status            string `json:"status"`
	Message           string `json:"message"`
	VerificationToken string `json:"verification_token"`
}
