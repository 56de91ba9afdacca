package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors.
//
//   - ErrNotFound: entity does not exist in the store
//   - ErrConflict: entity already exists
//   - ErrExpired: a time-boxed record (OTP challenge) has lapsed
//
// Validation failures belong in pkg/domain-errors, not here.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrExpired  = errors.New("expired")
)
