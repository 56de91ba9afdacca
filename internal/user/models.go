package user

import (
	"time"

	"github.com/google/uuid"

	textutil "mapproperties/pkg/platform/strings"
)

// User is a marketplace account. AadhaarHash is a bcrypt hash, never the raw number.
type User struct {
	ID          uuid.UUID
	Email       string
	FullName    string
	IsVerified  bool
	AadhaarHash string
	CreatedAt   time.Time
}

// NormalizeEmail lower-cases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return textutil.Fold(email)
}
