package favorite

import (
	"time"

	"github.com/google/uuid"
)

// Favorite links a user to a saved listing. A pair is stored at most once.
type Favorite struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	PropertyID uuid.UUID
	CreatedAt  time.Time
}
