package entity

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered upload owner for data transfer between layers.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
