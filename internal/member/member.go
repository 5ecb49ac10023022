package member

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("member not found")
	ErrEmailTaken = errors.New("email already registered")
	ErrInUse      = errors.New("member is referenced by loans or fines")
)

// Member is a registered library patron. Email is unique across
// members.
type Member struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
