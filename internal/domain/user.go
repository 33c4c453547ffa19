package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a cook or a customer. Credentials live outside this system.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=100"`
	Email     string    `json:"email" validate:"required,email"`
	Role      Role      `json:"role" validate:"oneof=cook customer"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUser(name, email string, role Role, now time.Time) (*User, error) {
	u := &User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Role:      role,
		CreatedAt: now,
	}
	if err := validateStruct(u); err != nil {
		return nil, err
	}
	return u, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
