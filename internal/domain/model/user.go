package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/ImmigreatAI/Course-site-sub000/internal/domain"
)

// User is the local projection of the identity provider's user, keyed by the
// provider's immutable id. LearnworldsID is filled once the learning-platform
// account exists.
type User struct {
	ID            string
	ProviderID    string
	Email         string
	FullName      string
	LearnworldsID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewUser(providerID, email, fullName string) (*User, error) {
	if providerID == "" || email == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:         uuid.NewString(),
		ProviderID: providerID,
		Email:      email,
		FullName:   fullName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.UpdatedAt = time.Now() }
