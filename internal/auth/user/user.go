// Package user provides account records and provisioning for authenticated identities.
package user

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/weekplan/internal/platform/errors"
	"github.com/louisbranch/weekplan/internal/platform/id"
)

// ErrEmptyEmail indicates a missing email address.
var ErrEmptyEmail = apperrors.New(apperrors.CodeAuthInvalidToken, "email is required")

// User represents an authenticated identity record.
//
// Email is the natural key for identity resolution: exactly one user exists
// per email. GoogleSubjectID is set on first sight of the external subject
// and never overwritten once present.
type User struct {
	ID              string
	Email           string
	Name            string
	GoogleSubjectID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateUserInput describes the metadata needed to create a user.
type CreateUserInput struct {
	Email           string
	Name            string
	GoogleSubjectID string
}

// CreateUser creates a durable user identity from a verified identity claim.
//
// This is the canonical point where externally asserted attributes become a
// stable internal identity used by the session issuer and the todo service.
func CreateUser(input CreateUserInput, now func() time.Time, idGenerator func() (string, error)) (User, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.Email = strings.TrimSpace(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	input.GoogleSubjectID = strings.TrimSpace(input.GoogleSubjectID)
	if input.Email == "" {
		return User{}, ErrEmptyEmail
	}

	userID, err := idGenerator()
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}

	createdAt := now().UTC()
	return User{
		ID:              userID,
		Email:           input.Email,
		Name:            input.Name,
		GoogleSubjectID: input.GoogleSubjectID,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}, nil
}
