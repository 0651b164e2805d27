// Package directory resolves verified identity claims to internal user records.
package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/weekplan/internal/auth/identity"
	"github.com/louisbranch/weekplan/internal/auth/user"
	apperrors "github.com/louisbranch/weekplan/internal/platform/errors"
	"github.com/louisbranch/weekplan/internal/platform/id"
	"github.com/louisbranch/weekplan/internal/storage"
)

// Directory provisions user records from verified identity claims.
type Directory struct {
	users storage.UserStore
	clock func() time.Time
	newID func() (string, error)
}

// New creates a directory over a user store.
func New(users storage.UserStore) *Directory {
	return &Directory{
		users: users,
		clock: time.Now,
		newID: id.NewID,
	}
}

// ResolveOrCreate maps a verified claim to an internal user, creating the
// record on first sight.
//
// An established account keeps its stored name and email even when the
// claim disagrees: external providers must not silently rename users. The
// external subject id is backfilled exactly once when absent.
func (d *Directory) ResolveOrCreate(ctx context.Context, claim identity.Claim) (user.User, error) {
	existing, err := d.users.GetUserByEmail(ctx, claim.Email)
	switch {
	case err == nil:
		if existing.GoogleSubjectID != "" || claim.SubjectID == "" {
			return existing, nil
		}
		updatedAt := d.clock().UTC()
		if err := d.users.SetUserGoogleSubjectID(ctx, existing.ID, claim.SubjectID, updatedAt); err != nil {
			return user.User{}, fmt.Errorf("backfill subject id: %w", err)
		}
		existing.GoogleSubjectID = claim.SubjectID
		existing.UpdatedAt = updatedAt
		return existing, nil

	case errors.Is(err, storage.ErrNotFound):
		created, err := user.CreateUser(user.CreateUserInput{
			Email:           claim.Email,
			Name:            claim.Name,
			GoogleSubjectID: claim.SubjectID,
		}, d.clock, d.newID)
		if err != nil {
			return user.User{}, err
		}
		err = d.users.CreateUser(ctx, created)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, storage.ErrAlreadyExists) {
			return user.User{}, fmt.Errorf("create user: %w", err)
		}
		// Lost a concurrent first-login race; the unique email index is the
		// backstop, so re-read the surviving record.
		winner, lookupErr := d.users.GetUserByEmail(ctx, claim.Email)
		if lookupErr != nil {
			return user.User{}, apperrors.Wrap(apperrors.CodeConflict, "user provisioning conflict", lookupErr)
		}
		return winner, nil

	default:
		return user.User{}, fmt.Errorf("lookup user: %w", err)
	}
}
