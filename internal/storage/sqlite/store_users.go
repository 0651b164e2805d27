package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/weekplan/internal/auth/user"
	"github.com/louisbranch/weekplan/internal/storage"
)

// CreateUser inserts one user record.
func (s *Store) CreateUser(ctx context.Context, u user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID := strings.TrimSpace(u.ID)
	email := strings.TrimSpace(u.Email)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}
	createdAt := u.CreatedAt.UTC()
	updatedAt := u.UpdatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO users (
		   id,
		   email,
		   name,
		   google_subject_id,
		   created_at,
		   updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?)`,
		userID,
		email,
		strings.TrimSpace(u.Name),
		strings.TrimSpace(u.GoogleSubjectID),
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByEmail returns one user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	if err := ctx.Err(); err != nil {
		return user.User{}, err
	}
	if s == nil || s.sqlDB == nil {
		return user.User{}, fmt.Errorf("storage is not configured")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return user.User{}, fmt.Errorf("email is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, email, name, google_subject_id, created_at, updated_at
		   FROM users
		  WHERE email = ?`,
		email,
	)

	var u user.User
	var createdAt int64
	var updatedAt int64
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.GoogleSubjectID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, storage.ErrNotFound
		}
		return user.User{}, fmt.Errorf("get user by email: %w", err)
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

// SetUserGoogleSubjectID backfills the external subject id on a user record.
// A record whose subject id is already set is left untouched.
func (s *Store) SetUserGoogleSubjectID(ctx context.Context, userID, subjectID string, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	subjectID = strings.TrimSpace(subjectID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if subjectID == "" {
		return fmt.Errorf("subject id is required")
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE users
		    SET google_subject_id = ?, updated_at = ?
		  WHERE id = ? AND google_subject_id = ''`,
		subjectID,
		toMillis(updatedAt),
		userID,
	)
	if err != nil {
		return fmt.Errorf("set user google subject id: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set user google subject id: %w", err)
	}
	if affected == 0 {
		// Either the user is missing or the subject id is already bound.
		var found int
		row := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID)
		if scanErr := row.Scan(&found); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("set user google subject id: %w", scanErr)
		}
	}
	return nil
}
