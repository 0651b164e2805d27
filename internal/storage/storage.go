// Package storage defines persistence contracts for user and todo records.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/weekplan/internal/auth/user"
	"github.com/louisbranch/weekplan/internal/todo"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrConflict indicates a concurrent mutation won against this one.
	ErrConflict = errors.New("record was modified concurrently")
)

// UserStore persists user identity records.
//
// Email carries a unique index; CreateUser surfaces a duplicate email as
// ErrAlreadyExists so callers can fall back to a lookup.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) error
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	SetUserGoogleSubjectID(ctx context.Context, userID, subjectID string, updatedAt time.Time) error
}

// TodoStore persists todo items.
//
// Every read and write is scoped to one owner; an id owned by another user
// behaves as ErrNotFound. UpdateTodoItem applies the whole record only when
// the stored version still matches expectedVersion and reports a lost race
// as ErrConflict.
type TodoStore interface {
	CreateTodoItem(ctx context.Context, item todo.Item) error
	GetTodoItem(ctx context.Context, ownerID, itemID string) (todo.Item, error)
	ListActiveTodoItems(ctx context.Context, ownerID string, weekday *todo.Weekday) ([]todo.Item, error)
	ListResolvedTodoItems(ctx context.Context, ownerID string) ([]todo.Item, error)
	UpdateTodoItem(ctx context.Context, item todo.Item, expectedVersion int64) error
	DeleteTodoItem(ctx context.Context, ownerID, itemID string) error
}
