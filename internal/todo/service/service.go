// Package service coordinates todo item lifecycle over persistent storage.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/weekplan/internal/platform/errors"
	"github.com/louisbranch/weekplan/internal/platform/id"
	"github.com/louisbranch/weekplan/internal/storage"
	"github.com/louisbranch/weekplan/internal/todo"
)

// Service manages the lifecycle of todo items for their owners.
type Service struct {
	store storage.TodoStore
	clock func() time.Time
	newID func() (string, error)
}

// New creates a todo service over a store.
func New(store storage.TodoStore) *Service {
	return &Service{
		store: store,
		clock: time.Now,
		newID: id.NewID,
	}
}

// Create persists a new active item for the owner.
func (s *Service) Create(ctx context.Context, ownerID string, fields todo.Fields) (todo.Item, error) {
	item, err := todo.NewItem(ownerID, fields, s.clock, s.newID)
	if err != nil {
		return todo.Item{}, err
	}
	item.Version = 1
	if err := s.store.CreateTodoItem(ctx, item); err != nil {
		return todo.Item{}, fmt.Errorf("create todo item: %w", err)
	}
	return item, nil
}

// Get returns one of the owner's items.
func (s *Service) Get(ctx context.Context, ownerID, itemID string) (todo.Item, error) {
	item, err := s.store.GetTodoItem(ctx, ownerID, itemID)
	if errors.Is(err, storage.ErrNotFound) {
		return todo.Item{}, apperrors.New(apperrors.CodeNotFound, "todo item not found")
	}
	if err != nil {
		return todo.Item{}, fmt.Errorf("get todo item: %w", err)
	}
	return item, nil
}

// ListActive returns the owner's unresolved items in planning order,
// optionally narrowed to one weekday.
func (s *Service) ListActive(ctx context.Context, ownerID string, weekday *todo.Weekday) ([]todo.Item, error) {
	if weekday != nil && !weekday.Valid() {
		return nil, todo.ErrInvalidWeekday
	}
	items, err := s.store.ListActiveTodoItems(ctx, ownerID, weekday)
	if err != nil {
		return nil, fmt.Errorf("list active todo items: %w", err)
	}
	return items, nil
}

// ListHistory returns the owner's resolved items, most recently resolved first.
func (s *Service) ListHistory(ctx context.Context, ownerID string) ([]todo.Item, error) {
	items, err := s.store.ListResolvedTodoItems(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list resolved todo items: %w", err)
	}
	return items, nil
}

// Update applies caller-editable fields to an item and persists the result.
//
// The write is guarded by the version read here. When a concurrent write
// wins, the item is re-read once to distinguish a deleted item from a plain
// lost race.
func (s *Service) Update(ctx context.Context, ownerID, itemID string, fields todo.Fields) (todo.Item, error) {
	current, err := s.Get(ctx, ownerID, itemID)
	if err != nil {
		return todo.Item{}, err
	}

	updated, err := current.ApplyUpdate(fields, s.clock)
	if err != nil {
		return todo.Item{}, err
	}
	updated.Version = current.Version + 1

	err = s.store.UpdateTodoItem(ctx, updated, current.Version)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, storage.ErrConflict) {
		return todo.Item{}, fmt.Errorf("update todo item: %w", err)
	}
	if _, probeErr := s.store.GetTodoItem(ctx, ownerID, itemID); errors.Is(probeErr, storage.ErrNotFound) {
		return todo.Item{}, apperrors.New(apperrors.CodeNotFound, "todo item not found")
	}
	return todo.Item{}, apperrors.Wrap(apperrors.CodeConflict, "todo item was modified concurrently", err)
}

// Delete removes one of the owner's items permanently.
func (s *Service) Delete(ctx context.Context, ownerID, itemID string) error {
	if err := s.store.DeleteTodoItem(ctx, ownerID, itemID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "todo item not found")
		}
		return fmt.Errorf("delete todo item: %w", err)
	}
	return nil
}
