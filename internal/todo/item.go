// Package todo holds the todo item domain model and its lifecycle rules.
package todo

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/weekplan/internal/platform/errors"
	"github.com/louisbranch/weekplan/internal/platform/id"
)

var (
	// ErrEmptyTitle indicates a missing item title.
	ErrEmptyTitle = apperrors.New(apperrors.CodeTodoTitleEmpty, "title is required")
	// ErrInvalidWeekday indicates a weekday outside Sunday..Saturday.
	ErrInvalidWeekday = apperrors.New(apperrors.CodeTodoInvalidWeekday, "weekday must be between 0 and 6")
)

// Weekday identifies one day-of-week list. Sunday is 0, matching the
// numbering the web client sends in the weekday query parameter.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// Valid reports whether the weekday is within Sunday..Saturday.
func (w Weekday) Valid() bool {
	return w >= Sunday && w <= Saturday
}

// ParseWeekday parses a decimal weekday value such as "0" or "6".
func ParseWeekday(value string) (Weekday, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, ErrInvalidWeekday
	}
	weekday := Weekday(parsed)
	if !weekday.Valid() {
		return 0, ErrInvalidWeekday
	}
	return weekday, nil
}

// Item is one todo entry owned by a single user.
//
// A nil Weekday places the item on the general list. ResolvedAt is non-nil
// exactly when Done is true. MovedCount grows by one per distinct weekday
// change and is never reset. Version backs optimistic concurrency in storage.
type Item struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Category    string
	Weekday     *Weekday
	OrderIndex  int
	Done        bool
	CreatedAt   time.Time
	ResolvedAt  *time.Time
	MovedCount  int
	Version     int64
}

// Fields carries the caller-editable attributes of an item.
type Fields struct {
	Title       string
	Description string
	Category    string
	Weekday     *Weekday
	OrderIndex  int
	Done        bool
}

func normalizeFields(fields Fields) (Fields, error) {
	fields.Title = strings.TrimSpace(fields.Title)
	if fields.Title == "" {
		return Fields{}, ErrEmptyTitle
	}
	if fields.Weekday != nil && !fields.Weekday.Valid() {
		return Fields{}, ErrInvalidWeekday
	}
	return fields, nil
}

// NewItem creates an item from caller-supplied fields.
//
// Lifecycle state is never caller-supplied: a new item starts active with a
// zero moved count regardless of what the request carried.
func NewItem(ownerID string, fields Fields, now func() time.Time, idGenerator func() (string, error)) (Item, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := normalizeFields(fields)
	if err != nil {
		return Item{}, err
	}

	itemID, err := idGenerator()
	if err != nil {
		return Item{}, fmt.Errorf("generate item id: %w", err)
	}

	return Item{
		ID:          itemID,
		OwnerID:     ownerID,
		Title:       normalized.Title,
		Description: normalized.Description,
		Category:    normalized.Category,
		Weekday:     normalized.Weekday,
		OrderIndex:  normalized.OrderIndex,
		Done:        false,
		CreatedAt:   now().UTC(),
		ResolvedAt:  nil,
		MovedCount:  0,
	}, nil
}

// ApplyUpdate returns the item with fields applied per the lifecycle rules.
//
// The order is fixed: editable fields are replaced unconditionally, then a
// weekday change bumps the moved counter exactly once, then a done
// transition stamps or clears the resolution time. Re-setting the same
// weekday or done state is a no-op on the derived fields.
func (i Item) ApplyUpdate(fields Fields, now func() time.Time) (Item, error) {
	if now == nil {
		now = time.Now
	}

	normalized, err := normalizeFields(fields)
	if err != nil {
		return Item{}, err
	}

	i.Title = normalized.Title
	i.Description = normalized.Description
	i.Category = normalized.Category
	i.OrderIndex = normalized.OrderIndex

	if !sameWeekday(i.Weekday, normalized.Weekday) {
		i.Weekday = normalized.Weekday
		i.MovedCount++
	}

	switch {
	case normalized.Done && !i.Done:
		i.Done = true
		resolvedAt := now().UTC()
		i.ResolvedAt = &resolvedAt
	case !normalized.Done && i.Done:
		i.Done = false
		i.ResolvedAt = nil
	}

	return i, nil
}

func sameWeekday(a, b *Weekday) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
