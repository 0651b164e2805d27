package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/weekplan/internal/storage"
	"github.com/louisbranch/weekplan/internal/todo"
)

const todoItemColumns = `id, owner_id, title, description, category, weekday,
	        order_index, done, created_at, resolved_at, moved_count, version`

// CreateTodoItem inserts one todo item with version 1.
func (s *Store) CreateTodoItem(ctx context.Context, item todo.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	itemID := strings.TrimSpace(item.ID)
	ownerID := strings.TrimSpace(item.OwnerID)
	if itemID == "" {
		return fmt.Errorf("item id is required")
	}
	if ownerID == "" {
		return fmt.Errorf("owner id is required")
	}
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("title is required")
	}
	createdAt := item.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO todo_items (
		   id,
		   owner_id,
		   title,
		   description,
		   category,
		   weekday,
		   order_index,
		   done,
		   created_at,
		   resolved_at,
		   moved_count,
		   version
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		itemID,
		ownerID,
		item.Title,
		item.Description,
		item.Category,
		weekdayToNull(item.Weekday),
		item.OrderIndex,
		item.Done,
		toMillis(createdAt),
		timeToNull(item.ResolvedAt),
		item.MovedCount,
	)
	if err != nil {
		if isUniqueViolation(err, "todo_items.id") {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create todo item: %w", err)
	}
	return nil
}

// GetTodoItem returns one item scoped to its owner.
func (s *Store) GetTodoItem(ctx context.Context, ownerID, itemID string) (todo.Item, error) {
	if err := ctx.Err(); err != nil {
		return todo.Item{}, err
	}
	if s == nil || s.sqlDB == nil {
		return todo.Item{}, fmt.Errorf("storage is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	itemID = strings.TrimSpace(itemID)
	if ownerID == "" {
		return todo.Item{}, fmt.Errorf("owner id is required")
	}
	if itemID == "" {
		return todo.Item{}, fmt.Errorf("item id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+todoItemColumns+`
		   FROM todo_items
		  WHERE id = ? AND owner_id = ?`,
		itemID,
		ownerID,
	)
	item, err := scanTodoItem(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return todo.Item{}, storage.ErrNotFound
		}
		return todo.Item{}, fmt.Errorf("get todo item: %w", err)
	}
	return item, nil
}

// ListActiveTodoItems returns unresolved items for one owner ordered for
// display: order index ascending, creation time breaking ties.
func (s *Store) ListActiveTodoItems(ctx context.Context, ownerID string, weekday *todo.Weekday) ([]todo.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	var (
		rows *sql.Rows
		err  error
	)
	if weekday == nil {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT `+todoItemColumns+`
			   FROM todo_items
			  WHERE owner_id = ? AND done = 0
			  ORDER BY order_index ASC, created_at ASC`,
			ownerID,
		)
	} else {
		rows, err = s.sqlDB.QueryContext(
			ctx,
			`SELECT `+todoItemColumns+`
			   FROM todo_items
			  WHERE owner_id = ? AND done = 0 AND weekday = ?
			  ORDER BY order_index ASC, created_at ASC`,
			ownerID,
			int(*weekday),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("list active todo items: %w", err)
	}
	defer rows.Close()
	return collectTodoItems(rows, "list active todo items")
}

// ListResolvedTodoItems returns resolved items newest-resolved-first.
func (s *Store) ListResolvedTodoItems(ctx context.Context, ownerID string) ([]todo.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT `+todoItemColumns+`
		   FROM todo_items
		  WHERE owner_id = ? AND done = 1
		  ORDER BY resolved_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list resolved todo items: %w", err)
	}
	defer rows.Close()
	return collectTodoItems(rows, "list resolved todo items")
}

// UpdateTodoItem replaces the mutable columns of an item when the stored
// version still matches expectedVersion. A zero-row update is reported as
// ErrConflict; callers distinguish a missing row by re-reading the item.
func (s *Store) UpdateTodoItem(ctx context.Context, item todo.Item, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	itemID := strings.TrimSpace(item.ID)
	ownerID := strings.TrimSpace(item.OwnerID)
	if itemID == "" {
		return fmt.Errorf("item id is required")
	}
	if ownerID == "" {
		return fmt.Errorf("owner id is required")
	}
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("title is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE todo_items
		    SET title = ?,
		        description = ?,
		        category = ?,
		        weekday = ?,
		        order_index = ?,
		        done = ?,
		        resolved_at = ?,
		        moved_count = ?,
		        version = version + 1
		  WHERE id = ? AND owner_id = ? AND version = ?`,
		item.Title,
		item.Description,
		item.Category,
		weekdayToNull(item.Weekday),
		item.OrderIndex,
		item.Done,
		timeToNull(item.ResolvedAt),
		item.MovedCount,
		itemID,
		ownerID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update todo item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update todo item: %w", err)
	}
	if affected == 0 {
		return storage.ErrConflict
	}
	return nil
}

// DeleteTodoItem permanently removes one item scoped to its owner.
func (s *Store) DeleteTodoItem(ctx context.Context, ownerID, itemID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	itemID = strings.TrimSpace(itemID)
	if ownerID == "" {
		return fmt.Errorf("owner id is required")
	}
	if itemID == "" {
		return fmt.Errorf("item id is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM todo_items WHERE id = ? AND owner_id = ?`,
		itemID,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("delete todo item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete todo item: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type todoItemScanner func(dest ...any) error

func scanTodoItem(scan todoItemScanner) (todo.Item, error) {
	var item todo.Item
	var weekday sql.NullInt64
	var createdAt int64
	var resolvedAt sql.NullInt64
	if err := scan(
		&item.ID,
		&item.OwnerID,
		&item.Title,
		&item.Description,
		&item.Category,
		&weekday,
		&item.OrderIndex,
		&item.Done,
		&createdAt,
		&resolvedAt,
		&item.MovedCount,
		&item.Version,
	); err != nil {
		return todo.Item{}, err
	}
	if weekday.Valid {
		value := todo.Weekday(weekday.Int64)
		item.Weekday = &value
	}
	item.CreatedAt = fromMillis(createdAt)
	if resolvedAt.Valid {
		value := fromMillis(resolvedAt.Int64)
		item.ResolvedAt = &value
	}
	return item, nil
}

func collectTodoItems(rows *sql.Rows, op string) ([]todo.Item, error) {
	var items []todo.Item
	for rows.Next() {
		item, err := scanTodoItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

func weekdayToNull(weekday *todo.Weekday) sql.NullInt64 {
	if weekday == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*weekday), Valid: true}
}

func timeToNull(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}
