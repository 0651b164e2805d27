package app

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/louisbranch/weekplan/internal/platform/errors"
	"github.com/louisbranch/weekplan/internal/platform/requestctx"
	"github.com/louisbranch/weekplan/internal/todo"
)

type todoItemRequest struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Weekday     *int   `json:"weekday"`
	OrderIndex  int    `json:"order_index"`
	Done        bool   `json:"done"`
}

func (r todoItemRequest) fields() todo.Fields {
	var weekday *todo.Weekday
	if r.Weekday != nil {
		value := todo.Weekday(*r.Weekday)
		weekday = &value
	}
	return todo.Fields{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Weekday:     weekday,
		OrderIndex:  r.OrderIndex,
		Done:        r.Done,
	}
}

type todoItemResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Weekday     *int       `json:"weekday"`
	OrderIndex  int        `json:"order_index"`
	Done        bool       `json:"done"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
	MovedCount  int        `json:"moved_count"`
	Version     int64      `json:"version"`
}

func toTodoItemResponse(item todo.Item) todoItemResponse {
	var weekday *int
	if item.Weekday != nil {
		value := int(*item.Weekday)
		weekday = &value
	}
	return todoItemResponse{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		Weekday:     weekday,
		OrderIndex:  item.OrderIndex,
		Done:        item.Done,
		CreatedAt:   item.CreatedAt,
		ResolvedAt:  item.ResolvedAt,
		MovedCount:  item.MovedCount,
		Version:     item.Version,
	}
}

func toTodoItemResponses(items []todo.Item) []todoItemResponse {
	responses := make([]todoItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toTodoItemResponse(item))
	}
	return responses
}

var errMalformedBody = apperrors.New(apperrors.CodeInvalidRequest, "request body is not a valid todo item")

func (h *handlers) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	ownerID := requestctx.UserIDFromContext(r.Context())

	var request todoItemRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, errMalformedBody)
		return
	}

	created, err := h.todos.Create(r.Context(), ownerID, request.fields())
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Location", "/api/todos/"+created.ID)
	writeJSON(w, http.StatusCreated, toTodoItemResponse(created))
}

func (h *handlers) handleListTodos(w http.ResponseWriter, r *http.Request) {
	ownerID := requestctx.UserIDFromContext(r.Context())

	var weekday *todo.Weekday
	if raw := r.URL.Query().Get("weekday"); raw != "" {
		parsed, err := todo.ParseWeekday(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		weekday = &parsed
	}

	items, err := h.todos.ListActive(r.Context(), ownerID, weekday)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTodoItemResponses(items))
}

func (h *handlers) handleListHistory(w http.ResponseWriter, r *http.Request) {
	ownerID := requestctx.UserIDFromContext(r.Context())

	items, err := h.todos.ListHistory(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTodoItemResponses(items))
}

func (h *handlers) handleGetTodo(w http.ResponseWriter, r *http.Request) {
	ownerID := requestctx.UserIDFromContext(r.Context())
	itemID := strings.TrimSpace(r.PathValue("itemID"))

	item, err := h.todos.Get(r.Context(), ownerID, itemID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTodoItemResponse(item))
}

func (h *handlers) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	ownerID := requestctx.UserIDFromContext(r.Context())
	itemID := strings.TrimSpace(r.PathValue("itemID"))

	var request todoItemRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, errMalformedBody)
		return
	}
	if request.ID != "" && request.ID != itemID {
		writeError(w, apperrors.New(apperrors.CodeTodoIDMismatch, "body id does not match path id"))
		return
	}

	if _, err := h.todos.Update(r.Context(), ownerID, itemID, request.fields()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	ownerID := requestctx.UserIDFromContext(r.Context())
	itemID := strings.TrimSpace(r.PathValue("itemID"))

	if err := h.todos.Delete(r.Context(), ownerID, itemID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
