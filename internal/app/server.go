// Package app hosts the HTTP surface of the weekplan service.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/louisbranch/weekplan/internal/auth/gateway"
	"github.com/louisbranch/weekplan/internal/auth/session"
	apperrors "github.com/louisbranch/weekplan/internal/platform/errors"
	"github.com/louisbranch/weekplan/internal/todo/service"
)

// Config defines the inputs for the HTTP server.
type Config struct {
	Addr string
}

// Server hosts the login and todo API over HTTP.
type Server struct {
	httpServer *http.Server
}

// NewServer builds a configured HTTP server.
func NewServer(config Config, loginGateway *gateway.Gateway, sessions *session.Issuer, todos *service.Service) (*Server, error) {
	addr := strings.TrimSpace(config.Addr)
	if addr == "" {
		return nil, errors.New("http address is required")
	}

	handler := NewHandler(loginGateway, sessions, todos)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{httpServer: httpServer}, nil
}

// NewHandler builds the HTTP handler with all API routes registered.
func NewHandler(loginGateway *gateway.Gateway, sessions *session.Issuer, todos *service.Service) http.Handler {
	h := &handlers{
		gateway: loginGateway,
		todos:   todos,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(http.MethodPost+" /auth/google", h.handleGoogleLogin)

	authed := requireSession(sessions)
	mux.Handle(http.MethodGet+" /api/todos", authed(http.HandlerFunc(h.handleListTodos)))
	mux.Handle(http.MethodPost+" /api/todos", authed(http.HandlerFunc(h.handleCreateTodo)))
	mux.Handle(http.MethodGet+" /api/todos/history", authed(http.HandlerFunc(h.handleListHistory)))
	mux.Handle(http.MethodGet+" /api/todos/{itemID}", authed(http.HandlerFunc(h.handleGetTodo)))
	mux.Handle(http.MethodPut+" /api/todos/{itemID}", authed(http.HandlerFunc(h.handleUpdateTodo)))
	mux.Handle(http.MethodDelete+" /api/todos/{itemID}", authed(http.HandlerFunc(h.handleDeleteTodo)))

	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return traceRequests(mux)
}

// handlers carries the services backing the API routes.
type handlers struct {
	gateway *gateway.Gateway
	todos   *service.Service
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	serveErr := make(chan error, 1)
	log.Printf("api listening on %s", s.httpServer.Addr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// traceRequests opens a span per request; a noop tracer provider makes this
// free when telemetry is disabled.
func traceRequests(next http.Handler) http.Handler {
	tracer := otel.Tracer("weekplan/http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	message := "internal error"
	if status != http.StatusInternalServerError {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
	} else {
		log.Printf("internal error: %v", err)
	}
	writeJSON(w, status, errorResponse{Code: string(code), Message: message})
}
