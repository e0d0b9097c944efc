// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/notecache/internal/domain/types"
	"github.com/okian/notecache/pkg/logger"
)

const defaultMaxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	GetNote(ctx context.Context, name string) (string, error)
	UpdateNote(ctx context.Context, name, text string) error
	DeleteNote(ctx context.Context, name string) error
	ListNotes(ctx context.Context) ([]types.Note, error)
	CreateNote(ctx context.Context, name, text string) error
}

// Server wires HTTP routes for the note API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	notesHandler  *NotesHandler
	writeHandler  *WriteHandler
}

type serverOptions struct {
	logger       logger.Logger
	maxBodyBytes int64
}

// ServerOption configures NewServer.
type ServerOption func(*serverOptions)

// WithLogger sets the logger handlers report filesystem failures to.
func WithLogger(l logger.Logger) ServerOption {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxBodyBytes caps PUT and POST bodies.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	o := serverOptions{logger: logger.Nop(), maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		notesHandler:  NewNotesHandler(deps, o.logger, o.maxBodyBytes),
		writeHandler:  NewWriteHandler(deps, o.logger, o.maxBodyBytes),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /notes", MetricsMiddleware(s.notesHandler.HandleListNotes, "notes_list"))
	mux.HandleFunc("GET /notes/{name}", MetricsMiddleware(s.notesHandler.HandleGetNote, "note_get"))
	mux.HandleFunc("PUT /notes/{name}", MetricsMiddleware(s.notesHandler.HandlePutNote, "note_put"))
	mux.HandleFunc("DELETE /notes/{name}", MetricsMiddleware(s.notesHandler.HandleDeleteNote, "note_delete"))
	mux.HandleFunc("POST /write", MetricsMiddleware(s.writeHandler.HandleWrite, "write"))
}

// Plain-text bodies returned by the note endpoints.
const (
	msgNotFound      = "Not found"
	msgBadRequest    = "Bad request"
	msgCreated       = "Created"
	msgChanged       = "File content changed"
	msgDeleted       = "Deleted successfully"
	msgTooLarge      = "Payload too large"
	msgInternalError = "Internal server error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
