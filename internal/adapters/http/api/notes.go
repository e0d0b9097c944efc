package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	repository "github.com/okian/notecache/internal/adapters/repository"
	"github.com/okian/notecache/pkg/logger"
)

// NotesHandler serves the /notes resource.
type NotesHandler struct {
	deps         Dependencies
	logger       logger.Logger
	maxBodyBytes int64
}

// NewNotesHandler creates a new notes handler.
func NewNotesHandler(deps Dependencies, l logger.Logger, maxBodyBytes int64) *NotesHandler {
	return &NotesHandler{deps: deps, logger: l, maxBodyBytes: maxBodyBytes}
}

// HandleGetNote handles GET /notes/{name}.
func (h *NotesHandler) HandleGetNote(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_note"
	name := r.PathValue("name")
	text, err := h.deps.GetNote(r.Context(), name)
	if err != nil {
		writeFailure(w, r, h.logger, op, name, err)
		return
	}
	writeText(w, http.StatusOK, text)
}

// HandlePutNote handles PUT /notes/{name}. The body is stored verbatim,
// whatever its content type.
func (h *NotesHandler) HandlePutNote(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_note"
	name := r.PathValue("name")
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		writeFailure(w, r, h.logger, op, name, bodyErr(err))
		return
	}
	if err := h.deps.UpdateNote(r.Context(), name, string(body)); err != nil {
		writeFailure(w, r, h.logger, op, name, err)
		return
	}
	writeText(w, http.StatusOK, msgChanged)
}

// HandleDeleteNote handles DELETE /notes/{name}.
func (h *NotesHandler) HandleDeleteNote(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_note"
	name := r.PathValue("name")
	if err := h.deps.DeleteNote(r.Context(), name); err != nil {
		writeFailure(w, r, h.logger, op, name, err)
		return
	}
	writeText(w, http.StatusOK, msgDeleted)
}

// HandleListNotes handles GET /notes.
func (h *NotesHandler) HandleListNotes(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_notes"
	notes, err := h.deps.ListNotes(r.Context())
	if err != nil {
		writeFailure(w, r, h.logger, op, "", err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// writeFailure maps store and request errors to plain-text responses.
// Anything unrecognised is logged and reported as a 500.
func writeFailure(w http.ResponseWriter, r *http.Request, l logger.Logger, op, name string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeText(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, repository.ErrExists):
		writeText(w, http.StatusBadRequest, msgBadRequest)
	case errors.Is(err, repository.ErrInvalidName):
		writeText(w, http.StatusBadRequest, msgBadRequest+": invalid note name")
	case errors.Is(err, ErrPayloadTooLarge):
		writeText(w, http.StatusRequestEntityTooLarge, msgTooLarge)
	case errors.Is(err, ErrBadRequest):
		writeText(w, http.StatusBadRequest, msgBadRequest+": "+strings.TrimPrefix(err.Error(), ErrBadRequest.Error()+": "))
	default:
		l.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("name", name),
			logger.String("request_id", RequestIDFrom(r.Context())),
			logger.Error(err),
		)
		writeText(w, http.StatusInternalServerError, msgInternalError)
	}
}

// bodyErr classifies a request body read failure.
func bodyErr(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit %d bytes", ErrPayloadTooLarge, tooLarge.Limit)
	}
	return fmt.Errorf("%w: read body: %w", ErrBadRequest, err)
}
