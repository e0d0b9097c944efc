package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/notecache/internal/domain/form"
	"github.com/okian/notecache/pkg/logger"
)

// WriteHandler handles note creation from the upload form.
type WriteHandler struct {
	deps         Dependencies
	logger       logger.Logger
	maxBodyBytes int64
}

// NewWriteHandler creates a new write handler.
func NewWriteHandler(deps Dependencies, l logger.Logger, maxBodyBytes int64) *WriteHandler {
	return &WriteHandler{deps: deps, logger: l, maxBodyBytes: maxBodyBytes}
}

// HandleWrite handles POST /write with a two-field multipart body.
func (h *WriteHandler) HandleWrite(w http.ResponseWriter, r *http.Request) {
	const op = "api.write"
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	note, err := form.Parse(r.Header.Get("Content-Type"), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, r, h.logger, op, "", bodyErr(tooLarge))
			return
		}
		h.logger.Debug(r.Context(), "rejected creation form", logger.Error(err))
		writeFailure(w, r, h.logger, op, "", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := h.deps.CreateNote(r.Context(), note.Name, note.Text); err != nil {
		writeFailure(w, r, h.logger, op, note.Name, err)
		return
	}
	writeText(w, http.StatusCreated, msgCreated)
}
