// Package site serves the embedded note upload form.
package site

import (
	"context"
	"errors"
	"io"
	"net/http"
)

// UploadFormPath is where the upload form is served.
const UploadFormPath = "/UploadForm.html"

// ErrServe is returned when the embedded form cannot be opened.
var ErrServe = errors.New("upload form serve failed")

// Register attaches the upload form route to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET "+UploadFormPath, NewFormHandler())
}

// FormHandler writes the embedded upload form.
type FormHandler struct {
	fs http.FileSystem
}

// NewFormHandler creates a handler backed by the embedded filesystem.
func NewFormHandler() *FormHandler {
	return &FormHandler{fs: FS()}
}

// ServeHTTP serves UploadForm.html.
func (h *FormHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	f, err := h.fs.Open(UploadFormPath)
	if err != nil {
		http.Error(w, ErrServe.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, f)
}
