// Package repository defines the note store interface and its file-backed
// implementation.
package repository

import (
	"context"

	"github.com/okian/notecache/internal/domain/types"
)

// Store provides read/write access to persisted notes. Names are note
// identifiers without the .txt extension.
type Store interface {
	// Exists reports whether a note with this name is stored.
	Exists(ctx context.Context, name string) (bool, error)

	// Get returns the note text. Returns ErrNotFound if absent.
	Get(ctx context.Context, name string) (string, error)

	// Create stores a new note. Returns ErrExists if the name is taken; the
	// existing content is left untouched.
	Create(ctx context.Context, name, text string) error

	// Update overwrites an existing note. Returns ErrNotFound if absent and
	// never creates a file.
	Update(ctx context.Context, name, text string) error

	// Delete removes a note. Returns ErrNotFound if absent.
	Delete(ctx context.Context, name string) error

	// List returns every file in the store with its contents.
	List(ctx context.Context) ([]types.Note, error)

	// Count returns the number of files in the store.
	Count(ctx context.Context) (int, error)

	// Dir returns the backing directory.
	Dir() string
}
