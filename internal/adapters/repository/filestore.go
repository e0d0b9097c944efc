package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/notecache/internal/domain/types"
	"github.com/okian/notecache/pkg/logger"
	"github.com/okian/notecache/pkg/metrics"
)

// NoteExt is appended to a note name to form its filename.
const NoteExt = ".txt"

const (
	defaultFileMode fs.FileMode = 0o644
	defaultDirMode  fs.FileMode = 0o755
)

// Result labels for store metrics.
const (
	resultOK       = "ok"
	resultNotFound = "not_found"
	resultExists   = "exists"
	resultInvalid  = "invalid"
	resultError    = "error"
)

// FileStore keeps each note as <dir>/<name>.txt. There is no index and no
// locking; concurrent writers to one name race and the last write wins.
type FileStore struct {
	dir      string
	fileMode fs.FileMode
	dirMode  fs.FileMode
	logger   logger.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at dir, creating the directory (not
// its parents) when it does not exist yet.
func NewFileStore(ctx context.Context, dir string, opts ...Option) (*FileStore, error) {
	s := &FileStore{
		dir:      dir,
		fileMode: defaultFileMode,
		dirMode:  defaultDirMode,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.Mkdir(dir, s.dirMode); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
		}
		s.logger.Info(ctx, "created cache directory", logger.String("dir", dir))
	case err != nil:
		return nil, fmt.Errorf("stat cache directory %s: %w", dir, err)
	case !info.IsDir():
		return nil, fmt.Errorf("cache path %s is not a directory", dir)
	}
	return s, nil
}

// Dir returns the backing directory.
func (s *FileStore) Dir() string { return s.dir }

// path maps a note name to its file, refusing names that would leave dir.
func (s *FileStore) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name+NoteExt), nil
}

// Exists reports whether <name>.txt is present.
func (s *FileStore) Exists(_ context.Context, name string) (ok bool, err error) {
	defer observe("exists", time.Now(), &err)
	p, err := s.path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", name, err)
	}
	return true, nil
}

// Get reads the note text.
func (s *FileStore) Get(_ context.Context, name string) (text string, err error) {
	defer observe("get", time.Now(), &err)
	p, err := s.path(name)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("get %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", name, err)
	}
	return string(b), nil
}

// Create writes a new note. O_EXCL makes the existence check and the
// creation one filesystem call, so two concurrent creates cannot both win.
func (s *FileStore) Create(_ context.Context, name, text string) (err error) {
	defer observe("create", time.Now(), &err)
	p, err := s.path(name)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, s.fileMode)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("create %s: %w", name, ErrExists)
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := writeAndClose(f, text); err != nil {
		_ = os.Remove(p)
		return fmt.Errorf("create %s: %w", name, err)
	}
	return nil
}

// Update truncates and rewrites an existing note.
func (s *FileStore) Update(_ context.Context, name, text string) (err error) {
	defer observe("update", time.Now(), &err)
	p, err := s.path(name)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_TRUNC, 0)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("update %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", name, err)
	}
	if err := writeAndClose(f, text); err != nil {
		return fmt.Errorf("update %s: %w", name, err)
	}
	return nil
}

// Delete removes the note file.
func (s *FileStore) Delete(_ context.Context, name string) (err error) {
	defer observe("delete", time.Now(), &err)
	p, err := s.path(name)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// List returns every regular entry of the directory, in os.ReadDir order
// (sorted by filename). Files removed between listing and reading are
// skipped.
func (s *FileStore) List(ctx context.Context) (notes []types.Note, err error) {
	defer observe("list", time.Now(), &err)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	notes = make([]types.Note, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug(ctx, "note vanished during list", logger.String("file", e.Name()))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list read %s: %w", e.Name(), err)
		}
		notes = append(notes, types.Note{Name: e.Name(), Text: string(b)})
	}
	return notes, nil
}

// Count returns the number of regular entries in the directory.
func (s *FileStore) Count(_ context.Context) (n int, err error) {
	defer observe("count", time.Now(), &err)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s.dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			n++
		}
	}
	return n, nil
}

func writeAndClose(f *os.File, text string) error {
	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// observe records one store call. err points at the named return so the
// deferred call sees the final value.
func observe(op string, start time.Time, err *error) {
	metrics.RecordStoreOperation(op, resultOf(*err), float64(time.Since(start).Microseconds())/1000)
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, ErrNotFound):
		return resultNotFound
	case errors.Is(err, ErrExists):
		return resultExists
	case errors.Is(err, ErrInvalidName):
		return resultInvalid
	default:
		return resultError
	}
}
