// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	repository "github.com/okian/notecache/internal/adapters/repository"
	"github.com/okian/notecache/internal/adapters/watch"
	"github.com/okian/notecache/internal/domain/types"
	"github.com/okian/notecache/pkg/logger"
	"github.com/okian/notecache/pkg/metrics"
)

// ErrNotStarted is returned by note operations before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the note cache.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	watcher *watch.Watcher

	// Configuration
	cacheDir string
	watch    bool

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCacheDir sets the directory the default file store is rooted at.
func WithCacheDir(dir string) Option {
	return func(s *Service) {
		s.cacheDir = dir
	}
}

// WithStore injects a store instead of building a FileStore on Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWatch enables the cache directory watcher.
func WithWatch(enabled bool) Option {
	return func(s *Service) {
		s.watch = enabled
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service. Nothing touches the filesystem until Start.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store (creating the cache directory if needed) and starts
// the watcher when enabled.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.store == nil {
		if s.cacheDir == "" {
			return fmt.Errorf("start: %w", errors.New("cache directory not configured"))
		}
		store, err := repository.NewFileStore(ctx, s.cacheDir, repository.WithLogger(s.logger.Named("store")))
		if err != nil {
			return fmt.Errorf("start: %w", err)
		}
		s.store = store
	}

	if s.watch {
		s.watcher = watch.New(s.store.Dir(), s.refreshStored, watch.WithLogger(s.logger.Named("watch")))
		if err := s.watcher.Start(ctx); err != nil {
			// The service still works without the gauge refresh.
			s.logger.Warn(ctx, "cache directory watcher disabled", logger.Error(err))
			s.watcher = nil
		}
	}

	s.started = true
	s.refreshStored(ctx)
	s.logger.Info(ctx, "note service started",
		logger.String("cache_dir", s.store.Dir()),
		logger.Bool("watching", s.watcher != nil),
	)
	return nil
}

// Stop shuts down the watcher.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.logger.Warn(context.Background(), "stopping watcher", logger.Error(err))
		}
		s.watcher = nil
	}
	s.started = false
	s.logger.Info(context.Background(), "note service stopped")
}

func (s *Service) storeFor() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// GetNote returns the text of a note.
func (s *Service) GetNote(ctx context.Context, name string) (string, error) {
	store, err := s.storeFor()
	if err != nil {
		return "", err
	}
	return store.Get(ctx, name)
}

// CreateNote stores a new note; fails with repository.ErrExists when taken.
func (s *Service) CreateNote(ctx context.Context, name, text string) error {
	store, err := s.storeFor()
	if err != nil {
		return err
	}
	if err := store.Create(ctx, name, text); err != nil {
		return err
	}
	metrics.RecordNoteCreated()
	s.logger.Info(ctx, "note created", logger.String("name", name), logger.Int("bytes", len(text)))
	s.afterMutation(ctx)
	return nil
}

// UpdateNote overwrites an existing note.
func (s *Service) UpdateNote(ctx context.Context, name, text string) error {
	store, err := s.storeFor()
	if err != nil {
		return err
	}
	if err := store.Update(ctx, name, text); err != nil {
		return err
	}
	metrics.RecordNoteUpdated()
	s.logger.Info(ctx, "note updated", logger.String("name", name), logger.Int("bytes", len(text)))
	return nil
}

// DeleteNote removes a note.
func (s *Service) DeleteNote(ctx context.Context, name string) error {
	store, err := s.storeFor()
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, name); err != nil {
		return err
	}
	metrics.RecordNoteDeleted()
	s.logger.Info(ctx, "note deleted", logger.String("name", name))
	s.afterMutation(ctx)
	return nil
}

// ListNotes returns every file in the cache directory with its contents.
func (s *Service) ListNotes(ctx context.Context) ([]types.Note, error) {
	store, err := s.storeFor()
	if err != nil {
		return nil, err
	}
	return store.List(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Stats{CacheDir: s.cacheDir, Watching: s.watcher != nil}
	if !s.started {
		return stats
	}
	stats.CacheDir = s.store.Dir()
	if n, err := s.store.Count(ctx); err == nil {
		stats.NotesStored = n
		metrics.UpdateNotesStored(n)
	}
	return stats
}

// afterMutation keeps the stored gauge current when no watcher does it.
func (s *Service) afterMutation(ctx context.Context) {
	s.mu.RLock()
	watching := s.watcher != nil
	s.mu.RUnlock()
	if !watching {
		s.refreshStored(ctx)
	}
}

// refreshStored recounts the directory. It reads s.store without the lock:
// the store is set once in Start before the watcher is created.
func (s *Service) refreshStored(ctx context.Context) {
	if s.store == nil {
		return
	}
	n, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Warn(ctx, "counting notes failed", logger.Error(err))
		return
	}
	metrics.UpdateNotesStored(n)
}
