package smoketest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/notecache/pkg/logger"
)

// step is one request of the lifecycle with the response it must produce.
type step struct {
	name   string
	call   func(ctx context.Context, c *Client, note string) (Response, error)
	status int
	body   string
}

// lifecycle is the example flow: create, read, update, read, delete, read.
var lifecycle = []step{
	{"create", func(ctx context.Context, c *Client, n string) (Response, error) { return c.Create(ctx, n, "hello") }, http.StatusCreated, "Created"},
	{"duplicate create", func(ctx context.Context, c *Client, n string) (Response, error) { return c.Create(ctx, n, "again") }, http.StatusBadRequest, ""},
	{"read", func(ctx context.Context, c *Client, n string) (Response, error) { return c.Get(ctx, n) }, http.StatusOK, "hello"},
	{"update", func(ctx context.Context, c *Client, n string) (Response, error) { return c.Update(ctx, n, "bye") }, http.StatusOK, "File content changed"},
	{"read updated", func(ctx context.Context, c *Client, n string) (Response, error) { return c.Get(ctx, n) }, http.StatusOK, "bye"},
	{"delete", func(ctx context.Context, c *Client, n string) (Response, error) { return c.Delete(ctx, n) }, http.StatusOK, "Deleted successfully"},
	{"read deleted", func(ctx context.Context, c *Client, n string) (Response, error) { return c.Get(ctx, n) }, http.StatusNotFound, "Not found"},
	{"update deleted", func(ctx context.Context, c *Client, n string) (Response, error) { return c.Update(ctx, n, "ghost") }, http.StatusNotFound, ""},
}

// Run checks health, drives cfg.Notes fresh notes through the lifecycle on
// cfg.Workers goroutines and finally confirms none of them is still listed.
func Run(ctx context.Context, cfg *Config, l logger.Logger) (*Stats, error) {
	c := cfg.withDefaults()
	stats := &Stats{Notes: c.Notes, StartTime: time.Now()}
	client := NewClient(c.BaseURL, c.Timeout)

	l.Info(ctx, "starting notecache smoke test",
		logger.String("baseURL", c.BaseURL),
		logger.Int("notes", c.Notes),
		logger.Int("workers", c.Workers),
		logger.Duration("timeout", c.Timeout))

	if resp, err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	} else if resp.Status != http.StatusOK {
		return stats, fmt.Errorf("service health check failed with status: %d", resp.Status)
	}

	names := make([]string, c.Notes)
	for i := range names {
		names[i] = "smoke-" + uuid.NewString()
	}

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	jobs := make(chan string, c.Workers)
	for i := 0; i < c.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				requests, err := runLifecycle(ctx, client, name)
				mu.Lock()
				stats.Requests += requests
				if err != nil {
					stats.Failed++
					errs = append(errs, err)
				} else {
					stats.Passed++
				}
				mu.Unlock()
				if err != nil {
					l.Warn(ctx, "lifecycle failed", logger.String("note", name), logger.Error(err))
				}
			}
		}()
	}
feed:
	for _, name := range names {
		select {
		case jobs <- name:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := verifyGone(ctx, client, names); err != nil {
		errs = append(errs, err)
	}
	stats.Requests++

	stats.Duration = time.Since(stats.StartTime)
	l.Info(ctx, "final statistics",
		logger.Int("notes", stats.Notes),
		logger.Int("passed", stats.Passed),
		logger.Int("failed", stats.Failed),
		logger.Int("requests", stats.Requests),
		logger.Duration("duration", stats.Duration))

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, errors.Join(errs...)
}

func runLifecycle(ctx context.Context, c *Client, name string) (int, error) {
	for i, s := range lifecycle {
		resp, err := s.call(ctx, c, name)
		if err != nil {
			return i + 1, fmt.Errorf("%w: %s %s: %w", ErrLifecycle, name, s.name, err)
		}
		if resp.Status != s.status {
			return i + 1, fmt.Errorf("%w: %s %s: status %d, want %d", ErrLifecycle, name, s.name, resp.Status, s.status)
		}
		if s.body != "" && resp.Body != s.body {
			return i + 1, fmt.Errorf("%w: %s %s: body %q, want %q", ErrLifecycle, name, s.name, resp.Body, s.body)
		}
	}
	return len(lifecycle), nil
}

func verifyGone(ctx context.Context, c *Client, names []string) error {
	notes, err := c.List(ctx)
	if err != nil {
		return err
	}
	ours := make(map[string]struct{}, len(names))
	for _, n := range names {
		ours[n+".txt"] = struct{}{}
	}
	var left []string
	for _, n := range notes {
		if _, ok := ours[n.Name]; ok {
			left = append(left, n.Name)
		}
	}
	if len(left) > 0 {
		return fmt.Errorf("%w: still listed after delete: %s", ErrLifecycle, strings.Join(left, ", "))
	}
	return nil
}
