// Package smoketest drives the note lifecycle against a running server.
package smoketest

import (
	"errors"
	"time"
)

// Defaults used by the notes-smoke command.
const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultNotes   = 20
	DefaultWorkers = 4
	DefaultTimeout = 10 * time.Second
)

// ErrLifecycle is wrapped by every failed lifecycle check.
var ErrLifecycle = errors.New("note lifecycle check failed")

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL string        // Base URL of the service
	Notes   int           // Number of notes to drive through the lifecycle
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	if out.Notes <= 0 {
		out.Notes = DefaultNotes
	}
	if out.Workers <= 0 {
		out.Workers = DefaultWorkers
	}
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	return out
}

// Stats holds run statistics.
type Stats struct {
	Notes     int
	Passed    int
	Failed    int
	Requests  int
	StartTime time.Time
	Duration  time.Duration
}
