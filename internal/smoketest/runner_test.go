package smoketest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/notecache/internal/adapters/http/api"
	service "github.com/okian/notecache/internal/app"
	"github.com/okian/notecache/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newNoteServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	svc := service.New(service.WithCacheDir(dir), service.WithLogger(logger.Nop()))
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, dir
}

func TestRun(t *testing.T) {
	Convey("Given a running note server", t, func() {
		srv, dir := newNoteServer(t)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		Convey("When the smoke test runs", func() {
			stats, err := Run(ctx, &Config{BaseURL: srv.URL, Notes: 12, Workers: 3, Timeout: 5 * time.Second}, logger.Nop())

			Convey("Then every lifecycle should pass and leave nothing behind", func() {
				So(err, ShouldBeNil)
				So(stats.Passed, ShouldEqual, 12)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.Requests, ShouldEqual, 12*len(lifecycle)+1)
				entries, readErr := os.ReadDir(dir)
				So(readErr, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})
	})
}

func TestRunFailures(t *testing.T) {
	Convey("Given a server that is unhealthy", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		Convey("Then the run should stop at the health check", func() {
			stats, err := Run(context.Background(), &Config{BaseURL: srv.URL, Notes: 1}, logger.Nop())
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
			So(stats.Passed, ShouldEqual, 0)
		})
	})

	Convey("Given a server that accepts nothing", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {})
		mux.HandleFunc("GET /notes", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("[]"))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("Then every lifecycle should fail with a typed error", func() {
			stats, err := Run(context.Background(), &Config{BaseURL: srv.URL, Notes: 2, Workers: 1}, logger.Nop())
			So(errors.Is(err, ErrLifecycle), ShouldBeTrue)
			So(stats.Failed, ShouldEqual, 2)
		})
	})
}

func TestConfigDefaults(t *testing.T) {
	Convey("Given an empty config", t, func() {
		c := (&Config{}).withDefaults()

		So(c.BaseURL, ShouldEqual, DefaultBaseURL)
		So(c.Notes, ShouldEqual, DefaultNotes)
		So(c.Workers, ShouldEqual, DefaultWorkers)
		So(c.Timeout, ShouldEqual, DefaultTimeout)
	})
}
