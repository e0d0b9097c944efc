package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/notecache/internal/adapters/http/api"
	service "github.com/okian/notecache/internal/app"
	"github.com/okian/notecache/internal/domain/types"
	"github.com/okian/notecache/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type testServer struct {
	*httptest.Server
	dir string
}

func newTestServer(t *testing.T, watch bool) (*testServer, *service.Service) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	svc := service.New(
		service.WithCacheDir(dir),
		service.WithWatch(watch),
		service.WithLogger(logger.Nop()),
	)
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, dir: dir}, svc
}

func (s *testServer) do(method, path string, body io.Reader, contentType string) (int, string) {
	req, err := http.NewRequest(method, s.URL+path, body)
	So(err, ShouldBeNil)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	So(err, ShouldBeNil)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	So(err, ShouldBeNil)
	return resp.StatusCode, string(b)
}

func (s *testServer) post(name, text string) (int, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("note_name", name)
	_ = w.WriteField("note", text)
	_ = w.Close()
	return s.do(http.MethodPost, "/write", &buf, w.FormDataContentType())
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a note server over a temp cache directory", t, func() {
		srv, _ := newTestServer(t, false)

		Convey("When a name was never created", func() {
			get, _ := srv.do(http.MethodGet, "/notes/nope", nil, "")
			put, _ := srv.do(http.MethodPut, "/notes/nope", strings.NewReader("x"), "text/plain")
			del, _ := srv.do(http.MethodDelete, "/notes/nope", nil, "")

			Convey("Then every operation should be 404 and nothing created", func() {
				So(get, ShouldEqual, http.StatusNotFound)
				So(put, ShouldEqual, http.StatusNotFound)
				So(del, ShouldEqual, http.StatusNotFound)
				_, err := os.Stat(filepath.Join(srv.dir, "nope.txt"))
				So(os.IsNotExist(err), ShouldBeTrue)
			})
		})

		Convey("When running the example lifecycle", func() {
			code, body := srv.post("a", "hello")
			So(code, ShouldEqual, http.StatusCreated)
			So(body, ShouldEqual, "Created")

			code, body = srv.do(http.MethodGet, "/notes/a", nil, "")
			So(code, ShouldEqual, http.StatusOK)
			So(body, ShouldEqual, "hello")

			code, body = srv.do(http.MethodPut, "/notes/a", strings.NewReader("bye"), "text/plain")
			So(code, ShouldEqual, http.StatusOK)
			So(body, ShouldEqual, "File content changed")

			code, body = srv.do(http.MethodGet, "/notes/a", nil, "")
			So(code, ShouldEqual, http.StatusOK)
			So(body, ShouldEqual, "bye")

			code, body = srv.do(http.MethodDelete, "/notes/a", nil, "")
			So(code, ShouldEqual, http.StatusOK)
			So(body, ShouldEqual, "Deleted successfully")

			code, body = srv.do(http.MethodGet, "/notes/a", nil, "")
			So(code, ShouldEqual, http.StatusNotFound)
			So(body, ShouldEqual, "Not found")
		})

		Convey("When posting a duplicate name", func() {
			So(first(srv.post("dup", "original")), ShouldEqual, http.StatusCreated)
			code, _ := srv.post("dup", "replacement")
			_, body := srv.do(http.MethodGet, "/notes/dup", nil, "")

			Convey("Then it should be 400 and the content unchanged", func() {
				So(code, ShouldEqual, http.StatusBadRequest)
				So(body, ShouldEqual, "original")
			})
		})

		Convey("When posting a name that would escape the directory", func() {
			code, _ := srv.post("../escape", "x")

			Convey("Then it should be rejected", func() {
				So(code, ShouldEqual, http.StatusBadRequest)
				_, err := os.Stat(filepath.Join(filepath.Dir(srv.dir), "escape.txt"))
				So(os.IsNotExist(err), ShouldBeTrue)
			})
		})

		Convey("When several notes exist", func() {
			want := map[string]string{"one": "1", "two": "second note", "three": ""}
			for name, text := range want {
				So(first(srv.post(name, text)), ShouldEqual, http.StatusCreated)
			}
			code, body := srv.do(http.MethodGet, "/notes", nil, "")

			Convey("Then the list should match the files exactly", func() {
				So(code, ShouldEqual, http.StatusOK)
				var notes []types.Note
				So(json.Unmarshal([]byte(body), &notes), ShouldBeNil)
				entries, err := os.ReadDir(srv.dir)
				So(err, ShouldBeNil)
				So(len(notes), ShouldEqual, len(entries))
				for _, n := range notes {
					So(n.Text, ShouldEqual, want[strings.TrimSuffix(n.Name, ".txt")])
				}
			})
		})

		Convey("When the directory is empty", func() {
			_, body := srv.do(http.MethodGet, "/notes", nil, "")
			So(strings.TrimSpace(body), ShouldEqual, "[]")
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given many clients creating the same note", t, func() {
		srv, _ := newTestServer(t, false)

		const clients = 10
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			codes = map[int]int{}
		)
		wg.Add(clients)
		for i := 0; i < clients; i++ {
			go func(i int) {
				defer wg.Done()
				var buf bytes.Buffer
				w := multipart.NewWriter(&buf)
				_ = w.WriteField("note_name", "race")
				_ = w.WriteField("note", fmt.Sprintf("client %d", i))
				_ = w.Close()
				resp, err := http.Post(srv.URL+"/write", w.FormDataContentType(), &buf)
				if err != nil {
					return
				}
				_ = resp.Body.Close()
				mu.Lock()
				codes[resp.StatusCode]++
				mu.Unlock()
			}(i)
		}
		wg.Wait()

		Convey("Then exactly one create should win", func() {
			So(codes[http.StatusCreated], ShouldEqual, 1)
			So(codes[http.StatusBadRequest], ShouldEqual, clients-1)
		})
	})
}

func TestServiceWatch(t *testing.T) {
	Convey("Given a service watching its cache directory", t, func() {
		srv, svc := newTestServer(t, true)
		ctx := context.Background()

		Convey("Then stats should report the watcher", func() {
			So(svc.GetStats(ctx).Watching, ShouldBeTrue)
		})

		Convey("When a file is dropped in from outside", func() {
			So(os.WriteFile(filepath.Join(srv.dir, "outside.txt"), []byte("hi"), 0o600), ShouldBeNil)

			Convey("Then it should be served like any note", func() {
				var code int
				var body string
				deadline := time.Now().Add(2 * time.Second)
				for time.Now().Before(deadline) {
					code, body = srv.do(http.MethodGet, "/notes/outside", nil, "")
					if code == http.StatusOK {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				So(code, ShouldEqual, http.StatusOK)
				So(body, ShouldEqual, "hi")
				So(svc.GetStats(ctx).NotesStored, ShouldEqual, 1)
			})
		})
	})
}

func first(code int, _ string) int { return code }
