package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackzampolin/dossier/internal/docerr"
	"github.com/jackzampolin/dossier/internal/pdf"
	"github.com/jackzampolin/dossier/internal/testutil"
)

func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, h := range routes {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func servePDF(data []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(data)
	}
}

func fastFetcher() *Fetcher {
	return NewFetcher(FetcherConfig{Attempts: 3, Delay: time.Millisecond, Timeout: 5 * time.Second})
}

func TestAssemble_SkipsFailedSection(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"GET /a.pdf": servePDF(testutil.MakePDF(t, 2, "A")),
		"GET /b.pdf": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		},
		"GET /c.pdf": servePDF(testutil.MakePDF(t, 1, "C")),
	})

	asm := New(Config{Fetcher: fastFetcher()})
	res, err := asm.Assemble(context.Background(), []Entry{
		{Title: "A", URL: srv.URL + "/a.pdf", IncludeSeparatorPage: true},
		{Title: "B", URL: srv.URL + "/b.pdf", IncludeSeparatorPage: true},
		{Title: "C", URL: srv.URL + "/c.pdf"},
	}, Options{Cover: true, CoverTitle: "Employee file"})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if !reflect.DeepEqual(res.Included, []string{"A", "C"}) {
		t.Errorf("Included = %v, want [A C]", res.Included)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Title != "B" {
		t.Errorf("Skipped = %+v, want B", res.Skipped)
	}

	// cover + divider(A) + 2 + 1
	if res.PageCount != 5 {
		t.Errorf("PageCount = %d, want 5", res.PageCount)
	}
	n, err := pdf.PageCount(res.Data)
	if err != nil || n != 5 {
		t.Errorf("serialized pages = %d (err %v), want 5", n, err)
	}
}

func TestAssemble_NonLatinTitles(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"GET /a.pdf": servePDF(testutil.MakePDF(t, 2, "A")),
	})

	for _, title := range []string{"Contratación", "人事档案", ""} {
		res, err := New(Config{Fetcher: fastFetcher()}).Assemble(context.Background(), []Entry{
			{Title: title, URL: srv.URL + "/a.pdf", IncludeSeparatorPage: true},
		}, Options{Cover: true, CoverTitle: title})
		if err != nil {
			t.Fatalf("Assemble(%q) error = %v", title, err)
		}
		// cover + divider + 2
		n, err := pdf.PageCount(res.Data)
		if err != nil || n != 4 || res.PageCount != 4 {
			t.Errorf("Assemble(%q): %d pages, serialized %d (err %v), want 4", title, res.PageCount, n, err)
		}
	}
}

func TestAssemble_UnreadableSection(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"GET /a.pdf": servePDF([]byte("this is not a document")),
		"GET /b.pdf": servePDF(testutil.MakePDF(t, 3, "B")),
	})

	res, err := New(Config{Fetcher: fastFetcher()}).Assemble(context.Background(), []Entry{
		{Title: "A", URL: srv.URL + "/a.pdf"},
		{Title: "B", URL: srv.URL + "/b.pdf"},
	}, Options{})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if res.PageCount != 3 || len(res.Skipped) != 1 {
		t.Errorf("got %d pages and %d skipped, want 3 and 1", res.PageCount, len(res.Skipped))
	}
}

func TestAssemble_NothingAssembled(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"GET /missing.pdf": http.NotFound,
	})

	res, err := New(Config{Fetcher: fastFetcher()}).Assemble(context.Background(), []Entry{
		{Title: "A", URL: srv.URL + "/missing.pdf"},
	}, Options{Cover: true, CoverTitle: "X"})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if res.Data != nil || res.PageCount != 0 {
		t.Errorf("expected empty result, got %d pages", res.PageCount)
	}
}

func TestFetcher(t *testing.T) {
	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		doc := testutil.MakePDF(t, 1, "R")
		srv := newTestServer(t, map[string]http.HandlerFunc{
			"GET /flaky": func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) < 3 {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				_, _ = w.Write(doc)
			},
		})

		data, err := fastFetcher().Fetch(context.Background(), srv.URL+"/flaky")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if len(data) != len(doc) {
			t.Errorf("got %d bytes, want %d", len(data), len(doc))
		}
		if calls.Load() != 3 {
			t.Errorf("expected 3 attempts, got %d", calls.Load())
		}
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := newTestServer(t, map[string]http.HandlerFunc{
			"GET /denied": func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusForbidden)
			},
		})

		_, err := fastFetcher().Fetch(context.Background(), srv.URL+"/denied")
		var fetchErr *docerr.FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected FetchError, got %v", err)
		}
		if fetchErr.StatusCode != http.StatusForbidden {
			t.Errorf("StatusCode = %d, want 403", fetchErr.StatusCode)
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 attempt, got %d", calls.Load())
		}
	})

	t.Run("sends configured headers", func(t *testing.T) {
		var got string
		srv := newTestServer(t, map[string]http.HandlerFunc{
			"GET /doc": func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
				_, _ = w.Write([]byte("ok"))
			},
		})

		f := NewFetcher(FetcherConfig{Headers: map[string]string{"Authorization": "Bearer t"}})
		if _, err := f.Fetch(context.Background(), srv.URL+"/doc"); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if got != "Bearer t" {
			t.Errorf("Authorization = %q", got)
		}
	})

	t.Run("network failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL + "/x"
		srv.Close()

		_, err := fastFetcher().Fetch(context.Background(), url)
		var fetchErr *docerr.FetchError
		if !errors.As(err, &fetchErr) || fetchErr.StatusCode != 0 {
			t.Errorf("expected network FetchError, got %v", err)
		}
	})
}
