package seed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/jackzampolin/dossier/internal/docerr"
	"github.com/jackzampolin/dossier/internal/document"
	"github.com/jackzampolin/dossier/internal/extract"
	"github.com/jackzampolin/dossier/internal/remote"
	"github.com/jackzampolin/dossier/internal/testutil"
)

func newInitializer(m *document.Model) *Initializer {
	return New(Config{
		Model:   m,
		Loader:  extract.New(extract.Config{Model: m, Rasterizer: &testutil.FakeRasterizer{}}),
		Fetcher: remote.NewFetcher(remote.FetcherConfig{Attempts: 1, Delay: time.Millisecond}),
	})
}

func serve(t *testing.T, docs map[string][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := docs[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRun(t *testing.T) {
	srv := serve(t, map[string][]byte{
		"/files/contract.pdf": testutil.MakePDF(t, 2, "contract"),
		"/files/id.pdf":       testutil.MakePDF(t, 1, "id"),
	})

	m := document.NewModel()
	ini := newInitializer(m)
	if ini.State() != StateUninitialized {
		t.Fatalf("initial state = %s", ini.State())
	}

	err := ini.Run(context.Background(), []Descriptor{
		{Title: "Contract", URL: srv.URL + "/files/contract.pdf"},
		{Title: "Certificates"},
		{Title: "ID", URL: srv.URL + "/files/id.pdf", IncludeSeparatorPage: true},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if ini.State() != StateReady {
		t.Errorf("state = %s, want ready", ini.State())
	}

	groups := m.Groups()
	var got []string
	for _, g := range groups {
		got = append(got, g.Title)
		if !g.IsStatic {
			t.Errorf("group %q is not static", g.Title)
		}
	}
	if !reflect.DeepEqual(got, []string{"Contract", "Certificates", "ID"}) {
		t.Errorf("groups = %v", got)
	}
	if len(groups[0].Pages) != 2 || len(groups[1].Pages) != 0 || len(groups[2].Pages) != 1 {
		t.Errorf("unexpected page counts %d/%d/%d", len(groups[0].Pages), len(groups[1].Pages), len(groups[2].Pages))
	}
	if groups[0].Pages[0].SourceName != "contract.pdf" {
		t.Errorf("source name = %q", groups[0].Pages[0].SourceName)
	}
	if !groups[2].IncludeSeparatorPage {
		t.Error("divider flag not carried over")
	}
}

func TestRun_OnlyOnce(t *testing.T) {
	m := document.NewModel()
	ini := newInitializer(m)
	descs := []Descriptor{{Title: "A"}, {Title: "B"}}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ini.Run(context.Background(), descs)
		}()
	}
	wg.Wait()

	if err := ini.Run(context.Background(), descs); err != nil {
		t.Errorf("repeat Run() error = %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 groups, got %d", m.Len())
	}
}

func TestRun_FetchFailure(t *testing.T) {
	srv := serve(t, map[string][]byte{
		"/a.pdf": testutil.MakePDF(t, 1, "a"),
	})

	m := document.NewModel()
	ini := newInitializer(m)
	err := ini.Run(context.Background(), []Descriptor{
		{Title: "A", URL: srv.URL + "/a.pdf"},
		{Title: "B", URL: srv.URL + "/missing.pdf"},
		{Title: "C", URL: srv.URL + "/a.pdf"},
	})

	var fetchErr *docerr.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if ini.State() != StateReady {
		t.Errorf("state = %s, want ready", ini.State())
	}
	if m.Len() != 3 {
		t.Errorf("expected all 3 sections created, got %d", m.Len())
	}
	groups := m.Groups()
	if len(groups[0].Pages) != 1 || len(groups[2].Pages) != 0 {
		t.Error("loading did not stop at the failed section")
	}
}

func TestRun_LoadFailure(t *testing.T) {
	srv := serve(t, map[string][]byte{
		"/bad.pdf": []byte("not a document"),
	})

	m := document.NewModel()
	err := newInitializer(m).Run(context.Background(), []Descriptor{
		{Title: "Bad", URL: srv.URL + "/bad.pdf"},
	})
	var loadErr *docerr.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if m.TotalPages() != 0 {
		t.Error("pages committed from a failed load")
	}
}

func TestSourceName(t *testing.T) {
	tests := []struct {
		desc Descriptor
		want string
	}{
		{Descriptor{Title: "A", URL: "https://cdn.example.com/emp/7/contract.pdf?sig=abc"}, "contract.pdf"},
		{Descriptor{Title: "B", URL: "https://cdn.example.com/"}, "B.pdf"},
		{Descriptor{Title: "C"}, "C.pdf"},
	}
	for _, tt := range tests {
		if got := SourceName(tt.desc); got != tt.want {
			t.Errorf("SourceName(%q) = %q, want %q", tt.desc.URL, got, tt.want)
		}
	}
}
