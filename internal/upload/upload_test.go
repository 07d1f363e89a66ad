package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"github.com/jackzampolin/dossier/internal/docerr"
	"github.com/jackzampolin/dossier/internal/document"
	"github.com/jackzampolin/dossier/internal/pdf"
	"github.com/jackzampolin/dossier/internal/testutil"
)

type receivedPart struct {
	filename string
	pages    int
}

type recorder struct {
	mu       sync.Mutex
	sections []string
	parts    []receivedPart
	tenant   string
	status   int
	body     string
}

func (rec *recorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		defer rec.mu.Unlock()

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		rec.sections = r.URL.Query()["sections"]
		rec.tenant = r.Header.Get("X-Organization-ID")
		for _, fh := range r.MultipartForm.File["files"] {
			f, err := fh.Open()
			if err != nil {
				t.Errorf("open part: %v", err)
				continue
			}
			data, _ := io.ReadAll(f)
			f.Close()
			n, err := pdf.PageCount(data)
			if err != nil {
				t.Errorf("part %s is not a PDF: %v", fh.Filename, err)
			}
			rec.parts = append(rec.parts, receivedPart{filename: fh.Filename, pages: n})
		}

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, rec.body)
	}
}

func newModel(t *testing.T) *document.Model {
	t.Helper()

	m := document.NewModel()
	m.AddStaticSection("Contract", false)
	id := m.AddStaticSection("ID Card", true)
	m.AddSeparator("ignored")
	other := m.AddSection("Extra", false)

	for _, g := range []document.Group{id, other} {
		src := document.NewSource(g.Title+".pdf", testutil.MakePDF(t, 2, g.Title))
		pages := []*document.Page{document.NewPage(src, 1), document.NewPage(src, 2)}
		if err := m.AppendPages(g.ID, pages); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func dest(url string) Destination {
	return Destination{URL: url, Headers: map[string]string{"X-Organization-ID": "org-1"}}
}

func TestUpload_OnePartPerSection(t *testing.T) {
	rec := &recorder{body: `{"saved": 3}`}
	srv := httptest.NewServer(rec.handler(t))
	defer srv.Close()

	res := New(Config{}).Upload(context.Background(), newModel(t).Snapshot(), Filters{}, dest(srv.URL+"/api/employees/7/file"))
	if !res.OK() {
		t.Fatalf("Upload() failed: %v", res.Err)
	}

	wantSections := []string{"Contract", "ID Card", "Extra"}
	if !reflect.DeepEqual(res.Sections, wantSections) {
		t.Errorf("Result.Sections = %v", res.Sections)
	}
	if !reflect.DeepEqual(rec.sections, wantSections) {
		t.Errorf("query sections = %v, want %v", rec.sections, wantSections)
	}

	wantParts := []receivedPart{
		{"Contract.pdf", 1}, // blank placeholder
		{"ID Card.pdf", 3},  // divider + 2
		{"Extra.pdf", 2},
	}
	if !reflect.DeepEqual(rec.parts, wantParts) {
		t.Errorf("parts = %+v, want %+v", rec.parts, wantParts)
	}
	if rec.tenant != "org-1" {
		t.Errorf("tenant header = %q", rec.tenant)
	}

	body, ok := res.Response.(map[string]any)
	if !ok || body["saved"] != float64(3) {
		t.Errorf("Response = %#v", res.Response)
	}
}

func TestUpload_NonLatinTitles(t *testing.T) {
	tests := []struct {
		name  string
		title string
	}{
		{"accented", "Contratación"},
		{"cjk", "人事档案"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{body: `{}`}
			srv := httptest.NewServer(rec.handler(t))
			defer srv.Close()

			m := document.NewModel()
			g := m.AddSection(tt.title, true)
			src := document.NewSource("doc.pdf", testutil.MakePDF(t, 2, "doc"))
			if err := m.AppendPages(g.ID, []*document.Page{document.NewPage(src, 1), document.NewPage(src, 2)}); err != nil {
				t.Fatal(err)
			}
			m.AddSection("Empty", true)

			res := New(Config{}).Upload(context.Background(), m.Snapshot(), Filters{}, dest(srv.URL))
			if !res.OK() {
				t.Fatalf("Upload() failed: %v", res.Err)
			}
			if len(rec.parts) != 2 {
				t.Fatalf("got %d parts, want 2", len(rec.parts))
			}
			// divider + 2, then a placeholder for the empty section
			if rec.parts[0].pages != 3 || rec.parts[1].pages != 1 {
				t.Errorf("part pages = %d/%d, want 3/1", rec.parts[0].pages, rec.parts[1].pages)
			}
		})
	}
}

func TestUpload_Filters(t *testing.T) {
	tests := []struct {
		name    string
		filters Filters
		want    []string
	}{
		{"static only", Filters{StaticOnly: true}, []string{"Contract", "ID Card"}},
		{"non-empty only", Filters{NonEmptyOnly: true}, []string{"ID Card", "Extra"}},
		{"both", Filters{StaticOnly: true, NonEmptyOnly: true}, []string{"ID Card"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			srv := httptest.NewServer(rec.handler(t))
			defer srv.Close()

			res := New(Config{}).Upload(context.Background(), newModel(t).Snapshot(), tt.filters, dest(srv.URL))
			if !res.OK() {
				t.Fatalf("Upload() failed: %v", res.Err)
			}
			if !reflect.DeepEqual(rec.sections, tt.want) {
				t.Errorf("sections = %v, want %v", rec.sections, tt.want)
			}
			if len(rec.parts) != len(tt.want) {
				t.Errorf("got %d parts, want %d", len(rec.parts), len(tt.want))
			}
		})
	}
}

func TestUpload_Failures(t *testing.T) {
	t.Run("rejected", func(t *testing.T) {
		rec := &recorder{status: http.StatusUnprocessableEntity, body: `{"message": "unknown section"}`}
		srv := httptest.NewServer(rec.handler(t))
		defer srv.Close()

		res := New(Config{}).Upload(context.Background(), newModel(t).Snapshot(), Filters{}, dest(srv.URL))
		if res.OK() {
			t.Fatal("expected failure")
		}
		if res.Err.Kind != docerr.UploadKindStatus || res.Err.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("unexpected error %+v", res.Err)
		}
		if res.Err.Message != "unknown section" {
			t.Errorf("Message = %q", res.Err.Message)
		}
	})

	t.Run("network", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		res := New(Config{}).Upload(context.Background(), newModel(t).Snapshot(), Filters{}, dest(url))
		if res.OK() || res.Err.Kind != docerr.UploadKindNetwork {
			t.Errorf("expected network error, got %+v", res.Err)
		}
	})

	t.Run("missing tenant header", func(t *testing.T) {
		res := New(Config{}).Upload(context.Background(), newModel(t).Snapshot(), Filters{}, Destination{URL: "http://localhost/upload"})
		if res.OK() || res.Err.Kind != docerr.UploadKindConfig {
			t.Errorf("expected config error, got %+v", res.Err)
		}
	})

	t.Run("missing url", func(t *testing.T) {
		res := New(Config{}).Upload(context.Background(), newModel(t).Snapshot(), Filters{}, Destination{})
		if res.OK() || res.Err.Kind != docerr.UploadKindConfig {
			t.Errorf("expected config error, got %+v", res.Err)
		}
	})

	t.Run("unreadable section", func(t *testing.T) {
		m := document.NewModel()
		g := m.AddSection("Broken", false)
		src := document.NewSource("broken.pdf", []byte("garbage"))
		_ = m.AppendPages(g.ID, []*document.Page{document.NewPage(src, 1)})

		res := New(Config{}).Upload(context.Background(), m.Snapshot(), Filters{}, dest("http://localhost/upload"))
		if res.OK() || res.Err.Kind != docerr.UploadKindPackage {
			t.Errorf("expected package error, got %+v", res.Err)
		}
	})
}

func TestUpload_CustomHeaderAndRawResponse(t *testing.T) {
	var tenant string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant = r.Header.Get("X-Tenant")
		_, _ = io.WriteString(w, "stored")
	}))
	defer srv.Close()

	p := New(Config{TenantHeader: "X-Tenant"})
	res := p.Upload(context.Background(), newModel(t).Snapshot(), Filters{}, Destination{
		URL:     srv.URL,
		Headers: map[string]string{"x-tenant": "acme"},
	})
	if !res.OK() {
		t.Fatalf("Upload() failed: %v", res.Err)
	}
	if tenant != "acme" {
		t.Errorf("tenant = %q", tenant)
	}
	if res.Response != "stored" {
		t.Errorf("Response = %#v, want raw string", res.Response)
	}
}

func TestDecodeBody(t *testing.T) {
	if decodeBody(nil) != nil {
		t.Error("empty body should decode to nil")
	}
	if v, ok := decodeBody([]byte(`[1,2]`)).([]any); !ok || len(v) != 2 {
		t.Error("expected JSON array")
	}
	if decodeBody([]byte("plain")) != "plain" {
		t.Error("expected raw string")
	}
}
