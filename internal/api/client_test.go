package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "session not found"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	var out map[string]string
	if err := c.Get(context.Background(), "/health", &out); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if out["status"] != "ok" {
		t.Errorf("unexpected body %v", out)
	}

	err := c.Get(context.Background(), "/missing", nil)
	if err == nil || !strings.Contains(err.Error(), "session not found") {
		t.Errorf("expected server error message, got %v", err)
	}
}

func TestClient_PostFile(t *testing.T) {
	var gotField, gotName, gotGroup string
	var gotData []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
		}
		gotGroup = r.FormValue("group_id")
		for field, files := range r.MultipartForm.File {
			gotField = field
			gotName = files[0].Filename
			f, _ := files[0].Open()
			gotData, _ = io.ReadAll(f)
			f.Close()
		}
		_ = json.NewEncoder(w).Encode(map[string]int{"pages": 2})
	}))
	defer srv.Close()

	var out map[string]int
	err := NewClient(srv.URL).PostFile(context.Background(), "/load", "file", "a.pdf", []byte("%PDF"), map[string]string{"group_id": "g1"}, &out)
	if err != nil {
		t.Fatalf("PostFile() error = %v", err)
	}
	if gotField != "file" || gotName != "a.pdf" || string(gotData) != "%PDF" || gotGroup != "g1" {
		t.Errorf("server saw field=%q name=%q data=%q group=%q", gotField, gotName, gotData, gotGroup)
	}
	if out["pages"] != 2 {
		t.Errorf("unexpected response %v", out)
	}
}

func TestClient_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["cover"] != true {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(ErrorResponse{Error: "cover required"})
			return
		}
		w.Header().Set("Content-Disposition", `attachment; filename="dossier-2024-01-01.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	var buf bytes.Buffer
	name, err := c.Download(context.Background(), "/export", map[string]any{"cover": true}, &buf)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if name != "dossier-2024-01-01.pdf" || buf.String() != "%PDF-1.7" {
		t.Errorf("got name=%q body=%q", name, buf.String())
	}

	buf.Reset()
	if _, err := c.Download(context.Background(), "/export", map[string]any{}, &buf); err == nil {
		t.Error("expected error for rejected export")
	}
	if buf.Len() != 0 {
		t.Error("error body written to destination")
	}
}

func TestOutputTo(t *testing.T) {
	data := map[string]int{"pages": 6}

	var buf bytes.Buffer
	if err := OutputTo(&buf, OutputFormatJSON, data); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"pages": 6`) {
		t.Errorf("unexpected JSON %q", buf.String())
	}

	buf.Reset()
	if err := OutputTo(&buf, OutputFormatYAML, data); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "pages: 6" {
		t.Errorf("unexpected YAML %q", buf.String())
	}

	if err := OutputTo(&buf, "xml", data); err == nil {
		t.Error("expected error for unknown format")
	}
}
