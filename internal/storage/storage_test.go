package storage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackzampolin/dossier/internal/docerr"
	"github.com/jackzampolin/dossier/internal/remote"
)

const sampleDescriptor = `{
  "employee_id": 42,
  "sections": [
    {"title": "Contract", "url": "https://cdn.example.com/42/contract.pdf", "original_name": "contract-signed.pdf", "uploaded_by": "hr@example.com", "created_at": "2024-01-10T09:00:00Z"},
    {"title": "Certificates", "url": null},
    {"title": "ID Card", "url": "https://cdn.example.com/42/id.pdf", "include_separator_page": true}
  ]
}`

func newClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{
		BaseURL: baseURL,
		Fetcher: remote.NewFetcher(remote.FetcherConfig{Attempts: 1, Delay: time.Millisecond}),
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestDescriptor(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleDescriptor))
	}))
	defer srv.Close()

	desc, err := newClient(t, srv.URL+"/").Descriptor(context.Background(), "42")
	if err != nil {
		t.Fatalf("Descriptor() error = %v", err)
	}
	if gotPath != "/api/employees/42/file" {
		t.Errorf("path = %q", gotPath)
	}
	if desc.EntityID != "42" || len(desc.Sections) != 3 {
		t.Fatalf("unexpected descriptor %+v", desc)
	}
	if desc.Sections[0].UploadedBy != "hr@example.com" || desc.Sections[0].OriginalName != "contract-signed.pdf" {
		t.Errorf("metadata not decoded: %+v", desc.Sections[0])
	}

	seeds := desc.SeedDescriptors()
	if len(seeds) != 3 || seeds[1].URL != "" || !seeds[2].IncludeSeparatorPage {
		t.Errorf("unexpected seed descriptors %+v", seeds)
	}

	entries := desc.Entries()
	if len(entries) != 2 || entries[0].Title != "Contract" || entries[1].Title != "ID Card" {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestParse_Invalid(t *testing.T) {
	c := newClient(t, "http://storage.local")

	tests := map[string]string{
		"not json":         `<html>`,
		"missing sections": `{"employee_id": 1}`,
		"untitled section": `{"sections": [{"url": "https://x/y.pdf"}]}`,
		"empty title":      `{"sections": [{"title": ""}]}`,
		"bad url type":     `{"sections": [{"title": "A", "url": 7}]}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := c.Parse([]byte(raw)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDescriptor_Errors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	c := newClient(t, srv.URL)

	_, err := c.Descriptor(context.Background(), "7")
	var fetchErr *docerr.FetchError
	if !errors.As(err, &fetchErr) || fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 FetchError, got %v", err)
	}

	if _, err := c.Descriptor(context.Background(), ""); err == nil {
		t.Error("expected error for empty entity id")
	}

	if _, err := NewClient(Config{}); err == nil {
		t.Error("expected error without base url")
	}
}

func TestDescriptorURL(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "https://hr.example.com/", DescriptorPath: "/v2/files/{id}"})
	if err != nil {
		t.Fatal(err)
	}
	if got := c.DescriptorURL("a b"); got != "https://hr.example.com/v2/files/a%20b" {
		t.Errorf("DescriptorURL() = %q", got)
	}
}
