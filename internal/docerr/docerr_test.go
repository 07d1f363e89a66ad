package docerr

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestErrorsUnwrap(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"load", &LoadError{Source: "a.pdf", Err: io.ErrUnexpectedEOF}},
		{"fetch", &FetchError{URL: "http://x/a.pdf", Err: io.ErrUnexpectedEOF}},
		{"export", &ExportError{Op: "merge", Err: io.ErrUnexpectedEOF}},
		{"upload", &UploadError{Kind: UploadKindNetwork, Message: "boom", Err: io.ErrUnexpectedEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, io.ErrUnexpectedEOF) {
				t.Errorf("expected %v to wrap io.ErrUnexpectedEOF", tt.err)
			}
		})
	}
}

func TestFetchError_Message(t *testing.T) {
	err := &FetchError{URL: "http://x/a.pdf", StatusCode: 404}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("expected status in message, got %q", err.Error())
	}
}

func TestUploadError_As(t *testing.T) {
	var wrapped error = &UploadError{Kind: UploadKindStatus, StatusCode: 500, Message: "server exploded"}

	var upErr *UploadError
	if !errors.As(wrapped, &upErr) {
		t.Fatal("expected errors.As to match *UploadError")
	}
	if !strings.Contains(upErr.Error(), "500") {
		t.Errorf("expected status code in message, got %q", upErr.Error())
	}
}
