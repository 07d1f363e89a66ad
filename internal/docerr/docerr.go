// Package docerr defines the error taxonomy shared by the assembly engine.
//
// LoadError and ExportError are fatal to the call that returns them.
// FetchError is recovered only by the remote assembler. UploadError is
// never returned as an error value; the upload packager hands it back as data.
package docerr

import (
	"fmt"
	"net/http"
)

// LoadError reports source bytes that could not be opened as a document.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %q: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// FetchError reports a network failure or non-2xx response while
// retrieving one remote section.
type FetchError struct {
	URL        string
	StatusCode int // 0 for network failures
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExportError reports a failure assembling or serializing output.
type ExportError struct {
	Op  string
	Err error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed during %s: %v", e.Op, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// UploadKind classifies an upload failure.
type UploadKind string

const (
	UploadKindConfig  UploadKind = "config"
	UploadKindPackage UploadKind = "package"
	UploadKindNetwork UploadKind = "network"
	UploadKindStatus  UploadKind = "status"
)

// UploadError is the structured failure returned by the upload packager.
// It serializes to JSON so callers can render a specific message.
type UploadError struct {
	Kind       UploadKind `json:"kind"`
	StatusCode int        `json:"status_code,omitempty"`
	Message    string     `json:"message"`
	Body       string     `json:"body,omitempty"`
	Err        error      `json:"-"`
}

func (e *UploadError) Error() string {
	switch e.Kind {
	case UploadKindStatus:
		return fmt.Sprintf("upload rejected (%d %s): %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	default:
		return fmt.Sprintf("upload failed (%s): %s", e.Kind, e.Message)
	}
}

func (e *UploadError) Unwrap() error { return e.Err }
