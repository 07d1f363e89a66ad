// Package upload submits one document per section to a storage endpoint
// as a single multipart request.
//
// Upload never returns an error value. Failures come back as a
// *docerr.UploadError inside the Result so callers can always render a
// specific message.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/jackzampolin/dossier/internal/docerr"
	"github.com/jackzampolin/dossier/internal/document"
	"github.com/jackzampolin/dossier/internal/export"
	"github.com/jackzampolin/dossier/internal/pdf"
)

const (
	DefaultFieldName    = "files"
	DefaultSectionParam = "sections"
	DefaultTenantHeader = "X-Organization-ID"
	DefaultTimeout      = 5 * time.Minute

	// maxErrorBody caps how much of a rejected response is kept.
	maxErrorBody = 4 << 10
)

// Filters restrict which sections are uploaded.
type Filters struct {
	StaticOnly   bool `json:"static_only"`
	NonEmptyOnly bool `json:"non_empty_only"`
}

// Destination is where the batch is posted.
type Destination struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Result is the outcome of an upload. Exactly one of Response and Err is
// meaningful: Err is nil on success.
type Result struct {
	Sections   []string            `json:"sections"`
	StatusCode int                 `json:"status_code,omitempty"`
	Response   any                 `json:"response,omitempty"` // decoded JSON, or the raw body
	Err        *docerr.UploadError `json:"error,omitempty"`
}

// OK reports whether the upload succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Config configures a Packager.
type Config struct {
	Client       *http.Client // default: http.Client with DefaultTimeout
	FieldName    string       // multipart field for every part (default: files)
	SectionParam string       // repeated query parameter naming parts (default: sections)
	TenantHeader string       // required request header (default: X-Organization-ID)
	Logger       *slog.Logger
}

// Packager builds and submits section batches.
type Packager struct {
	client       *http.Client
	fieldName    string
	sectionParam string
	tenantHeader string
	logger       *slog.Logger
}

// New creates a Packager.
func New(cfg Config) *Packager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Packager{
		client:       client,
		fieldName:    orDefault(cfg.FieldName, DefaultFieldName),
		sectionParam: orDefault(cfg.SectionParam, DefaultSectionParam),
		tenantHeader: orDefault(cfg.TenantHeader, DefaultTenantHeader),
		logger:       logger.With("component", "upload"),
	}
}

// part is one section's document.
type part struct {
	title string
	data  []byte
}

// Upload packages every section of snap that passes filters and posts them
// to dest. The i-th multipart part matches the i-th section query value.
func (p *Packager) Upload(ctx context.Context, snap document.Snapshot, filters Filters, dest Destination) Result {
	res := p.upload(ctx, snap, filters, dest)
	if res.Err != nil {
		p.logger.Error("upload failed",
			"kind", res.Err.Kind,
			"status_code", res.Err.StatusCode,
			"sections", len(res.Sections),
			"error", res.Err.Message,
		)
	} else {
		p.logger.Info("uploaded sections", "sections", len(res.Sections), "status_code", res.StatusCode)
	}
	return res
}

func (p *Packager) upload(ctx context.Context, snap document.Snapshot, filters Filters, dest Destination) Result {
	target, err := p.targetURL(dest)
	if err != nil {
		return Result{Err: &docerr.UploadError{Kind: docerr.UploadKindConfig, Message: err.Error(), Err: err}}
	}

	parts, err := p.build(snap, filters)
	var res Result
	for _, pt := range parts {
		res.Sections = append(res.Sections, pt.title)
	}
	if err != nil {
		res.Err = &docerr.UploadError{Kind: docerr.UploadKindPackage, Message: err.Error(), Err: err}
		return res
	}

	q := target.Query()
	for _, pt := range parts {
		q.Add(p.sectionParam, pt.title)
	}
	target.RawQuery = q.Encode()

	body, contentType, err := p.encode(parts)
	if err != nil {
		res.Err = &docerr.UploadError{Kind: docerr.UploadKindPackage, Message: err.Error(), Err: err}
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), body)
	if err != nil {
		res.Err = &docerr.UploadError{Kind: docerr.UploadKindConfig, Message: err.Error(), Err: err}
		return res
	}
	for k, v := range dest.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := p.client.Do(req)
	if err != nil {
		res.Err = &docerr.UploadError{Kind: docerr.UploadKindNetwork, Message: err.Error(), Err: err}
		return res
	}
	defer resp.Body.Close()
	res.StatusCode = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		res.Err = &docerr.UploadError{
			Kind:       docerr.UploadKindStatus,
			StatusCode: resp.StatusCode,
			Message:    statusMessage(resp.StatusCode, raw),
			Body:       string(raw),
		}
		return res
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		res.Err = &docerr.UploadError{Kind: docerr.UploadKindNetwork, Message: fmt.Sprintf("failed to read response: %v", err), Err: err}
		return res
	}
	res.Response = decodeBody(raw)
	return res
}

// targetURL validates the destination and the tenant header.
func (p *Packager) targetURL(dest Destination) (*url.URL, error) {
	if dest.URL == "" {
		return nil, errors.New("upload url is not configured")
	}
	u, err := url.Parse(dest.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid upload url %q", dest.URL)
	}

	h := make(http.Header, len(dest.Headers))
	for k, v := range dest.Headers {
		h.Set(k, v)
	}
	if strings.TrimSpace(h.Get(p.tenantHeader)) == "" {
		return nil, fmt.Errorf("missing required header %s", p.tenantHeader)
	}
	return u, nil
}

// build produces one document per selected section, in model order.
func (p *Packager) build(snap document.Snapshot, filters Filters) ([]part, error) {
	cache := export.NewCache()

	var parts []part
	for _, g := range snap.Sections() {
		if filters.StaticOnly && !g.IsStatic {
			continue
		}
		if filters.NonEmptyOnly && len(g.Pages) == 0 {
			continue
		}

		var data []byte
		if len(g.Pages) == 0 {
			blank, err := pdf.BlankPage()
			if err != nil {
				return parts, fmt.Errorf("failed to build placeholder for %q: %w", g.Title, err)
			}
			data = blank
		} else {
			art, err := export.BuildSection(g, cache)
			if err != nil {
				return parts, fmt.Errorf("failed to build %q: %w", g.Title, err)
			}
			data = art.Data
		}
		parts = append(parts, part{title: g.Title, data: data})
	}

	if len(parts) == 0 {
		return nil, errors.New("no sections selected for upload")
	}
	return parts, nil
}

func (p *Packager) encode(parts []part) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, pt := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.fieldName, export.SectionFileName(pt.title)))
		h.Set("Content-Type", "application/pdf")

		fw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part for %q: %w", pt.title, err)
		}
		if _, err := fw.Write(pt.data); err != nil {
			return nil, "", fmt.Errorf("failed to write part for %q: %w", pt.title, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// decodeBody returns the JSON value of raw, or raw as a string.
func decodeBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

// statusMessage prefers a server-provided message over the status text.
func statusMessage(code int, raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return http.StatusText(code)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
