package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/jackzampolin/dossier/internal/docerr"
)

const (
	DefaultFetchTimeout  = 30 * time.Second
	DefaultFetchAttempts = 3
	DefaultFetchDelay    = 500 * time.Millisecond

	// maxDocumentSize caps a single fetched document.
	maxDocumentSize = 256 << 20
)

// Getter retrieves the bytes behind a URL.
type Getter interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	Client   *http.Client      // default: http.Client with Timeout
	Timeout  time.Duration     // per attempt (default: 30s)
	Attempts uint              // default: 3
	Delay    time.Duration     // initial backoff between attempts (default: 500ms)
	Headers  map[string]string // added to every request
	Logger   *slog.Logger
}

// Fetcher downloads documents over HTTP. Network errors and 5xx responses
// are retried; 4xx responses fail immediately.
type Fetcher struct {
	client   *http.Client
	attempts uint
	delay    time.Duration
	headers  map[string]string
	logger   *slog.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = DefaultFetchAttempts
	}
	delay := cfg.Delay
	if delay <= 0 {
		delay = DefaultFetchDelay
	}

	return &Fetcher{
		client:   client,
		attempts: attempts,
		delay:    delay,
		headers:  cfg.Headers,
		logger:   logger.With("component", "fetch"),
	}
}

// Fetch returns the body at url. Failures are *docerr.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var data []byte

	err := retry.Do(
		func() error {
			body, err := f.get(ctx, url)
			if err != nil {
				return err
			}
			data = body
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(f.attempts),
		retry.Delay(f.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			f.logger.Debug("retrying fetch", "url", url, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		var fetchErr *docerr.FetchError
		if errors.As(err, &fetchErr) {
			return nil, fetchErr
		}
		return nil, &docerr.FetchError{URL: url, Err: err}
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Unrecoverable(&docerr.FetchError{URL: url, Err: err})
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &docerr.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fetchErr := &docerr.FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", resp.Status),
		}
		if resp.StatusCode < 500 {
			return nil, retry.Unrecoverable(fetchErr)
		}
		return nil, fetchErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, &docerr.FetchError{URL: url, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	return body, nil
}
