package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// FetchedDocument represents the raw result of a fetch operation.
// The caller owns Body and must close it.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	FetchedAt   time.Time
}

// Fetcher retrieves raw content from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}

// FetchError reports a single failed request. StatusCode is zero when
// the request never produced a response (timeout, DNS failure, refused
// connection).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Deps bundles the collaborators injected into every strategy.
type Deps struct {
	Fetcher Fetcher
	Logger  *zap.Logger
}
