package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/yourusername/ytb/internal/domain"
)

// DefaultMaxRedirects is the redirect budget of a stream request
const DefaultMaxRedirects = 5

// StreamOpener opens the remote byte stream of a format
type StreamOpener interface {
	// Open returns the stream body and its reported length (non-positive when unknown)
	Open(ctx context.Context, format domain.FormatDescriptor) (io.ReadCloser, int64, error)
}

// HTTPOpener opens streams with a plain HTTP GET on the format URL
type HTTPOpener struct {
	client *http.Client
}

// NewHTTPOpener creates an opener that follows at most maxRedirects redirects
func NewHTTPOpener(maxRedirects int) *HTTPOpener {
	if maxRedirects < 0 {
		maxRedirects = DefaultMaxRedirects
	}
	return &HTTPOpener{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
	}
}

// Open implements StreamOpener
func (o *HTTPOpener) Open(ctx context.Context, format domain.FormatDescriptor) (io.ReadCloser, int64, error) {
	if format.URL == "" {
		return nil, 0, errors.New("format has no stream URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, format.URL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return resp.Body, resp.ContentLength, nil
}
