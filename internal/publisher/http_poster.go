package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrTerminalStatus marks an HTTP response that must not be retried (any
// 4xx): the request itself is malformed or rejected, and retrying the same
// body would only fail again (spec.md "4xx is terminal").
var ErrTerminalStatus = errors.New("downstream execution service rejected the request")

// HTTPSignalPoster posts a Signal's JSON body to the configured execution
// endpoint, the C6 HTTP sink.
type HTTPSignalPoster struct {
	client   *http.Client
	endpoint string
}

// NewHTTPSignalPoster builds a poster against endpoint using client's
// transport and connection pooling.
func NewHTTPSignalPoster(client *http.Client, endpoint string) *HTTPSignalPoster {
	return &HTTPSignalPoster{client: client, endpoint: endpoint}
}

// Post sends body as a POST with a JSON content type. 2xx is success; 4xx
// wraps ErrTerminalStatus so the sink worker stops retrying; 5xx and
// transport errors are plain errors, eligible for the HTTP sink's retry
// policy.
func (p *HTTPSignalPoster) Post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build signal publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("signal publish request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: status %d", ErrTerminalStatus, resp.StatusCode)
	default:
		return fmt.Errorf("signal publish endpoint returned status %d", resp.StatusCode)
	}
}
