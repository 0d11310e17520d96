package cards

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultFeedTimeout = 10 * time.Second

type httpFeedSource struct {
	client *http.Client
	url    string
}

// NewHTTPFeedSource reads recent records from a jetstream-worker style endpoint
// returning {"records":[{"uri","did","rkey","record"}]}.
func NewHTTPFeedSource(url string, timeout time.Duration) FeedSource {
	if timeout <= 0 {
		timeout = defaultFeedTimeout
	}
	return &httpFeedSource{
		client: &http.Client{Timeout: timeout},
		url:    url,
	}
}

func (f *httpFeedSource) FetchRecent(ctx context.Context) ([]RawEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch card feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Limit error body to 1KB
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", ErrFeedUnavailable, resp.StatusCode, string(body))
	}

	var payload struct {
		Records []RawEntry `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode card feed: %w", err)
	}

	return payload.Records, nil
}
