// Package fetch issues one HTTP GET per poll per sensor and classifies
// the outcome. Every HTTP result maps to success, throttled or failure;
// nothing escapes unclassified.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"codeberg.org/mutker/purpleair-exporter/internal/errors"
	"codeberg.org/mutker/purpleair-exporter/internal/sensor"
)

const defaultTimeout = 10 * time.Second

// Fields requested from the current API, matching the legacy payload's
// metric surface.
const currentFieldList = "name,pm2.5,pm10.0,temperature,humidity,pressure,last_seen"

type Fetcher struct {
	client *http.Client
}

func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch performs a single GET and returns the response body on 2xx. A
// 429 yields ErrThrottled; transport errors and any other status yield
// ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	errFactory := errors.New()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errFactory.Wrap(ErrFetch, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errFactory.Wrap(ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errFactory.New(ErrThrottled)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errFactory.WithData(ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errFactory.Wrap(ErrFetch, err)
	}

	return body, nil
}

// URL builds the request URL for one unit under the given schema variant.
func URL(variant sensor.SchemaVariant, host, token string, unitID int) string {
	if variant == sensor.VariantCurrent {
		return fmt.Sprintf("https://%s/v1/sensors/%d?token=%s&fields=%s", host, unitID, token, currentFieldList)
	}

	return fmt.Sprintf("https://%s/json?show=%d", host, unitID)
}
