package venue

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mselser95/arb-scanner/pkg/types"
)

// fetchJSON issues a GET request and returns the raw response body,
// translating transport and status failures into a *types.VenueError so
// adapters can uniformly fall back to cache.
func fetchJSON(ctx context.Context, client *http.Client, venue types.Venue, op string, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &types.VenueError{Kind: types.ErrConfig, Venue: venue, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		kind := types.ErrNetworkUnavailable
		if ctx.Err() != nil {
			kind = types.ErrNetworkTimeout
		}
		return nil, &types.VenueError{Kind: kind, Venue: venue, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.VenueError{Kind: types.ErrNetworkUnavailable, Venue: venue, Op: op, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &types.VenueError{Kind: types.ErrAuthenticationFail, Venue: venue, Op: op, Err: fmt.Errorf("http %d", resp.StatusCode)}
	default:
		return nil, &types.VenueError{Kind: types.ErrNetworkUnavailable, Venue: venue, Op: op, Err: fmt.Errorf("http %d: %s", resp.StatusCode, string(body))}
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
