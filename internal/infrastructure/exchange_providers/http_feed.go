package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
)

const defaultFeedTimeout = 5 * time.Second

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultFeedTimeout
	}
	return &http.Client{Timeout: timeout}
}

// getJSON fetches url and decodes the body into out.
func getJSON(ctx context.Context, client *http.Client, feed, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get rates from %s: %w", feed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s API returned status: %d", feed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: failed to parse %s response: %v", domain.ErrMalformedFeed, feed, err)
	}
	return nil
}

func lowerCodes(quotes []domain.Currency) string {
	codes := make([]string, 0, len(quotes))
	for _, q := range quotes {
		codes = append(codes, strings.ToLower(q.String()))
	}
	return strings.Join(codes, ",")
}
