package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
)

const DefaultERAPIURL = "https://open.er-api.com"

// ERAPIProvider is the open.er-api.com fallback for USD fiat rates.
type ERAPIProvider struct {
	client  *http.Client
	baseURL string
}

type erapiResponse struct {
	Result   string             `json:"result"`
	BaseCode string             `json:"base_code"`
	Rates    map[string]float64 `json:"rates"`
}

func NewERAPIProvider(baseURL string, timeout time.Duration) *ERAPIProvider {
	if baseURL == "" {
		baseURL = DefaultERAPIURL
	}
	return &ERAPIProvider{
		client:  newHTTPClient(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (p *ERAPIProvider) GetName() string {
	return "open.er-api"
}

func (p *ERAPIProvider) GetUSDRates(ctx context.Context, quotes []domain.Currency) (map[domain.Currency]float64, error) {
	var resp erapiResponse
	if err := getJSON(ctx, p.client, p.GetName(), p.baseURL+"/v6/latest/USD", &resp); err != nil {
		return nil, err
	}
	if resp.Result != "success" || resp.Rates == nil {
		return nil, fmt.Errorf("%w: open.er-api result %q", domain.ErrMalformedFeed, resp.Result)
	}

	out := make(map[domain.Currency]float64, len(quotes))
	for _, c := range quotes {
		if v, ok := resp.Rates[c.String()]; ok {
			out[c] = v
		}
	}
	return out, nil
}
