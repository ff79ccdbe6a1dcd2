package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/LavaJover/vaultx-rates-service/internal/domain"
)

const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider serves both the BTC price feed and the primary USD fiat
// feed from the simple/price endpoint.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
}

// coingecko answers {"<id>": {"<vs currency>": price}}
type simplePriceResponse map[string]map[string]float64

func NewCoinGeckoProvider(baseURL string, timeout time.Duration) *CoinGeckoProvider {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	return &CoinGeckoProvider{
		client:  newHTTPClient(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (p *CoinGeckoProvider) GetName() string {
	return "coingecko"
}

func (p *CoinGeckoProvider) GetBTCPrices(ctx context.Context, quotes []domain.Currency) (map[domain.Currency]float64, error) {
	return p.simplePrice(ctx, "bitcoin", quotes)
}

func (p *CoinGeckoProvider) GetUSDRates(ctx context.Context, quotes []domain.Currency) (map[domain.Currency]float64, error) {
	return p.simplePrice(ctx, "usd", quotes)
}

func (p *CoinGeckoProvider) simplePrice(ctx context.Context, id string, quotes []domain.Currency) (map[domain.Currency]float64, error) {
	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", lowerCodes(quotes))
	endpoint := fmt.Sprintf("%s/simple/price?%s", p.baseURL, q.Encode())

	var resp simplePriceResponse
	if err := getJSON(ctx, p.client, p.GetName(), endpoint, &resp); err != nil {
		return nil, err
	}

	prices, ok := resp[id]
	if !ok {
		return nil, fmt.Errorf("%w: coingecko response has no %q object", domain.ErrMalformedFeed, id)
	}

	out := make(map[domain.Currency]float64, len(quotes))
	for _, c := range quotes {
		if v, ok := prices[strings.ToLower(c.String())]; ok {
			out[c] = v
		}
	}
	return out, nil
}
