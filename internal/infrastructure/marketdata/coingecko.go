package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mzhur/crypto_paper_trader/internal/domain"
)

const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// symbolToCoinID maps internal perpetual symbols to CoinGecko coin ids.
// Unmapped symbols fall back to the lowercased base name.
var symbolToCoinID = map[string]string{
	"BTC-PERPETUAL":  "bitcoin",
	"ETH-PERPETUAL":  "ethereum",
	"SOL-PERPETUAL":  "solana",
	"BNB-PERPETUAL":  "binancecoin",
	"XRP-PERPETUAL":  "ripple",
	"DOGE-PERPETUAL": "dogecoin",
}

// CoinGeckoClient implements domain.MarketDataSource against the public
// CoinGecko API. Any failure surfaces as ErrDataUnavailable; the client
// performs no retries.
type CoinGeckoClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewCoinGeckoClient(baseURL, apiKey string) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CoinGeckoClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func coinID(symbol string) string {
	if id, ok := symbolToCoinID[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.TrimSuffix(strings.ToLower(symbol), "-perpetual")
}

func (c *CoinGeckoClient) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d: %s",
			domain.ErrDataUnavailable, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrDataUnavailable, path, err)
	}
	return nil
}

// CurrentPrice returns the latest USD price for a symbol.
func (c *CoinGeckoClient) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	id := coinID(symbol)
	params := url.Values{"ids": {id}, "vs_currencies": {"usd"}}

	var data map[string]map[string]float64
	if err := c.get(ctx, "/simple/price", params, &data); err != nil {
		return 0, err
	}
	price, ok := data[id]["usd"]
	if !ok {
		return 0, fmt.Errorf("%w: no usd price for %s", domain.ErrDataUnavailable, symbol)
	}
	return price, nil
}

type marketChartResponse struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// RawSeries returns raw price and volume samples covering days of history
// at the given interval ("minutely" or "hourly").
func (c *CoinGeckoClient) RawSeries(ctx context.Context, symbol string, days int, interval string) (*domain.RawSeries, error) {
	params := url.Values{
		"vs_currency": {"usd"},
		"days":        {strconv.Itoa(days)},
		"interval":    {interval},
	}

	var chart marketChartResponse
	if err := c.get(ctx, "/coins/"+coinID(symbol)+"/market_chart", params, &chart); err != nil {
		return nil, err
	}

	series := &domain.RawSeries{
		Prices:  make([]domain.Sample, 0, len(chart.Prices)),
		Volumes: make([]domain.Sample, 0, len(chart.TotalVolumes)),
	}
	for _, p := range chart.Prices {
		series.Prices = append(series.Prices, domain.Sample{Timestamp: int64(p[0]), Value: p[1]})
	}
	for _, v := range chart.TotalVolumes {
		series.Volumes = append(series.Volumes, domain.Sample{Timestamp: int64(v[0]), Value: v[1]})
	}
	return series, nil
}
