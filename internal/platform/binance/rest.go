package binance

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

	"github.com/quantfold/trendbot/internal/crypto"
	"github.com/quantfold/trendbot/internal/domain"
)

const (
	// DefaultRESTBase is the public spot REST endpoint.
	DefaultRESTBase = "https://api.binance.com"

	// orderPath is the order entry endpoint.
	orderPath = "/api/v3/order"
)

// RESTClient places signed orders against the Binance spot REST API.
type RESTClient struct {
	baseURL    string
	auth       *crypto.HMACAuth
	httpClient *http.Client
}

// NewRESTClient creates a REST client. Pass an empty baseURL to use
// DefaultRESTBase (override it for the testnet).
func NewRESTClient(baseURL string, auth *crypto.HMACAuth) *RESTClient {
	if baseURL == "" {
		baseURL = DefaultRESTBase
	}
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// PlaceOrder submits a limit GTC order built from the intent. The intent ID
// rides along as the client order ID so fills can be correlated back.
func (c *RESTClient) PlaceOrder(ctx context.Context, it domain.OrderIntent) (OrderResponse, error) {
	params := url.Values{}
	params.Set("symbol", it.Symbol)
	params.Set("side", string(it.Side))
	params.Set("type", "LIMIT")
	params.Set("timeInForce", "GTC")
	params.Set("quantity", formatDecimal(it.Quantity))
	params.Set("price", formatDecimal(it.Price))
	params.Set("newClientOrderId", it.ID)

	body := c.auth.SignQuery(params)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+orderPath, strings.NewReader(body))
	if err != nil {
		return OrderResponse{}, fmt.Errorf("binance: building order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(crypto.APIKeyHeader, c.auth.Key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("binance: placing order: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return OrderResponse{}, fmt.Errorf("binance: reading order response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr APIError
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Message != "" {
			return OrderResponse{}, &apiErr
		}
		return OrderResponse{}, fmt.Errorf("binance: order rejected with status %d: %s", resp.StatusCode, truncate(data, 256))
	}

	var out OrderResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return OrderResponse{}, fmt.Errorf("binance: decoding order response: %w", err)
	}
	return out, nil
}

// formatDecimal renders qty/price the way the exchange expects: fixed
// notation, 8 decimal places, no exponent.
func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
