package oracle

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/vbtc-network/arm/internal/fixmath"
	"github.com/vbtc-network/arm/internal/logger"
)

const httpTimeout = 20 * time.Second

// priceResponse is the JSON body served by the oracle API: the
// reference-asset value of one whole peg asset, as a base-10 integer string
// at 10^18 scale.
type priceResponse struct {
	UnitPrice string `json:"unit_price"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// HTTPClient is an Oracle backed by a JSON price endpoint.
type HTTPClient struct {
	logger   zerolog.Logger
	endpoint string
	client   http.Client
}

// NewHTTPClient returns an Oracle reading quotes from endpoint.
func NewHTTPClient(endpoint string) *HTTPClient {
	return &HTTPClient{
		logger:   logger.GetForComponent("price_oracle"),
		endpoint: endpoint,
		client:   http.Client{Timeout: httpTimeout},
	}
}

// Consult implements Oracle by fetching the current unit price and scaling it
// by the requested amount.
func (c *HTTPClient) Consult(amount sdkmath.Int) (sdkmath.Int, error) {
	req, err := http.NewRequest(http.MethodGet, c.endpoint, nil)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("failed to create oracle request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", c.endpoint).Msg("Oracle request failed")
		return sdkmath.Int{}, fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return sdkmath.Int{}, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("failed to read oracle response: %w", err)
	}

	var quote priceResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		c.logger.Error().Err(err).Str("body", string(body)).Msg("Failed to unmarshal oracle response")
		return sdkmath.Int{}, fmt.Errorf("failed to unmarshal oracle response: %w", err)
	}

	unitPrice, ok := sdkmath.NewIntFromString(quote.UnitPrice)
	if !ok || unitPrice.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("oracle returned invalid unit price %q", quote.UnitPrice)
	}

	c.logger.Debug().
		Str("unit_price", unitPrice.String()).
		Str("amount", amount.String()).
		Msg("Oracle consulted")
	return fixmath.MulDiv(amount, unitPrice, fixmath.ONE)
}
