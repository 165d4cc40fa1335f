package pricing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azurepeal/matrixswap-lib/common/types"
	jsoniter "github.com/json-iterator/go"
	"github.com/patrickmn/go-cache"
	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	// priceCacheTTL bounds how long a fetched spot price is reused.
	priceCacheTTL = 30 * time.Second
	// priceCacheSweep is the expired-entry cleanup interval.
	priceCacheSweep = 5 * time.Minute
	// oracleTimeout bounds a single price request.
	oracleTimeout = 10 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OracleConfig configures the HTTP spot-price oracle.
//
// Fields:
// - BaseURL: the price API base URL.
// - PlatformIDs: maps a chain to the API's asset platform identifier.
// - WrappedToNative: wrapped-native token addresses whose price reads
//   resolve to the native asset's address, per chain.
type OracleConfig struct {
	BaseURL         string
	PlatformIDs     map[types.Chain]string
	WrappedToNative map[types.Chain]map[string]string
}

// HTTPOracle reads USD token prices from a price API, caching responses so
// the quote refresh loop does not hammer the upstream.
type HTTPOracle struct {
	config     OracleConfig
	httpClient *http.Client
	prices     *cache.Cache
	logger     *logrus.Logger
}

// NewHTTPOracle creates an HTTP spot-price oracle.
func NewHTTPOracle(config OracleConfig, logger *logrus.Logger) *HTTPOracle {
	return &HTTPOracle{
		config:     config,
		httpClient: &http.Client{Timeout: oracleTimeout},
		prices:     cache.New(priceCacheTTL, priceCacheSweep),
		logger:     logger,
	}
}

// PriceUSD returns the USD unit price of the token on the chain. A missing
// platform mapping or an upstream response without the token is a miss, not
// an error; the caller renders "impact unknown" for misses.
func (o *HTTPOracle) PriceUSD(ctx context.Context, chain types.Chain, tokenAddress string) (decimal.Decimal, bool, error) {
	tokenAddress = strings.ToLower(tokenAddress)

	// The price feed tracks the native asset, not its wrapped form.
	if remap, ok := o.config.WrappedToNative[chain]; ok {
		if native, ok := remap[tokenAddress]; ok {
			tokenAddress = strings.ToLower(native)
		}
	}

	cacheKey := fmt.Sprintf("%s:%s", chain, tokenAddress)
	if cached, found := o.prices.Get(cacheKey); found {
		return cached.(decimal.Decimal), true, nil
	}

	platform, ok := o.config.PlatformIDs[chain]
	if !ok {
		return decimal.Zero, false, nil
	}

	price, found, err := o.fetch(ctx, platform, tokenAddress)
	if err != nil {
		return decimal.Zero, false, err
	}
	if !found {
		o.logger.WithFields(logrus.Fields{
			"chain": chain,
			"token": tokenAddress,
		}).Debug("Spot price miss")
		return decimal.Zero, false, nil
	}

	o.prices.Set(cacheKey, price, cache.DefaultExpiration)
	return price, true, nil
}

// fetch performs one simple/token_price request.
func (o *HTTPOracle) fetch(ctx context.Context, platform, tokenAddress string) (decimal.Decimal, bool, error) {
	query := url.Values{}
	query.Set("contract_addresses", tokenAddress)
	query.Set("vs_currencies", "usd")

	endpoint := fmt.Sprintf("%s/simple/token_price/%s?%s", o.config.BaseURL, platform, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, false, pkgerrors.Wrap(err, "failed to build price request")
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, false, pkgerrors.Wrap(err, "price request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return decimal.Zero, false, pkgerrors.Errorf("price endpoint returned status %d", resp.StatusCode)
	}

	var payload map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, false, pkgerrors.Wrap(err, "failed to decode price response")
	}

	entry, ok := payload[tokenAddress]
	if !ok {
		return decimal.Zero, false, nil
	}
	price, ok := entry["usd"]
	if !ok {
		return decimal.Zero, false, nil
	}

	return price, true, nil
}
