// Package quote fetches, aggregates and ranks swap quotes from per-chain
// provider endpoints.
package quote

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
	jsoniter "github.com/json-iterator/go"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// calculatePath is the quote computation route on every provider endpoint.
	calculatePath = "/v1/quote/calculate"
	// requestTimeout bounds a single HTTP attempt.
	requestTimeout = 15 * time.Second
	// requestsPerSecond paces calls to a provider endpoint.
	requestsPerSecond = 10
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RetryPolicy is the explicit retry configuration of the quote client.
// Attempts are sequential with no backoff between them.
type RetryPolicy struct {
	MaxAttempts int
}

// DefaultRetryPolicy allows three total attempts per request.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3}

// quoteRequestBody is the wire shape of a calculate call.
type quoteRequestBody struct {
	Options  *types.QuoteRequest `json:"options"`
	MetaData string              `json:"metaData"`
}

// dexAggDto is the aggregated part of a provider response.
type dexAggDto struct {
	ExpectedAmountOut       string                `json:"expectedAmountOut"`
	MetamaskSwapTransaction types.SwapTransaction `json:"metamaskSwapTransaction"`
}

// quoteResponseDto is the full provider response. Ts and Error are stripped
// before the quote is surfaced; a present Error fails the call.
type quoteResponseDto struct {
	DexAgg      dexAggDto              `json:"dexAgg"`
	SingleDexes []types.SingleDexQuote `json:"singleDexes"`
	Ts          int64                  `json:"ts"`
	Error       string                 `json:"error"`
}

// Client talks to quote provider endpoints.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      RetryPolicy
	logger     *logrus.Logger
}

// NewClient creates a quote client with the given retry policy.
//
// Parameters:
// - retry: the retry policy; zero MaxAttempts falls back to the default.
// - logger: the logger for logging events.
//
// Returns:
// - *Client: a new quote client.
func NewClient(retry RetryPolicy, logger *logrus.Logger) *Client {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryPolicy
	}
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		retry:      retry,
		logger:     logger,
	}
}

// Calculate fetches an aggregated quote from the endpoint for the request.
// Transient failures (network errors, non-2xx statuses, provider-reported
// errors) are retried up to the policy's attempt budget; after exhausting it
// the call fails with ErrQuoteFetchFailed.
//
// Parameters:
// - ctx: the context for managing the request.
// - endpoint: the chain's provider endpoint base URL.
// - request: the quote request.
//
// Returns:
// - *types.Quote: the normalized quote.
// - error: an error if every attempt failed.
func (c *Client) Calculate(ctx context.Context, endpoint string, request *types.QuoteRequest) (*types.Quote, error) {
	body, err := json.Marshal(&quoteRequestBody{Options: request, MetaData: "string"})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to marshal quote request")
	}

	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		dto, err := c.attempt(ctx, endpoint, body)
		if err == nil {
			return c.normalize(request, dto), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		c.logger.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"attempt":  attempt,
		}).WithError(err).Warn("Quote fetch attempt failed")
	}

	return nil, pkgerrors.Wrap(errors.ErrQuoteFetchFailed, lastErr.Error())
}

// attempt performs a single HTTP round trip.
func (c *Client) attempt(ctx context.Context, endpoint string, body []byte) (*quoteResponseDto, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+calculatePath, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to build quote request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "quote request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, pkgerrors.Errorf("quote endpoint returned status %d", resp.StatusCode)
	}

	var dto quoteResponseDto
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to decode quote response")
	}
	if dto.Error != "" {
		return nil, pkgerrors.Errorf("quote endpoint reported error: %s", dto.Error)
	}

	return &dto, nil
}

// normalize builds the immutable Quote, dropping the response's ts field.
func (c *Client) normalize(request *types.QuoteRequest, dto *quoteResponseDto) *types.Quote {
	return &types.Quote{
		Chain:             request.SourceChain,
		TokenInAddr:       request.TokenInAddr,
		TokenOutAddr:      request.TokenOutAddr,
		AmountIn:          request.Amount,
		ExpectedAmountOut: dto.DexAgg.ExpectedAmountOut,
		Transaction:       dto.DexAgg.MetamaskSwapTransaction,
		SingleDexes:       dto.SingleDexes,
		FetchedAt:         time.Now(),
	}
}
