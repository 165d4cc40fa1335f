// Package bridge talks to the bridge network's off-chain API. The engine
// only resolves metadata here: the canonical denom of an asset on the
// destination chain and a one-time deposit address. Relaying funds across
// chains is the bridge network's business, not ours.
package bridge

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
	jsoniter "github.com/json-iterator/go"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const requestTimeout = 15 * time.Second

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client resolves bridge denominations and deposit addresses.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a bridge API client for the given base URL.
func NewClient(baseURL string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}
}

type denomResponse struct {
	Denom string `json:"denom"`
	Error string `json:"error"`
}

type depositAddressResponse struct {
	DepositAddress string `json:"depositAddress"`
	Error          string `json:"error"`
}

// ResolveDenom looks up the bridge's canonical denomination for the asset
// symbol on the destination chain. Resolution failures are fatal to a
// deposit attempt; there is no retry.
//
// Parameters:
// - ctx: the context for managing the request.
// - symbol: the asset symbol, e.g. "axlUSDC".
// - destinationChain: the chain the asset is delivered on.
//
// Returns:
// - string: the denom.
// - error: ErrDenomNotFound when the bridge has no denom for the pair.
func (c *Client) ResolveDenom(ctx context.Context, symbol string, destinationChain types.Chain) (string, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("chain", destinationChain.String())

	var resp denomResponse
	if err := c.get(ctx, "/v1/denom", query, &resp); err != nil {
		return "", pkgerrors.Wrap(errors.ErrDenomNotFound, err.Error())
	}
	if resp.Error != "" || resp.Denom == "" {
		return "", pkgerrors.Wrapf(errors.ErrDenomNotFound, "symbol %s on %s", symbol, destinationChain)
	}

	return resp.Denom, nil
}

// ResolveDepositAddress requests a one-time deposit address. Funds sent to
// it on the source chain are relayed to the destination chain by the bridge
// network out of band.
//
// Parameters:
// - ctx: the context for managing the request.
// - sourceChain, destinationChain: the transfer endpoints.
// - destinationTokenAddress: the delivered token's address on the destination chain.
// - denom: the bridge denom obtained from ResolveDenom.
//
// Returns:
// - string: the deposit address on the source chain.
// - error: ErrDepositAddressResolution on any failure.
func (c *Client) ResolveDepositAddress(
	ctx context.Context,
	sourceChain, destinationChain types.Chain,
	destinationTokenAddress, denom string,
) (string, error) {
	query := url.Values{}
	query.Set("fromChain", sourceChain.String())
	query.Set("toChain", destinationChain.String())
	query.Set("destinationAddress", destinationTokenAddress)
	query.Set("denom", denom)

	var resp depositAddressResponse
	if err := c.get(ctx, "/v1/deposit-address", query, &resp); err != nil {
		return "", pkgerrors.Wrap(errors.ErrDepositAddressResolution, err.Error())
	}
	if resp.Error != "" || resp.DepositAddress == "" {
		return "", pkgerrors.Wrapf(errors.ErrDepositAddressResolution, "%s -> %s denom %s", sourceChain, destinationChain, denom)
	}

	c.logger.WithFields(logrus.Fields{
		"fromChain": sourceChain,
		"toChain":   destinationChain,
		"denom":     denom,
	}).Debug("Deposit address resolved")

	return resp.DepositAddress, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to build bridge request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(err, "bridge request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return pkgerrors.Errorf("bridge endpoint returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(err, "failed to decode bridge response")
	}
	return nil
}
