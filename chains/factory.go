// Package chains provides the factory wiring chain configurations to
// concrete client implementations.
package chains

import (
	"context"

	"github.com/Azurepeal/matrixswap-lib/chains/evm"
	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Factory creates chain clients based on the chain type.
type Factory struct{}

// NewFactory creates a new chain factory instance.
//
// Returns:
// - *Factory: a new chain factory.
func NewFactory() *Factory {
	return &Factory{}
}

// CreateChain creates a chain client for the given configuration.
//
// Parameters:
// - ctx: the context for managing the request.
// - config: the chain configuration.
// - logger: the logger for logging events.
//
// Returns:
// - types.ChainClient: the created chain client.
// - error: an error if the chain type is not supported.
func (f *Factory) CreateChain(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.ChainClient, error) {
	switch config.ChainType {
	case types.EVM:
		return evm.NewEvmChain(ctx, config, logger)
	default:
		return nil, pkgerrors.Wrapf(errors.ErrInvalidChainType, "chain type %s", config.ChainType)
	}
}
