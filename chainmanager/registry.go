package chainmanager

import (
	"context"
	"sync"

	"github.com/Azurepeal/matrixswap-lib/common/errors"
	"github.com/Azurepeal/matrixswap-lib/common/types"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ChainFactory creates chain clients from configurations.
type ChainFactory interface {
	CreateChain(ctx context.Context, config *types.ChainConfig, logger *logrus.Logger) (types.ChainClient, error)
}

type blockchainRegistry struct {
	logger       *logrus.Logger
	chains       map[types.Chain]types.ChainClient
	configs      map[types.Chain]*types.ChainConfig
	chainsMutex  sync.RWMutex
	factory      ChainFactory
	factoryMutex sync.RWMutex
}

// NewChainRegistry creates a registry that builds clients through the factory.
//
// Parameters:
// - factory: the factory producing chain clients for configurations.
// - logger: the logger for logging events.
//
// Returns:
// - types.ChainRegistry: a new chain registry instance.
func NewChainRegistry(factory ChainFactory, logger *logrus.Logger) types.ChainRegistry {
	return &blockchainRegistry{
		chains:  make(map[types.Chain]types.ChainClient),
		configs: make(map[types.Chain]*types.ChainConfig),
		factory: factory,
		logger:  logger,
	}
}

// Add creates a client for the configuration and registers it under the
// chain name. Registering a chain twice is an error; Remove it first.
func (r *blockchainRegistry) Add(ctx context.Context, config *types.ChainConfig) error {
	if config == nil {
		return errors.ErrInvalidConfig
	}

	r.chainsMutex.RLock()
	_, exists := r.chains[config.Name]
	r.chainsMutex.RUnlock()
	if exists {
		return pkgerrors.Wrapf(errors.ErrChainExists, "chain %s", config.Name)
	}

	// Lock factory for reading to prevent changes during chain creation.
	r.factoryMutex.RLock()
	factory := r.factory
	r.factoryMutex.RUnlock()

	if factory == nil {
		return errors.ErrFactoryNotProvided
	}

	chain, err := factory.CreateChain(ctx, config, r.logger)
	if err != nil {
		return err
	}

	r.chainsMutex.Lock()
	r.chains[config.Name] = chain
	r.configs[config.Name] = config
	r.chainsMutex.Unlock()

	r.logger.WithFields(logrus.Fields{
		"chain":   config.Name,
		"chainId": config.ChainID,
	}).Info("Chain registered")

	return nil
}

// Get retrieves a registered chain client, nil when unknown.
func (r *blockchainRegistry) Get(chain types.Chain) types.ChainClient {
	r.chainsMutex.RLock()
	client := r.chains[chain]
	r.chainsMutex.RUnlock()
	return client
}

// Config retrieves the configuration the chain was registered with.
func (r *blockchainRegistry) Config(chain types.Chain) *types.ChainConfig {
	r.chainsMutex.RLock()
	config := r.configs[chain]
	r.chainsMutex.RUnlock()
	return config
}

// Remove removes a chain client from the registry.
func (r *blockchainRegistry) Remove(chain types.Chain) {
	r.chainsMutex.Lock()
	delete(r.chains, chain)
	delete(r.configs, chain)
	r.chainsMutex.Unlock()
}
