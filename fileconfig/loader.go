// Package fileconfig loads engine configuration from a YAML file, the
// standalone alternative to the database-backed dbconfig package.
package fileconfig

import (
	"os"

	"github.com/Azurepeal/matrixswap-lib/common/types"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ChainEntry holds the configuration of a single supported chain.
type ChainEntry struct {
	Name                string `yaml:"name"`
	ChainType           string `yaml:"chainType"`
	ChainID             uint64 `yaml:"chainId"`
	RpcUrl              string `yaml:"rpcUrl"`
	QuoteEndpoint       string `yaml:"quoteEndpoint"`
	NativeToken         string `yaml:"nativeToken"`
	WrappedNativeToken  string `yaml:"wrappedNativeToken"`
	RouteProxyAddress   string `yaml:"routeProxyAddress"`
	ApproveProxyAddress string `yaml:"approveProxyAddress"`
	ExplorerTxURL       string `yaml:"explorerTxUrl"`
	TxType              uint64 `yaml:"txType"`
	WaitNBlocks         uint64 `yaml:"waitNBlocks"`
	PrivateKey          string `yaml:"privateKey"`
}

// OracleEntry holds spot-price oracle configuration.
type OracleEntry struct {
	BaseURL         string                       `yaml:"baseUrl"`
	PlatformIDs     map[string]string            `yaml:"platformIds"`
	WrappedToNative map[string]map[string]string `yaml:"wrappedToNative"`
}

// BridgeEntry holds bridge network API configuration.
type BridgeEntry struct {
	BaseURL string `yaml:"baseUrl"`
}

// EngineEntry holds tunables for the quote refresh loop.
type EngineEntry struct {
	DebounceMillis   int `yaml:"debounceMillis"`
	QuoteMaxAttempts int `yaml:"quoteMaxAttempts"`
	SlippageBps      int `yaml:"slippageBps"`
}

// Config is the top-level configuration structure.
type Config struct {
	Chains           []ChainEntry                 `yaml:"chains"`
	Tokens           map[string][]types.Token     `yaml:"tokens"`
	BridgeableTokens map[string][]types.Token     `yaml:"bridgeableTokens"`
	Oracle           OracleEntry                  `yaml:"oracle"`
	Bridge           BridgeEntry                  `yaml:"bridge"`
	Engine           EngineEntry                  `yaml:"engine"`
}

// Load reads the YAML configuration file from the given path and unmarshals it.
//
// Parameters:
// - path: the configuration file path.
//
// Returns:
// - *Config: the loaded configuration with defaults applied.
// - error: an error if reading, parsing or validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config data from %s", path)
	}

	if cfg.Engine.DebounceMillis <= 0 {
		cfg.Engine.DebounceMillis = 200
	}
	if cfg.Engine.QuoteMaxAttempts <= 0 {
		cfg.Engine.QuoteMaxAttempts = 3
	}
	if cfg.Engine.SlippageBps <= 0 {
		cfg.Engine.SlippageBps = 50
	}

	for _, chain := range cfg.Chains {
		if chain.Name == "" {
			return nil, errors.New("chain entry without a name")
		}
		if chain.RpcUrl == "" {
			return nil, errors.Errorf("chain %s has no rpcUrl", chain.Name)
		}
		if chain.QuoteEndpoint == "" {
			return nil, errors.Errorf("chain %s has no quoteEndpoint", chain.Name)
		}
	}

	return &cfg, nil
}

// ChainConfigs converts the loaded chain entries into runtime configurations.
func (c *Config) ChainConfigs() []*types.ChainConfig {
	configs := make([]*types.ChainConfig, 0, len(c.Chains))
	for _, chain := range c.Chains {
		configs = append(configs, &types.ChainConfig{
			Name:                types.Chain(chain.Name),
			ChainType:           types.ParseChainType(chain.ChainType),
			ChainID:             chain.ChainID,
			RpcUrl:              chain.RpcUrl,
			QuoteEndpoint:       chain.QuoteEndpoint,
			NativeToken:         chain.NativeToken,
			WrappedNativeToken:  chain.WrappedNativeToken,
			RouteProxyAddress:   chain.RouteProxyAddress,
			ApproveProxyAddress: chain.ApproveProxyAddress,
			ExplorerTxURL:       chain.ExplorerTxURL,
			TxType:              chain.TxType,
			WaitNBlocks:         chain.WaitNBlocks,
			PrivateKey:          chain.PrivateKey,
		})
	}
	return configs
}

// TokensFor returns the token list configured for the chain.
func (c *Config) TokensFor(chain types.Chain) []types.Token {
	return c.Tokens[chain.String()]
}

// BridgeableTokensFor returns the bridgeable token list configured for the chain.
func (c *Config) BridgeableTokensFor(chain types.Chain) []types.Token {
	return c.BridgeableTokens[chain.String()]
}
