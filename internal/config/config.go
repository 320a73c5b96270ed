// Package config loads the service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"wallet-backend/internal/domain"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Postgres  PostgresConfig `yaml:"postgres"`
	Providers ProviderConfig `yaml:"providers"`
	Auth      AuthConfig     `yaml:"auth"`
	Chains    []ChainConfig  `yaml:"chains"`
}

// ServerConfig represents the HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// PostgresConfig represents the user store database connection. An empty URL
// selects the in-memory store.
type PostgresConfig struct {
	URL string `yaml:"url"`
}

// ProviderConfig holds the upstream chain-data and price provider settings.
type ProviderConfig struct {
	ChainDataURL    string `yaml:"chain_data_url"`
	ChainDataAPIKey string `yaml:"chain_data_api_key"`
	PriceURL        string `yaml:"price_url"`
	PriceAPIKey     string `yaml:"price_api_key"`
}

// AuthConfig holds the token sealing secret.
type AuthConfig struct {
	Secret string `yaml:"secret"`
}

// ChainConfig represents one supported chain.
type ChainConfig struct {
	ID                 string   `yaml:"id"`
	ValueUnit          string   `yaml:"value_unit"`
	NativeSymbol       string   `yaml:"native_symbol"`
	NativeDecimals     uint8    `yaml:"native_decimals"`
	RPCEndpoints       []string `yaml:"rpc_endpoints"`
	SwapRouters        []string `yaml:"swap_routers"`
	SwapEventTopic     string   `yaml:"swap_event_topic"`
	WrappedNativeToken string   `yaml:"wrapped_native_token"`
}

// Load loads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.loadEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadEnv() {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if url := os.Getenv("POSTGRES_URL"); url != "" {
		c.Postgres.URL = url
	}
	if url := os.Getenv("CHAIN_DATA_URL"); url != "" {
		c.Providers.ChainDataURL = url
	}
	if key := os.Getenv("CHAIN_DATA_API_KEY"); key != "" {
		c.Providers.ChainDataAPIKey = key
	}
	if url := os.Getenv("PRICE_URL"); url != "" {
		c.Providers.PriceURL = url
	}
	if key := os.Getenv("PRICE_API_KEY"); key != "" {
		c.Providers.PriceAPIKey = key
	}
	if secret := os.Getenv("AUTH_SECRET"); secret != "" {
		c.Auth.Secret = secret
	}
}

func (c *Config) validate() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth secret is required")
	}
	if len(c.Chains) == 0 {
		return fmt.Errorf("at least one chain must be configured")
	}
	for _, chain := range c.Chains {
		if chain.ID == "" {
			return fmt.Errorf("chain id is required")
		}
		if len(chain.RPCEndpoints) == 0 {
			return fmt.Errorf("chain %s: at least one rpc endpoint is required", chain.ID)
		}
	}
	return nil
}

// ChainTable converts the configured chains into the domain form, keyed by
// chain ID.
func (c *Config) ChainTable() map[string]*domain.Chain {
	chains := make(map[string]*domain.Chain, len(c.Chains))
	for _, cc := range c.Chains {
		chains[cc.ID] = &domain.Chain{
			ID:                 cc.ID,
			ValueUnit:          cc.ValueUnit,
			NativeSymbol:       cc.NativeSymbol,
			NativeDecimals:     cc.NativeDecimals,
			RPCEndpoints:       cc.RPCEndpoints,
			SwapRouters:        cc.SwapRouters,
			SwapEventTopic:     cc.SwapEventTopic,
			WrappedNativeToken: cc.WrappedNativeToken,
		}
	}
	return chains
}

// RPCEndpointTable extracts the per-chain RPC endpoint lists, preserving the
// configured failover order.
func (c *Config) RPCEndpointTable() map[string][]string {
	endpoints := make(map[string][]string, len(c.Chains))
	for _, cc := range c.Chains {
		endpoints[cc.ID] = cc.RPCEndpoints
	}
	return endpoints
}
