package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"mintgate/crypto"
)

// Collection describes the token collection served by the engine.
type Collection struct {
	Name              string `toml:"Name"`
	Symbol            string `toml:"Symbol"`
	BaseURI           string `toml:"BaseURI"`
	TokenURISuffix    string `toml:"TokenURISuffix"`
	MaxMintableSupply uint32 `toml:"MaxMintableSupply"`
	GlobalWalletLimit uint32 `toml:"GlobalWalletLimit"`
}

// Config is the daemon configuration, loaded from TOML.
type Config struct {
	ListenAddress  string `toml:"ListenAddress"`
	MetricsAddress string `toml:"MetricsAddress"`
	DataDir        string `toml:"DataDir"`
	LogFile        string `toml:"LogFile"`

	// Bech32 principal addresses. Owner is required; the rest are optional.
	OwnerAddress     string `toml:"OwnerAddress"`
	EngineAddress    string `toml:"EngineAddress"`
	CosignerAddress  string `toml:"CosignerAddress"`
	CrossmintAddress string `toml:"CrossmintAddress"`

	Collection Collection `toml:"Collection"`
}

// Load reads the configuration from path, writing a default file when none
// exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8545"
	}
	if strings.TrimSpace(cfg.MetricsAddress) == "" {
		cfg.MetricsAddress = ":9464"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./data"
	}
}

// Validate checks address encodings and collection caps.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OwnerAddress) == "" {
		return fmt.Errorf("config: OwnerAddress is required")
	}
	for field, value := range map[string]string{
		"OwnerAddress":     c.OwnerAddress,
		"EngineAddress":    c.EngineAddress,
		"CosignerAddress":  c.CosignerAddress,
		"CrossmintAddress": c.CrossmintAddress,
	} {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if _, err := crypto.DecodeAddress(value); err != nil {
			return fmt.Errorf("config: %s: %w", field, err)
		}
	}
	if c.Collection.GlobalWalletLimit > c.Collection.MaxMintableSupply {
		return fmt.Errorf("config: GlobalWalletLimit exceeds MaxMintableSupply")
	}
	return nil
}

// Address decodes one of the configured bech32 addresses; empty input yields
// the zero address.
func Address(value string) ([20]byte, error) {
	if strings.TrimSpace(value) == "" {
		return [20]byte{}, nil
	}
	addr, err := crypto.DecodeAddress(value)
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Bytes(), nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		Collection: Collection{
			Name:              "Mintgate Collection",
			Symbol:            "MGC",
			MaxMintableSupply: 10000,
		},
	}
	applyDefaults(cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
