// Package config loads the AQA publisher's environment-driven
// configuration: signer keys and network selection. Load reads the
// process environment, optionally seeded from a .env file via
// github.com/joho/godotenv.
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/native-markets/aqa-publisher/internal/secrets"
)

// Network selects which exchange endpoints and phantom-agent source
// byte a run targets.
type Network int

const (
	Mainnet Network = iota
	Testnet
)

func (n Network) String() string {
	if n == Testnet {
		return "testnet"
	}
	return "mainnet"
}

func (n Network) IsMainnet() bool { return n == Mainnet }

// Config is the fully-loaded startup configuration.
type Config struct {
	Network Network
	Signers []secrets.Signer
}

// Load reads PUBLISHER_PRIVATE_KEY and NETWORK from the process
// environment. A .env file in the working directory is loaded first,
// if present, without overriding variables already set in the
// environment (godotenv.Load's default behavior).
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional; absence is not an error

	signers, err := secrets.ParseSigners(os.Getenv("PUBLISHER_PRIVATE_KEY"))
	if err != nil {
		return nil, err
	}

	network := Mainnet
	if os.Getenv("NETWORK") == "testnet" {
		network = Testnet
	}

	return &Config{Network: network, Signers: signers}, nil
}
