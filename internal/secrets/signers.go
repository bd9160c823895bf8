// Package secrets loads the AQA publisher's signer keys from the
// process environment. Keys are read once at startup and never
// persisted or logged.
package secrets

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/native-markets/aqa-publisher/internal/aqaerr"
)

// Signer pairs a parsed private key with a short, loggable label
// derived from its public address — the private key material itself
// must never appear in logs.
type Signer struct {
	Label string
	Key   *ecdsa.PrivateKey
}

// ParseSigners parses PUBLISHER_PRIVATE_KEY's raw value: one or more
// hex-encoded secp256k1 private keys, comma-separated, each optionally
// 0x-prefixed, with whitespace around commas tolerated. Empty or
// malformed keys abort startup with a ConfigError.
func ParseSigners(raw string) ([]Signer, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &aqaerr.ConfigError{Field: "PUBLISHER_PRIVATE_KEY", Reason: "missing"}
	}

	parts := strings.Split(raw, ",")
	signers := make([]Signer, 0, len(parts))

	for _, part := range parts {
		hexKey := strings.TrimSpace(part)
		if hexKey == "" {
			return nil, &aqaerr.ConfigError{Field: "PUBLISHER_PRIVATE_KEY", Reason: "empty key in comma-separated list"}
		}
		hexKey = strings.TrimPrefix(hexKey, "0x")
		hexKey = strings.TrimPrefix(hexKey, "0X")

		priv, err := crypto.HexToECDSA(hexKey)
		if err != nil {
			return nil, &aqaerr.ConfigError{Field: "PUBLISHER_PRIVATE_KEY", Reason: "malformed key: " + err.Error()}
		}

		address := crypto.PubkeyToAddress(priv.PublicKey)
		signers = append(signers, Signer{Label: address.Hex(), Key: priv})
	}

	return signers, nil
}
