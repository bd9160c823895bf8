package vote

import (
	"crypto/ecdsa"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/native-markets/aqa-publisher/internal/aqaerr"
)

var errInvalidSigLength = errors.New("crypto.Sign returned unexpected signature length")

// Signature is a produced (r, s, v) ECDSA signature over a 32-byte
// digest, with v normalized to the low-27 form.
type Signature struct {
	R *big.Int
	S *big.Int
	V uint64
}

// Sign produces a (r, s, v) signature over digest using priv, with
// v ∈ {27, 28} (the raw recovery id is normalized by adding 27).
func Sign(priv *ecdsa.PrivateKey, digest [32]byte, signerLabel string) (Signature, error) {
	sig, err := crypto.Sign(digest[:], priv)
	if err != nil {
		return Signature{}, &aqaerr.SigningFailure{Signer: signerLabel, Cause: err}
	}
	if len(sig) != 65 {
		return Signature{}, &aqaerr.SigningFailure{Signer: signerLabel, Cause: errInvalidSigLength}
	}

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	v := uint64(sig[64]) + 27

	return Signature{R: r, S: s, V: v}, nil
}
