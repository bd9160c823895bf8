// Package vote implements the signed validatorL1Stream vote payload:
// deterministic MessagePack action hashing, the EIP-712 phantom-agent
// envelope, ECDSA signing, and submission to the exchange.
package vote

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vmihailenco/msgpack/v5"
)

// Action is the validatorL1Stream vote action. Field order matters:
// msgpack/v5 encodes exported struct fields in declaration order (a
// map would be reordered), and the exchange's verifier reproduces this
// exact byte sequence with type first and riskFreeRate second.
type Action struct {
	Type         string `msgpack:"type" json:"type"`
	RiskFreeRate string `msgpack:"riskFreeRate" json:"riskFreeRate"`
}

// NewAction builds the vote action for a formatted rate string (the
// output of ratemath.FormatScaled).
func NewAction(rateString string) Action {
	return Action{Type: "validatorL1Stream", RiskFreeRate: rateString}
}

// ActionHash computes keccak256(msgpack(action) || big_endian(nonce) || 0x00),
// the canonical byte string for signing. The result
// depends only on (rate_string, nonce): MessagePack struct encoding
// does not reorder fields regardless of any internal map representation
// an implementation might otherwise use.
func ActionHash(action Action, nonce uint64) ([32]byte, error) {
	encoded, err := msgpack.Marshal(action)
	if err != nil {
		return [32]byte{}, err
	}

	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)

	buf := make([]byte, 0, len(encoded)+8+1)
	buf = append(buf, encoded...)
	buf = append(buf, nonceBytes[:]...)
	buf = append(buf, 0x00)

	return [32]byte(crypto.Keccak256(buf)), nil
}
