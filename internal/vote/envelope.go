package vote

import (
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

// domainTypeHash is keccak256 of the EIP-712 domain type string.
var domainTypeHash = crypto.Keccak256([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))

// agentTypeHash is keccak256 of the Agent struct type string.
var agentTypeHash = crypto.Keccak256([]byte("Agent(string source,bytes32 connectionId)"))

// The exchange's fixed EIP-712 domain: name="Exchange", version="1",
// chainId=1337 (literal regardless of target network),
// verifyingContract=0x0.
var (
	domainName    = crypto.Keccak256([]byte("Exchange"))
	domainVersion = crypto.Keccak256([]byte("1"))
	domainChainID = new(big.Int).SetInt64(1337)
)

// mainnetSource and testnetSource are the phantom-agent network bytes
// that bind every signature to a network.
const (
	mainnetSource = "a"
	testnetSource = "b"
)

// domainSeparator computes keccak256(abi.encode(domainTypeHash,
// keccak256(name), keccak256(version), chainId, verifyingContract)).
// verifyingContract is the zero address, so its word is all zero.
func domainSeparator() [32]byte {
	var buf []byte
	buf = append(buf, domainTypeHash...)
	buf = append(buf, domainName...)
	buf = append(buf, domainVersion...)
	buf = append(buf, leftPad32(domainChainID.Bytes())...)
	buf = append(buf, make([]byte, 32)...) // verifyingContract = address(0)
	return [32]byte(crypto.Keccak256(buf))
}

// agentStructHash computes keccak256(abi.encode(agentTypeHash,
// keccak256(source), connectionId)) for the Agent{source, connectionId}
// struct.
func agentStructHash(source string, connectionID [32]byte) [32]byte {
	var buf []byte
	buf = append(buf, agentTypeHash...)
	buf = append(buf, crypto.Keccak256([]byte(source))...)
	buf = append(buf, connectionID[:]...)
	return [32]byte(crypto.Keccak256(buf))
}

// SigningHash computes the final EIP-712 typed-data hash to sign:
// keccak256("\x19\x01" || domainSeparator || structHash(Agent)).
// source is "a" on mainnet, "b" on testnet; connectionID is the action
// hash from ActionHash.
func SigningHash(isMainnet bool, connectionID [32]byte) [32]byte {
	source := mainnetSource
	if !isMainnet {
		source = testnetSource
	}

	domain := domainSeparator()
	structHash := agentStructHash(source, connectionID)

	buf := make([]byte, 0, 2+32+32)
	buf = append(buf, 0x19, 0x01)
	buf = append(buf, domain[:]...)
	buf = append(buf, structHash[:]...)

	return [32]byte(crypto.Keccak256(buf))
}

// leftPad32 left-pads b to 32 bytes, as abi.encode does for uint256.
func leftPad32(b []byte) []byte {
	if len(b) >= 32 {
		return b[len(b)-32:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}
