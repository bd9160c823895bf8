package vote

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/native-markets/aqa-publisher/internal/aqaerr"
)

const (
	mainnetExchangeURL = "https://api.hyperliquid.xyz/exchange"
	testnetExchangeURL = "https://api.hyperliquid-testnet.xyz/exchange"
)

// requestTimeout is the fixed per-request HTTP timeout shared with the
// source adapters, applied to the exchange POST. The vote submission
// itself is never retried: the signed payload's nonce is time-bound.
const requestTimeout = 10 * time.Second

// exchangeRequest is the /exchange POST body.
type exchangeRequest struct {
	Action    Action          `json:"action"`
	Nonce     uint64          `json:"nonce"`
	Signature signatureFields `json:"signature"`
}

type signatureFields struct {
	R string `json:"r"`
	S string `json:"s"`
	V uint64 `json:"v"`
}

// exchangeResponse discriminates on the "status" field.
type exchangeResponse struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// Submitter posts signed votes to the exchange's /exchange endpoint.
type Submitter struct {
	httpClient *http.Client
	url        string
	isMainnet  bool
}

// NewSubmitter builds a Submitter targeting mainnet or testnet.
func NewSubmitter(isMainnet bool) *Submitter {
	url := testnetExchangeURL
	if isMainnet {
		url = mainnetExchangeURL
	}
	return NewSubmitterWithEndpoint(url, isMainnet)
}

// NewSubmitterWithEndpoint builds a Submitter against an explicit
// endpoint, bypassing the mainnet/testnet URL selection. Used by tests
// to point at an httptest server while still exercising the real
// signing-hash network binding via isMainnet.
func NewSubmitterWithEndpoint(url string, isMainnet bool) *Submitter {
	return &Submitter{
		httpClient: &http.Client{Timeout: requestTimeout},
		url:        url,
		isMainnet:  isMainnet,
	}
}

// Submit signs and submits a validatorL1Stream vote for rateString
// using priv, returning the exchange's success payload.
func (s *Submitter) Submit(ctx context.Context, priv *ecdsa.PrivateKey, signerLabel, rateString string, nonce uint64) (json.RawMessage, error) {
	action := NewAction(rateString)

	actionHash, err := ActionHash(action, nonce)
	if err != nil {
		return nil, &aqaerr.SigningFailure{Signer: signerLabel, Cause: err}
	}

	digest := SigningHash(s.isMainnet, actionHash)
	sig, err := Sign(priv, digest, signerLabel)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(exchangeRequest{
		Action: action,
		Nonce:  nonce,
		Signature: signatureFields{
			R: fmt.Sprintf("0x%064x", sig.R),
			S: fmt.Sprintf("0x%064x", sig.S),
			V: sig.V,
		},
	})
	if err != nil {
		return nil, &aqaerr.SigningFailure{Signer: signerLabel, Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("vote: building request for signer %s: %w", signerLabel, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vote: submitting for signer %s: %w", signerLabel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vote: signer %s: unexpected HTTP status %d", signerLabel, resp.StatusCode)
	}

	var parsed exchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("vote: signer %s: decoding response: %w", signerLabel, err)
	}

	switch parsed.Status {
	case "ok":
		return parsed.Response, nil
	case "err":
		return nil, fmt.Errorf("vote: signer %s: exchange rejected vote: %s", signerLabel, string(parsed.Response))
	default:
		return nil, fmt.Errorf("vote: signer %s: unrecognized response status %q", signerLabel, parsed.Status)
	}
}
