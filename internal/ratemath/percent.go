package ratemath

import (
	"fmt"
	"strings"

	"github.com/native-markets/aqa-publisher/internal/aqaerr"
	"github.com/shopspring/decimal"
)

// ParsePercent converts a decimal percent string (e.g. "4.2932") into a
// scaled integer (1% == 1_000_000), flooring toward zero. It rejects
// empty input, a bare ".", negative values, and scientific notation.
func ParsePercent(s string) (Scaled, error) {
	raw := strings.TrimSpace(s)
	if raw == "" || raw == "." {
		return 0, fmt.Errorf("ratemath: missing percent value")
	}
	if strings.ContainsAny(raw, "eE") {
		return 0, fmt.Errorf("ratemath: scientific notation not allowed: %q", raw)
	}

	dec, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("ratemath: invalid percent value %q: %w", raw, err)
	}
	if dec.IsNegative() {
		return 0, fmt.Errorf("ratemath: negative percent not allowed: %q", raw)
	}

	scaled := dec.Mul(decimal.NewFromInt(int64(OneMillion))).Truncate(0)
	if !scaled.BigInt().IsUint64() {
		return 0, &aqaerr.NumericOverflow{Detail: fmt.Sprintf("percent value %q does not fit a scaled rate", raw)}
	}
	return scaled.BigInt().Uint64(), nil
}

// FormatScaled renders a scaled rate as the "{:.8f}" decimal string of
// scaled/1e8 expected by the validatorL1Stream action payload, e.g.
// 4_500_000 -> "0.04500000".
//
// This is the one place float arithmetic is permitted; it runs once on
// the final AQA rate, never inside the rate-forming path.
func FormatScaled(scaled Scaled) string {
	return fmt.Sprintf("%.8f", float64(scaled)/100_000_000.0)
}
