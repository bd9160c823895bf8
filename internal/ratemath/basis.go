package ratemath

// AdjustBasis converts a scaled rate from an ACT/360 basis to an
// ACT/365.25 basis: floor(rate * 487 / 480), the integer-exact form of
// rate * 365.25/360. The ratio 487/480 is used literally, never a
// floating point approximation.
func AdjustBasis(rate Scaled) Scaled {
	return rate * 487 / 480
}

// aqaScalarNumerator and aqaScalarDenominator express the 85% AQA
// scalar as an exact integer ratio, avoiding floating point rounding
// in the rate-forming path.
const aqaScalarNumerator Scaled = 85
const aqaScalarDenominator Scaled = 100

// AQAScale applies the fixed 85% AQA scalar: floor(rate * 85 / 100).
func AQAScale(rate Scaled) Scaled {
	return rate * aqaScalarNumerator / aqaScalarDenominator
}

// AQARefRate derives the published AQA reference rate from a validated
// median rate: floor(AQAScale(AdjustBasis(rate))). The order, basis
// adjust then scale, is mandatory for deterministic flooring.
func AQARefRate(medianRate Scaled) Scaled {
	return AQAScale(AdjustBasis(medianRate))
}
