// Package ratemath implements the fixed-point rate primitives the AQA
// pipeline is built on: percent-string parsing, day-count basis
// conversion, the AQA scalar, window arithmetic, and the independent
// 30-day compounded-average computation used to cross-check sources.
//
// All rate-forming arithmetic goes through github.com/shopspring/decimal
// instead of float64. The only floating point permitted anywhere in
// this pipeline is the final %.8f submission formatter, applied exactly
// once to the finished AQA rate.
package ratemath

// Scaled is a rate expressed in scaled integer units where 1% ==
// 1_000_000. Scaled rates are never negative by construction; the one
// place a signed interpretation matters is the aggregator's
// plausibility check, which works directly in int64.
type Scaled = uint64

// OneMillion is the scale factor: 1% == OneMillion scaled units.
const OneMillion Scaled = 1_000_000

// MaxRate is the upper plausibility bound: 15%.
const MaxRate Scaled = 15_000_000
