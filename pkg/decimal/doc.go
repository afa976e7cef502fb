// Package decimal decodes fixed-point decimal values stored as 128-bit
// two's-complement integers.
//
// A decimal128 value is an unscaled integer plus a scale; the true value is
// integer / 10^scale. The integer arrives as four 32-bit limbs, least
// significant first, which is how columnar engines lay out decimal128 cells.
//
// Decode is the display codec used by the result grid. It returns the integer
// quotient truncated toward zero and never renders fractional digits:
//
//	Decode(LimbsFromInt64(-12345), 2) // "-123"
//
// Format renders the same value with all scale digits after the point for
// callers that want the mathematical value instead.
package decimal
