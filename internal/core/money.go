package core

import "strconv"

// Money is an amount in whole yen. The club operates in a single currency
// with no fractional unit, so plain integers cover every computation in
// the engine.
type Money int64

// Yen returns the raw integer amount.
func (m Money) Yen() int64 { return int64(m) }

// String formats the amount as "¥1234" (or "-¥1234").
func (m Money) String() string {
	if m < 0 {
		return "-¥" + strconv.FormatInt(int64(-m), 10)
	}
	return "¥" + strconv.FormatInt(int64(m), 10)
}

// Validate rejects negative amounts. Zero is allowed: unset fees and
// rates default to zero throughout the fee computations.
func (m Money) Validate() error {
	if m < 0 {
		return ErrNegativeAmount
	}
	return nil
}
