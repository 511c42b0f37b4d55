package entity

import "math"

// Money is an amount in cents. Prices and payments are compared in cents so
// that equality checks are exact.
type Money int64

func MoneyFromFloat(v float64) Money {
	return Money(math.Round(v * 100))
}

func (m Money) Float64() float64 {
	return float64(m) / 100
}

func (m Money) Times(n int) Money {
	return m * Money(n)
}
