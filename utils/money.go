package utils

import "math"

// ToCents converts a currency amount to integer cents, rounding half away from zero.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

func RoundMoney(amount float64) float64 {
	return FromCents(ToCents(amount))
}
