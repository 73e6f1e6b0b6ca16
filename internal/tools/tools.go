package tools

import "github.com/shopspring/decimal"

// Round2 rounds a money value to two decimal places without the usual
// float64 drift (0.1+0.2 style artifacts in derived fields).
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
