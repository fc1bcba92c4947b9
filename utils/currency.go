package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatAmount renders an amount with '.' thousands separators and, when
// there is a fractional part, two decimals after ','.
// Example: 145000.5 -> "145.000,50"
func FormatAmount(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	cents := int64(math.Round(amount * 100))
	integer, decimal := cents/100, cents%100

	digits := fmt.Sprintf("%d", integer)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	if decimal > 0 {
		return fmt.Sprintf("%s%s,%02d", sign, b.String(), decimal)
	}
	return sign + b.String()
}
