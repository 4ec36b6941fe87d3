package utils

import (
	"fmt"
	"strings"
)

// FormatCurrencyINR formats an amount using Indian digit grouping.
// Example: 1234567.5 -> "₹ 12,34,567.50"
func FormatCurrencyINR(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	formatted := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(formatted, ".")
	integerPart := parts[0]
	decimalPart := parts[1]

	// Indian grouping: last three digits, then groups of two.
	var grouped string
	if len(integerPart) <= 3 {
		grouped = integerPart
	} else {
		grouped = integerPart[len(integerPart)-3:]
		rest := integerPart[:len(integerPart)-3]
		for len(rest) > 2 {
			grouped = rest[len(rest)-2:] + "," + grouped
			rest = rest[:len(rest)-2]
		}
		grouped = rest + "," + grouped
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s₹ %s.%s", sign, grouped, decimalPart)
}
