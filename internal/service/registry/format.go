package registry

import (
	"fmt"
	"math"
	"strconv"
)

// FormatCurrency renders a revenue figure for dashboards: millions with one
// decimal, thousands rounded to the nearest integer, everything else as the
// literal number.
func FormatCurrency(amount float64) string {
	switch {
	case amount >= 1_000_000:
		return fmt.Sprintf("%.1fM", amount/1_000_000)
	case amount >= 1_000:
		return fmt.Sprintf("%dK", int64(math.Round(amount/1_000)))
	default:
		return strconv.FormatFloat(amount, 'f', -1, 64)
	}
}
