package fsrs

import (
	"fmt"
	"math"
)

// FormatInterval renders an interval in days as a short label for the review
// buttons. Zero and negative intervals collapse to "Now".
func FormatInterval(days float64) string {
	if days < 0.001 {
		return "Now"
	}
	minutes := days * 24 * 60
	switch {
	case minutes < 1:
		return "<1m"
	case days < 1.0/24:
		return fmt.Sprintf("%dm", int(math.Round(minutes)))
	case days < 1:
		return fmt.Sprintf("%dh", int(math.Round(days*24)))
	case days < 30:
		return fmt.Sprintf("%dd", int(math.Round(days)))
	case days < 365:
		return fmt.Sprintf("%dmo", int(math.Round(days/30)))
	default:
		return fmt.Sprintf("%dy", int(math.Round(days/365)))
	}
}
