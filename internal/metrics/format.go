package metrics

import (
	"fmt"
	"math"
	"strconv"
)

// FormatCompact renders a KPI value: 1.23M, 4.5k or 812. Values under a
// thousand are truncated, not rounded.
func FormatCompact(x float64) string {
	abs := math.Abs(x)
	switch {
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", x/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fk", x/1e3)
	default:
		return strconv.Itoa(int(x))
	}
}
