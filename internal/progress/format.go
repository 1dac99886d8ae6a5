package progress

import (
	"fmt"
	"math"
)

// Unknown is displayed for values that cannot be determined
const Unknown = "???"

const (
	kib = 1024
	mib = 1024 * 1024
)

// Size renders a byte count as "<n>byte", "<n.nn>kb" or "<n.nn>mb".
// Negative, NaN and infinite values render as Unknown.
func Size(v float64) string {
	if !known(v) {
		return Unknown
	}
	switch {
	case v < kib:
		return fmt.Sprintf("%dbyte", int64(v))
	case v < mib:
		return fmt.Sprintf("%.2fkb", v/kib)
	default:
		return fmt.Sprintf("%.2fmb", v/mib)
	}
}

// Duration renders a number of seconds as "XhYmZs", "YmZs" or "Zs".
// Negative, NaN and infinite values render as Unknown.
func Duration(seconds float64) string {
	if !known(seconds) {
		return Unknown
	}
	total := int64(math.Round(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func known(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
