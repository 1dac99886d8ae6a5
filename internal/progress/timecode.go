package progress

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseTimecode converts a transcoder timecode such as "01:02:05.37" into
// whole seconds. Components are folded left as acc*60+part, so "MM:SS" and
// plain seconds are accepted too.
func ParseTimecode(tc string) (float64, error) {
	tc = strings.TrimSpace(tc)
	if tc == "" {
		return 0, fmt.Errorf("empty timecode")
	}

	var acc float64
	for _, part := range strings.Split(tc, ":") {
		if strings.HasPrefix(part, "-") {
			return 0, fmt.Errorf("invalid timecode %q", tc)
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("invalid timecode %q", tc)
		}
		acc = acc*60 + v
	}
	return math.Round(acc), nil
}
