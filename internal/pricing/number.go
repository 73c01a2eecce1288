package pricing

import (
	"math"
	"strconv"
	"strings"
)

// Number is a monetary or quantity input that tolerates malformed JSON.
// Live form edits routinely produce cleared fields, numeric strings and
// nulls; all of those decode to zero instead of failing the request.
type Number float64

// UnmarshalJSON accepts JSON numbers, numeric strings, null and empty
// strings. Anything that cannot be parsed as a number becomes zero. It
// never returns an error.
func (n *Number) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*n = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2 {
		raw = strings.TrimSpace(raw[1 : len(raw)-1])
		if raw == "" {
			*n = 0
			return nil
		}
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(parsed)
	return nil
}

// Float64 returns the numeric value with NaN and infinities coerced to zero.
func (n Number) Float64() float64 {
	v := float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Round2 rounds a monetary amount to two decimal places, half toward
// positive infinity, matching the Math.round based arithmetic the quote
// forms have always used.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Floor(v*100+0.5) / 100
}
