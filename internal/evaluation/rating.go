package evaluation

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/screening-agent/internal/types"
)

var leadingNumber = regexp.MustCompile(`^[-+]?\d+(\.\d+)?`)

// ClampRating converts a model-provided rating into an integer in [MinRating, MaxRating].
// Numbers are rounded. Strings such as "4" or "4/5" contribute their leading number.
// Anything else becomes MinRating.
func ClampRating(v any) int {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return types.MinRating
		}
		f = parsed
	case string:
		m := leadingNumber.FindString(strings.TrimSpace(x))
		if m == "" {
			return types.MinRating
		}
		parsed, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return types.MinRating
		}
		f = parsed
	default:
		return types.MinRating
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return types.MinRating
	}
	switch {
	case f < types.MinRating:
		return types.MinRating
	case f > types.MaxRating:
		return types.MaxRating
	}
	return int(math.Round(f))
}

func clampRatings(raw map[string]any) map[string]int {
	out := make(map[string]int, len(raw))
	for k, v := range raw {
		out[k] = ClampRating(v)
	}
	return out
}
