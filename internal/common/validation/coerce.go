package validation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number reads a job variable that may hold a number or a numeric string.
// Anything else, including zero and NaN, is reported as absent.
func Number(v interface{}) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Integer is Number truncated toward zero.
func Integer(v interface{}) *int {
	f := Number(v)
	if f == nil {
		return nil
	}
	i := int(*f)
	if i == 0 {
		return nil
	}
	return &i
}
