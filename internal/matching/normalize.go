// Package matching scores and tiers programs from the catalog against a student profile.
package matching

// Grading scales understood by Normalize.
const (
	Scale4   = "4.0"
	Scale5   = "5.0"
	Scale100 = "100"
)

// Normalize converts a grade on the given scale to the 4.0 scale.
// Unknown scales are assumed to already be on 4.0.
func Normalize(value float64, scale string) float64 {
	switch scale {
	case Scale5:
		return value / 5.0 * 4.0
	case Scale100:
		return value / 100 * 4.0
	default:
		return value
	}
}
