package common

import "math"

// AllFinite returns true if none of the values is NaN or ±Inf.
func AllFinite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
