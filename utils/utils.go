package utils

import "math"

func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpAngle interpolates between two angles in radians, always taking the
// short way around the -pi/pi wrap.
func LerpAngle(a, b, t float64) float64 {
	diff := b - a
	for diff > math.Pi {
		diff -= 2 * math.Pi
	}
	for diff < -math.Pi {
		diff += 2 * math.Pi
	}
	return a + diff*t
}

func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func AlmostEqual(a, b, threshold float64) bool {
	return math.Abs(a-b) <= threshold
}
