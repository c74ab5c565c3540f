package world

import (
	"math"

	"arenagame/config"
)

// StepMove applies one movement intent to a position. Both the server tick
// and the client's prediction replay call this exact function; any drift
// between the two would make reconciliation diverge.
//
// Over-unit (dx,dy) is normalized back to length 1 so malformed intents
// cannot move faster than speed, and the result is clamped to the map
// bounds minus the half-player margin.
func StepMove(x, y, dx, dy, speed, dt float64, g *config.GameConfig) (float64, float64) {
	if mag := math.Hypot(dx, dy); mag > 1 {
		dx /= mag
		dy /= mag
	}

	x += dx * speed * dt
	y += dy * speed * dt

	x = clampCoord(x, g.PlayerHalf, g.MapWidth-g.PlayerHalf)
	y = clampCoord(y, g.PlayerHalf, g.MapHeight-g.PlayerHalf)
	return x, y
}

// ClampPosition confines a position to the playable area. Skill dashes use
// this so a dash can never leave the map.
func ClampPosition(x, y float64, g *config.GameConfig) (float64, float64) {
	return clampCoord(x, g.PlayerHalf, g.MapWidth-g.PlayerHalf),
		clampCoord(y, g.PlayerHalf, g.MapHeight-g.PlayerHalf)
}

func clampCoord(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
