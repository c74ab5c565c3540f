package world

import (
	"math"
	"time"

	"arenagame/config"
)

// SafeZone is the shrinking circle. The radius never grows and the phase
// index only moves forward; both are driven purely by elapsed match time.
type SafeZone struct {
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	CurrentRadius float64 `json:"currentRadius"`
	TargetRadius  float64 `json:"targetRadius"`
	Phase         int     `json:"phase"`
	DamagePerSec  float64 `json:"damagePerSec"`
	IsShrinking   bool    `json:"isShrinking"`
}

// NewSafeZone covers the whole map: centered, with a radius reaching the
// corners so nothing starts outside.
func NewSafeZone(g *config.GameConfig) SafeZone {
	radius := math.Hypot(g.MapWidth/2, g.MapHeight/2)
	return SafeZone{
		X:             g.MapWidth / 2,
		Y:             g.MapHeight / 2,
		CurrentRadius: radius,
		TargetRadius:  radius,
	}
}

// Advance moves the zone through its phase schedule and shrinks the radius
// toward the current target. dt is one tick in seconds.
func (z *SafeZone) Advance(elapsed time.Duration, dt float64, g *config.GameConfig, zc *config.ZoneConfig) {
	maxRadius := math.Hypot(g.MapWidth/2, g.MapHeight/2)

	for i := len(zc.Phases) - 1; i >= 0; i-- {
		phase := zc.Phases[i]
		if elapsed >= phase.Time && z.Phase < i {
			z.Phase = i
			z.DamagePerSec = phase.DamagePerSec
			z.TargetRadius = maxRadius * phase.RadiusFrac
			z.IsShrinking = true
			break
		}
	}

	if z.IsShrinking && z.CurrentRadius > z.TargetRadius {
		// Close the remaining gap so the full shrink spans ShrinkDuration.
		steps := zc.ShrinkDuration.Seconds() / dt
		shrink := (z.CurrentRadius - z.TargetRadius) / steps
		z.CurrentRadius = math.Max(z.TargetRadius, z.CurrentRadius-shrink)
		if z.CurrentRadius <= z.TargetRadius {
			z.IsShrinking = false
		}
	}
}

// Contains reports whether a position is inside the safe radius.
func (z *SafeZone) Contains(pos Vector) bool {
	return pos.Dist(Vector{X: z.X, Y: z.Y}) <= z.CurrentRadius
}
