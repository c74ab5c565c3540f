package client

import (
	"time"

	"arenagame/config"
	"arenagame/utils"
)

// PositionSnapshot is one timestamped authoritative pose for a remote
// entity. Never mutated after insertion.
type PositionSnapshot struct {
	X, Y      float64
	Rotation  float64
	Timestamp time.Time
}

// Interpolation renders a remote entity slightly in the past so there are
// almost always two real snapshots bracketing the render time, hiding
// snapshot arrival jitter. One instance per remote entity.
type Interpolation struct {
	snapshots []PositionSnapshot
	max       int
	delay     time.Duration
	now       func() time.Time
}

func NewInterpolation(net *config.NetConfig) *Interpolation {
	return &Interpolation{
		max:   net.MaxSnapshots,
		delay: net.InterpolationDelay,
		now:   time.Now,
	}
}

// AddSnapshot appends a pose. A zero timestamp means "stamp it on arrival",
// which also makes out-of-order delivery harmless: the buffer orders by
// insertion and the lookup goes by time.
func (i *Interpolation) AddSnapshot(x, y, rotation float64, timestamp time.Time) {
	if timestamp.IsZero() {
		timestamp = i.now()
	}
	i.snapshots = append(i.snapshots, PositionSnapshot{
		X: x, Y: y, Rotation: rotation, Timestamp: timestamp,
	})
	if len(i.snapshots) > i.max {
		i.snapshots = i.snapshots[len(i.snapshots)-i.max:]
	}
}

// InterpolatedAt returns the pose for renderTime minus the interpolation
// delay. With a bracketing pair it lerps between them (rotation by shortest
// angular path); with one snapshot it returns that; with none, ok is false.
// A render time outside the buffered range falls back to the newest pose.
func (i *Interpolation) InterpolatedAt(renderTime time.Time) (PositionSnapshot, bool) {
	if len(i.snapshots) == 0 {
		return PositionSnapshot{}, false
	}
	if len(i.snapshots) == 1 {
		return i.snapshots[0], true
	}
	if renderTime.IsZero() {
		renderTime = i.now()
	}
	target := renderTime.Add(-i.delay)

	for n := 0; n < len(i.snapshots)-1; n++ {
		older, newer := i.snapshots[n], i.snapshots[n+1]
		if older.Timestamp.After(target) || newer.Timestamp.Before(target) {
			continue
		}
		total := newer.Timestamp.Sub(older.Timestamp).Seconds()
		t := 0.0
		if total > 0 {
			t = utils.Clamp(target.Sub(older.Timestamp).Seconds()/total, 0, 1)
		}
		return PositionSnapshot{
			X:         utils.Lerp(older.X, newer.X, t),
			Y:         utils.Lerp(older.Y, newer.Y, t),
			Rotation:  utils.LerpAngle(older.Rotation, newer.Rotation, t),
			Timestamp: target,
		}, true
	}

	return i.snapshots[len(i.snapshots)-1], true
}

// ExtrapolatedAt projects the newest pose forward by delta using the
// velocity implied by the last two snapshots. Covers brief snapshot gaps so
// entities do not visibly freeze.
func (i *Interpolation) ExtrapolatedAt(delta time.Duration) (PositionSnapshot, bool) {
	if len(i.snapshots) == 0 {
		return PositionSnapshot{}, false
	}
	latest := i.snapshots[len(i.snapshots)-1]
	if len(i.snapshots) == 1 {
		return latest, true
	}
	previous := i.snapshots[len(i.snapshots)-2]

	dt := latest.Timestamp.Sub(previous.Timestamp).Seconds()
	if dt <= 0 {
		return latest, true
	}
	ahead := delta.Seconds()
	return PositionSnapshot{
		X:         latest.X + (latest.X-previous.X)/dt*ahead,
		Y:         latest.Y + (latest.Y-previous.Y)/dt*ahead,
		Rotation:  latest.Rotation + (latest.Rotation-previous.Rotation)/dt*ahead,
		Timestamp: latest.Timestamp.Add(delta),
	}, true
}

// Latest returns the newest buffered pose.
func (i *Interpolation) Latest() (PositionSnapshot, bool) {
	if len(i.snapshots) == 0 {
		return PositionSnapshot{}, false
	}
	return i.snapshots[len(i.snapshots)-1], true
}

func (i *Interpolation) Len() int {
	return len(i.snapshots)
}

// Clear empties the buffer, for entity despawn or respawn.
func (i *Interpolation) Clear() {
	i.snapshots = nil
}
