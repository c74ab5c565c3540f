package client

import (
	"math"
	"testing"
	"time"

	"arenagame/config"
)

func newTestInterpolation() (*Interpolation, *config.Config) {
	cfg := config.Default()
	return NewInterpolation(&cfg.Net), cfg
}

func TestInterpolatedAtBracketingPair(t *testing.T) {
	in, cfg := newTestInterpolation()
	base := time.Unix(1000, 0)

	in.AddSnapshot(0, 0, 0, base)
	in.AddSnapshot(100, 200, 0, base.Add(100*time.Millisecond))

	// Render time lands a quarter of the way between the snapshots after
	// the delay is subtracted.
	render := base.Add(25 * time.Millisecond).Add(cfg.Net.InterpolationDelay)
	pose, ok := in.InterpolatedAt(render)
	if !ok {
		t.Fatal("expected a pose")
	}
	near(t, pose.X, 25, 1e-9, "x")
	near(t, pose.Y, 50, 1e-9, "y")
}

func TestInterpolatedRotationWrapsShortPath(t *testing.T) {
	in, cfg := newTestInterpolation()
	base := time.Unix(1000, 0)

	// 170 degrees to -170 degrees: the short path crosses pi, never zero.
	from := 170 * math.Pi / 180
	to := -170 * math.Pi / 180
	in.AddSnapshot(0, 0, from, base)
	in.AddSnapshot(0, 0, to, base.Add(100*time.Millisecond))

	render := base.Add(50 * time.Millisecond).Add(cfg.Net.InterpolationDelay)
	pose, _ := in.InterpolatedAt(render)

	want := math.Pi // halfway through the wrap
	if math.Abs(math.Abs(pose.Rotation)-want) > 1e-9 {
		t.Fatalf(`rotation = %v, want +/-%v`, pose.Rotation, want)
	}
}

func TestInterpolatedAtSingleSnapshot(t *testing.T) {
	in, _ := newTestInterpolation()
	in.AddSnapshot(42, 24, 1, time.Unix(1000, 0))

	pose, ok := in.InterpolatedAt(time.Unix(2000, 0))
	if !ok || pose.X != 42 || pose.Y != 24 {
		t.Fatalf(`pose = %+v ok = %v, want the lone snapshot`, pose, ok)
	}
}

func TestInterpolatedAtEmpty(t *testing.T) {
	in, _ := newTestInterpolation()
	if _, ok := in.InterpolatedAt(time.Unix(1000, 0)); ok {
		t.Fatal("empty buffer should report no pose")
	}
}

func TestInterpolatedAtBeyondNewestFallsBack(t *testing.T) {
	in, _ := newTestInterpolation()
	base := time.Unix(1000, 0)
	in.AddSnapshot(0, 0, 0, base)
	in.AddSnapshot(100, 0, 0, base.Add(100*time.Millisecond))

	pose, ok := in.InterpolatedAt(base.Add(time.Hour))
	if !ok {
		t.Fatal("expected a pose")
	}
	near(t, pose.X, 100, 0, "fallback x")
}

func TestExtrapolatedAtProjectsVelocity(t *testing.T) {
	in, _ := newTestInterpolation()
	base := time.Unix(1000, 0)

	// 100 units per 100ms along x: 1000 units per second.
	in.AddSnapshot(0, 0, 0, base)
	in.AddSnapshot(100, 0, 0, base.Add(100*time.Millisecond))

	pose, ok := in.ExtrapolatedAt(50 * time.Millisecond)
	if !ok {
		t.Fatal("expected a pose")
	}
	near(t, pose.X, 150, 1e-9, "extrapolated x")
	near(t, pose.Y, 0, 1e-9, "extrapolated y")
}

func TestExtrapolatedAtSingleSnapshotHolds(t *testing.T) {
	in, _ := newTestInterpolation()
	in.AddSnapshot(7, 9, 0, time.Unix(1000, 0))

	pose, ok := in.ExtrapolatedAt(time.Second)
	if !ok || pose.X != 7 || pose.Y != 9 {
		t.Fatalf(`pose = %+v ok = %v, want the lone snapshot unchanged`, pose, ok)
	}
}

func TestSnapshotBufferBounded(t *testing.T) {
	in, cfg := newTestInterpolation()
	base := time.Unix(1000, 0)

	for i := 0; i < cfg.Net.MaxSnapshots+5; i++ {
		in.AddSnapshot(float64(i), 0, 0, base.Add(time.Duration(i)*50*time.Millisecond))
	}

	if in.Len() != cfg.Net.MaxSnapshots {
		t.Fatalf(`len = %d, want %d`, in.Len(), cfg.Net.MaxSnapshots)
	}
	latest, _ := in.Latest()
	near(t, latest.X, float64(cfg.Net.MaxSnapshots+4), 0, "latest x")
}

func TestClearEmptiesBuffer(t *testing.T) {
	in, _ := newTestInterpolation()
	in.AddSnapshot(1, 2, 3, time.Unix(1000, 0))

	in.Clear()

	if in.Len() != 0 {
		t.Fatalf(`len after clear = %d, want 0`, in.Len())
	}
}
