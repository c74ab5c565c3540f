package client

import (
	"math"
	"testing"

	"arenagame/config"
	"arenagame/world"
)

func newTestPrediction() (*Prediction, *config.Config) {
	cfg := config.Default()
	return NewPrediction(&cfg.Game, &cfg.Net), cfg
}

func near(t *testing.T, got, want, eps float64, label string) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Fatalf(`%s = %v, want %v`, label, got, want)
	}
}

func TestRecordInputSequences(t *testing.T) {
	p, _ := newTestPrediction()

	first := p.RecordInput(1, 0, 100, 100)
	second := p.RecordInput(0, 1, 110, 100)

	if first.Sequence != 1 || second.Sequence != 2 {
		t.Fatalf(`sequences = %d, %d, want 1, 2`, first.Sequence, second.Sequence)
	}
	if p.PendingCount() != 2 {
		t.Fatalf(`pending = %d, want 2`, p.PendingCount())
	}
}

func TestPendingBufferBounded(t *testing.T) {
	p, cfg := newTestPrediction()

	for i := 0; i < cfg.Net.MaxPendingInputs+10; i++ {
		p.RecordInput(1, 0, 0, 0)
	}
	if p.PendingCount() != cfg.Net.MaxPendingInputs {
		t.Fatalf(`pending = %d, want %d`, p.PendingCount(), cfg.Net.MaxPendingInputs)
	}
	// Oldest entries were dropped, not the newest.
	if p.pending[0].Sequence != 11 {
		t.Fatalf(`oldest kept sequence = %d, want 11`, p.pending[0].Sequence)
	}
}

func TestDropAcknowledged(t *testing.T) {
	p, _ := newTestPrediction()
	for i := 0; i < 5; i++ {
		p.RecordInput(1, 0, 0, 0)
	}

	p.DropAcknowledged(3)

	if p.PendingCount() != 2 {
		t.Fatalf(`pending after ack = %d, want 2`, p.PendingCount())
	}
	if p.pending[0].Sequence != 4 {
		t.Fatalf(`first unacked = %d, want 4`, p.pending[0].Sequence)
	}
}

// Replaying the unacknowledged tail from the server position must land on
// the same spot the server will reach once it applies those inputs, because
// both sides run the identical movement step.
func TestReconcileReplaysUnackedInputs(t *testing.T) {
	p, cfg := newTestPrediction()
	speed := cfg.Game.PlayerSpeed
	dt := cfg.Game.TickDelta()

	x, y := 400.0, 400.0
	var inputs []InputSnapshot
	for i := 0; i < 10; i++ {
		inputs = append(inputs, p.RecordInput(1, 0, x, y))
		x, y = world.StepMove(x, y, 1, 0, speed, dt, &cfg.Game)
	}

	// Server has applied inputs 1..3 from the same origin.
	sx, sy := 400.0, 400.0
	for i := 0; i < 3; i++ {
		sx, sy = world.StepMove(sx, sy, 1, 0, speed, dt, &cfg.Game)
	}

	rx, ry := p.Reconcile(ServerAck{X: sx, Y: sy, Sequence: 3}, speed, dt)

	near(t, rx, x, 1e-9, "reconciled x")
	near(t, ry, y, 1e-9, "reconciled y")
	if p.PendingCount() != 7 {
		t.Fatalf(`pending after reconcile = %d, want 7`, p.PendingCount())
	}
	if rx <= sx {
		t.Fatalf(`replayed position %v should be ahead of raw server position %v`, rx, sx)
	}
}

func TestReconcileWithEmptyBuffer(t *testing.T) {
	p, cfg := newTestPrediction()

	x, y := p.Reconcile(ServerAck{X: 123, Y: 456, Sequence: 9}, cfg.Game.PlayerSpeed, cfg.Game.TickDelta())

	near(t, x, 123, 0, "x")
	near(t, y, 456, 0, "y")
}

func TestNeedsReconciliationThreshold(t *testing.T) {
	p, cfg := newTestPrediction()
	threshold := cfg.Net.ReconcileThreshold

	if p.NeedsReconciliation(100, 100, 100+threshold-1, 100) {
		t.Fatal("drift below threshold should not trigger reconciliation")
	}
	if !p.NeedsReconciliation(100, 100, 100+threshold+1, 100) {
		t.Fatal("drift past threshold should trigger reconciliation")
	}
}

func TestSmoothReconcileConverges(t *testing.T) {
	p, _ := newTestPrediction()

	x, y := 0.0, 0.0
	for i := 0; i < 50; i++ {
		x, y = p.SmoothReconcile(x, y, 100, 50, 0.3)
	}

	near(t, x, 100, 0.01, "converged x")
	near(t, y, 50, 0.01, "converged y")
}

func TestClearResetsSequence(t *testing.T) {
	p, _ := newTestPrediction()
	p.RecordInput(1, 0, 0, 0)
	p.RecordInput(1, 0, 0, 0)

	p.Clear()

	if p.PendingCount() != 0 || p.Sequence() != 0 {
		t.Fatalf(`after clear pending = %d sequence = %d, want 0 and 0`, p.PendingCount(), p.Sequence())
	}
	if got := p.RecordInput(1, 0, 0, 0).Sequence; got != 1 {
		t.Fatalf(`sequence after clear = %d, want 1`, got)
	}
}
