package client

import (
	"math"
	"time"

	"arenagame/config"
	"arenagame/utils"
	"arenagame/world"
)

// InputSnapshot is one recorded movement intent, kept until the server
// acknowledges a sequence at or past it.
type InputSnapshot struct {
	Sequence  uint64
	Timestamp time.Time
	Dx, Dy    float64
	X, Y      float64
}

// ServerAck is the authoritative position and last applied sequence for the
// local player, pulled from a state broadcast.
type ServerAck struct {
	X, Y     float64
	Sequence uint64
}

// Prediction makes the local avatar respond immediately to input while
// staying correctable by server truth. Inputs are buffered with strictly
// increasing sequence numbers; on each server ack the unacknowledged tail
// is replayed from the server position with the same kinematic step the
// server uses, so client and server arithmetic cannot drift apart.
type Prediction struct {
	game      *config.GameConfig
	pending   []InputSnapshot
	sequence  uint64
	maxInputs int
	threshold float64
	now       func() time.Time
}

func NewPrediction(game *config.GameConfig, net *config.NetConfig) *Prediction {
	return &Prediction{
		game:      game,
		maxInputs: net.MaxPendingInputs,
		threshold: net.ReconcileThreshold,
		now:       time.Now,
	}
}

// RecordInput buffers one intent and returns the snapshot so the caller can
// put its sequence on the wire. The buffer is a bounded FIFO; the oldest
// entry is dropped silently once the cap is hit.
func (p *Prediction) RecordInput(dx, dy, x, y float64) InputSnapshot {
	p.sequence++
	input := InputSnapshot{
		Sequence:  p.sequence,
		Timestamp: p.now(),
		Dx:        dx,
		Dy:        dy,
		X:         x,
		Y:         y,
	}
	p.pending = append(p.pending, input)
	if len(p.pending) > p.maxInputs {
		p.pending = p.pending[len(p.pending)-p.maxInputs:]
	}
	return input
}

// DropAcknowledged discards every buffered input the server has already
// incorporated. Used on the cheap path when the positions agree closely
// enough that no replay is needed.
func (p *Prediction) DropAcknowledged(sequence uint64) {
	kept := p.pending[:0]
	for _, input := range p.pending {
		if input.Sequence > sequence {
			kept = append(kept, input)
		}
	}
	p.pending = kept
}

// Reconcile rebuilds the predicted position from a server ack: acked inputs
// are dropped, then the remaining tail is replayed from the server position.
// With nothing in flight the server position is the answer outright.
func (p *Prediction) Reconcile(ack ServerAck, speed, dtSec float64) (float64, float64) {
	p.DropAcknowledged(ack.Sequence)

	x, y := ack.X, ack.Y
	for _, input := range p.pending {
		x, y = world.StepMove(x, y, input.Dx, input.Dy, speed, dtSec, p.game)
	}
	return x, y
}

// NeedsReconciliation reports whether predicted and server positions have
// drifted past the correction threshold. Below it the replay is skipped so
// negligible drift never causes visible jitter.
func (p *Prediction) NeedsReconciliation(localX, localY, serverX, serverY float64) bool {
	return math.Hypot(localX-serverX, localY-serverY) > p.threshold
}

// SmoothReconcile takes one lerp step toward the reconciled target, letting
// the caller absorb a large correction over several frames instead of a
// teleport.
func (p *Prediction) SmoothReconcile(currentX, currentY, targetX, targetY, lerpFactor float64) (float64, float64) {
	return utils.Lerp(currentX, targetX, lerpFactor), utils.Lerp(currentY, targetY, lerpFactor)
}

// Clear drops all buffered input and resets the sequence counter. Only for
// a fresh connection; sequences are never reused within one.
func (p *Prediction) Clear() {
	p.pending = nil
	p.sequence = 0
}

func (p *Prediction) Sequence() uint64 {
	return p.sequence
}

func (p *Prediction) PendingCount() int {
	return len(p.pending)
}
