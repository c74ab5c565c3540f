package world

import (
	"math"
	"testing"

	"arenagame/config"
)

func TestStepMoveBasic(t *testing.T) {
	g := &config.Default().Game
	x, y := StepMove(100, 100, 1, 0, 200, 0.05, g)
	if x != 110 || y != 100 {
		t.Fatalf(`StepMove right = (%v, %v), want (110, 100)`, x, y)
	}
}

func TestStepMoveClampsToBounds(t *testing.T) {
	g := &config.Default().Game
	cases := []struct {
		name             string
		x, y, dx, dy     float64
		wantX, wantY     float64
	}{
		{"left wall", g.PlayerHalf, 300, -1, 0, g.PlayerHalf, 300},
		{"right wall", g.MapWidth, 300, 1, 0, g.MapWidth - g.PlayerHalf, 300},
		{"top wall", 300, 0, 0, -1, 300, g.PlayerHalf},
		{"bottom wall", 300, g.MapHeight + 500, 0, 1, 300, g.MapHeight - g.PlayerHalf},
	}
	for _, tc := range cases {
		x, y := StepMove(tc.x, tc.y, tc.dx, tc.dy, 10000, 1, g)
		if x != tc.wantX || y != tc.wantY {
			t.Errorf(`%s: StepMove = (%v, %v), want (%v, %v)`, tc.name, x, y, tc.wantX, tc.wantY)
		}
	}
}

func TestStepMoveNormalizesOverUnitIntent(t *testing.T) {
	g := &config.Default().Game
	// A (10, 0) intent must move no further than a (1, 0) intent.
	cheatX, _ := StepMove(400, 400, 10, 0, 200, 0.05, g)
	fairX, _ := StepMove(400, 400, 1, 0, 200, 0.05, g)
	if cheatX != fairX {
		t.Fatalf(`over-unit intent moved to %v, unit intent to %v`, cheatX, fairX)
	}
}

func TestStepMoveDiagonalUnchanged(t *testing.T) {
	g := &config.Default().Game
	// A pre-normalized diagonal passes through untouched.
	d := math.Sqrt2 / 2
	x, y := StepMove(400, 400, d, d, 200, 0.05, g)
	want := 400 + d*200*0.05
	if math.Abs(x-want) > 1e-9 || math.Abs(y-want) > 1e-9 {
		t.Fatalf(`StepMove diagonal = (%v, %v), want (%v, %v)`, x, y, want, want)
	}
}
