package utils

import (
	"math"
	"testing"
)

func TestLerp(t *testing.T) {
	if got := Lerp(0, 100, 0.5); got != 50 {
		t.Fatalf(`Lerp(0, 100, 0.5) = %v, want 50`, got)
	}
	if got := Lerp(10, 10, 0.9); got != 10 {
		t.Fatalf(`Lerp(10, 10, 0.9) = %v, want 10`, got)
	}
	if got := Lerp(0, 100, 0); got != 0 {
		t.Fatalf(`Lerp(0, 100, 0) = %v, want 0`, got)
	}
	if got := Lerp(0, 100, 1); got != 100 {
		t.Fatalf(`Lerp(0, 100, 1) = %v, want 100`, got)
	}
}

func TestLerpAngleShortPath(t *testing.T) {
	// 170 degrees to -170 degrees should pass through 180, not 0.
	a := 170 * math.Pi / 180
	b := -170 * math.Pi / 180
	got := LerpAngle(a, b, 0.5)
	want := math.Pi
	if !AlmostEqual(math.Abs(got), want, 1e-9) {
		t.Fatalf(`LerpAngle(170deg, -170deg, 0.5) = %v, want +-%v`, got, want)
	}
}

func TestLerpAngleNoWrap(t *testing.T) {
	got := LerpAngle(0, math.Pi/2, 0.5)
	if !AlmostEqual(got, math.Pi/4, 1e-9) {
		t.Fatalf(`LerpAngle(0, pi/2, 0.5) = %v, want %v`, got, math.Pi/4)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(-5, 0, 10); got != 0 {
		t.Fatalf(`Clamp(-5, 0, 10) = %v, want 0`, got)
	}
	if got := Clamp(15, 0, 10); got != 10 {
		t.Fatalf(`Clamp(15, 0, 10) = %v, want 10`, got)
	}
	if got := Clamp(5, 0, 10); got != 5 {
		t.Fatalf(`Clamp(5, 0, 10) = %v, want 5`, got)
	}
}
