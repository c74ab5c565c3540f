package world

import "math"

type Vector struct {
	X, Y float64
}

func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vector) Scale(s float64) Vector {
	return Vector{X: v.X * s, Y: v.Y * s}
}

func (v Vector) Dist(o Vector) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

func (v Vector) Len() float64 {
	return math.Hypot(v.X, v.Y)
}
