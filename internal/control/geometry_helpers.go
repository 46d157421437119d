package control

import "github.com/cxd309/pathfollow-core/internal/geometry"

// perpendicularFoot projects point onto the line through prev and next,
// using the axis-aligned special case to avoid division by zero when the
// segment is vertical.
func perpendicularFoot(point, prev, next geometry.Vector2D) geometry.Vector2D {
	if next.X == prev.X {
		return geometry.Vector2D{X: next.X, Y: point.Y}
	}

	m := (next.Y - prev.Y) / (next.X - prev.X)
	m2 := m * m
	b := next.Y - m*next.X

	return geometry.Vector2D{
		X: (m*point.Y + point.X - m*b) / (m2 + 1),
		Y: (m2*point.Y + m*point.X + b) / (m2 + 1),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// quantizeMilli truncates v toward zero to the nearest 0.001, matching the
// actuator's millirad/milli-(m/s) command resolution.
func quantizeMilli(v float64) float64 {
	return float64(int(v*1000)) * 0.001
}
