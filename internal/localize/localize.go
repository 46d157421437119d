// Package localize finds the bracketing (prev, next) path indices for a
// vehicle state along a consolidated path, robust against the local minima
// a naive nearest-point search hits near cusps.
package localize

import (
	"github.com/cxd309/pathfollow-core/internal/geometry"
)

// Localize returns the bracketing indices (prevIndex, nextIndex) for state s
// along raw, given the controller's current waypoint cursor
// (prevWaypoint, nextWaypoint, lastCusp). raw must have at least two states.
func Localize(raw []geometry.State2D, s geometry.State2D, prevWaypoint, nextWaypoint, lastCusp int) (prevIndex, nextIndex int) {
	lastIdx := len(raw) - 1

	start := max(lastCusp, max(0, nextWaypoint-2))
	end := min(lastIdx, nextWaypoint+2)

	best := start
	bestDist := s.Position.Distance(raw[start].Position)

	for i := start + 1; i < end; i++ {
		if raw[i-1].ComingToStop {
			break
		}
		d := s.Position.Distance(raw[i].Position)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}

	nextIndex = best

	switch {
	case best+1 > lastIdx:
		prevIndex = best - 1

	case best-1 < 0:
		prevIndex = nextIndex
		nextIndex = best + 1

	case best == lastCusp:
		prevIndex = best
		nextIndex = best + 1

	default:
		prevPos := raw[best-1].Position
		nextPos := raw[best+1].Position
		if s.Position.Distance2(prevPos) < s.Position.Distance2(nextPos) {
			prevIndex = best - 1
		} else {
			prevIndex = nextIndex
			nextIndex = best + 1
		}
	}

	if prevIndex > 0 && raw[prevIndex-1].ComingToStop && prevIndex != prevWaypoint {
		prevIndex--
		nextIndex--
	}

	return prevIndex, nextIndex
}
