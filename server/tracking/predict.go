package tracking

import (
	"math"
	"time"

	"github.com/cyclopcam/overwatch/pkg/nn"
)

// PredictTrajectory extrapolates the next 'frames' positions of a track, by advancing
// from its last known position along its current speed and direction, by speed*dt per frame.
// Returns nil if the track has fewer than two trajectory points.
func PredictTrajectory(track *TrackedObject, frames int, dt time.Duration) []nn.Point {
	if len(track.Trajectory) < 2 || frames <= 0 {
		return nil
	}
	step := track.Speed * dt.Seconds()
	stepX := step * math.Cos(track.Direction)
	stepY := step * math.Sin(track.Direction)
	origin := track.LastPosition()

	// Accumulate in floating point, so that rounding doesn't drift off the line
	out := make([]nn.Point, frames)
	for i := range out {
		k := float64(i + 1)
		out[i] = nn.Point{
			X: origin.X + int(math.Round(k*stepX)),
			Y: origin.Y + int(math.Round(k*stepY)),
		}
	}
	return out
}
