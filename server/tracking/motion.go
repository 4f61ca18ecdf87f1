package tracking

import (
	"math"
	"time"
)

// Recompute speed, direction and moving state from the last two trajectory points.
// Tracks with fewer than two points keep their previous motion state.
func (t *Tracker) updateMotion(track *TrackedObject, now time.Time) {
	n := len(track.Trajectory)
	if n < 2 {
		return
	}
	prev := track.Trajectory[n-2]
	cur := track.Trajectory[n-1]
	pixels := float64(prev.Distance(cur))

	track.Speed = pixels * t.settings.PixelToMeter / t.settings.FrameInterval.Seconds()
	if pixels != 0 {
		track.Direction = math.Atan2(float64(cur.Y-prev.Y), float64(cur.X-prev.X))
	}
	if pixels > t.settings.MinMovement {
		track.Moving = true
		track.LastMoved = now
	} else {
		track.Moving = false
	}
}
