package tracking

import (
	"time"

	"github.com/cyclopcam/overwatch/pkg/alert"
)

// Create a track for a detection that didn't match any existing track
func (t *Tracker) createTrack(det *Detection, now time.Time) {
	track := t.store.create(det, now)
	if t.settings.Verbose {
		c := track.Center()
		t.log.Infof("New '%v' (id %v) at %v,%v", track.Class, track.ID, c.X, c.Y)
	}
	t.emit(now, alert.CategoryNewObject, alert.SeverityLow, "New object detected: %v", track.Class)
}

// Apply a matched detection to an existing track
func (t *Tracker) updateTrack(track *TrackedObject, det *Detection, now time.Time) {
	track.Box = det.Box
	track.Class = det.Class
	track.LastSeen = now
	center := det.Center()
	track.Trajectory = append(track.Trajectory, center)
	track.InRestrictedZone = t.zones.Contains(center)
	if len(det.Face) != 0 {
		t.recognizeFace(track, det.Face, now)
	}
}

// Remove tracks that we haven't seen for too long.
// This is routine housekeeping, so no event is raised.
func (t *Tracker) expireStaleTracks(now time.Time) {
	removed := t.store.removeStale(now, t.settings.MaxTrackAge)
	if t.settings.Verbose {
		for _, track := range removed {
			t.log.Infof("'%v' (id %v) expired after %v unseen, %v positions", track.Class, track.ID, now.Sub(track.LastSeen), len(track.Trajectory))
		}
	}
}
