package tracking

import (
	"fmt"
	"time"

	"github.com/cyclopcam/overwatch/pkg/alert"
)

// Evaluate the security conditions of a track, after its state has been updated for this frame.
// Zone, night activity, and stationary events fire once per episode. The speed alarm
// fires on every frame that the track is too fast.
func (t *Tracker) checkViolations(track *TrackedObject, now time.Time) {
	s := &t.settings

	if track.Episodes.Observe(ConditionZone, track.InRestrictedZone) {
		t.emit(now, alert.CategoryZoneViolation, alert.SeverityHigh, "Object ID %v (%v) entered restricted zone", track.ID, track.Class)
		track.Episodes.MarkReported(ConditionZone)
	}

	if track.Speed > s.MaxVelocity {
		t.emit(now, alert.CategorySpeedViolation, alert.SeverityMedium, "High speed movement detected: %v m/s", int(track.Speed))
	}

	if track.Episodes.Observe(ConditionNightActivity, t.nightVision && track.Moving) {
		t.emit(now, alert.CategoryNightActivity, alert.SeverityMedium, "Night activity detected: %v", track.Class)
		track.Episodes.MarkReported(ConditionNightActivity)
	}

	stationary := len(track.Trajectory) >= 2 && now.Sub(track.LastMoved) > s.MaxStationaryTime
	if track.Episodes.Observe(ConditionStationary, stationary) {
		t.emit(now, alert.CategoryStationary, alert.SeverityMedium, "Suspicious stationary object: %v", track.Class)
		track.Episodes.MarkReported(ConditionStationary)
	}
}

// Ask the face resolver who this is. Resolver failures are ignored.
func (t *Tracker) recognizeFace(track *TrackedObject, face []byte, now time.Time) {
	if t.faces == nil {
		return
	}
	rec, err := t.callResolver(face)
	if err != nil {
		t.log.Debugf("Face recognition failed for track %v: %v", track.ID, err)
		return
	}
	if !rec.Known || rec.Confidence >= t.settings.FaceAcceptThreshold {
		return
	}
	track.RecognizedPerson = rec.Label
	t.emit(now, alert.CategoryFaceRecognized, alert.SeverityMedium, "Recognized person: %v", rec.Label)
}

// The resolver is third party code, so a panic is treated the same as an error
func (t *Tracker) callResolver(face []byte) (rec Recognition, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("face resolver panic: %v", r)
		}
	}()
	return t.faces.Recognize(face)
}
