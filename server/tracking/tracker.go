package tracking

import (
	"errors"
	"fmt"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/overwatch/pkg/alert"
	"github.com/cyclopcam/overwatch/pkg/nn"
)

// Package tracking follows detected objects across frames, and raises security
// events when they violate restricted zones, move too fast, move at night, or
// remain stationary for too long.

var ErrTrackNotFound = errors.New("Track not found")

// Tracker maintains object identity across frames.
//
// A Tracker is not safe for concurrent use. Update and the configuration
// functions must be serialized by the caller.
type Tracker struct {
	log         logs.Log
	settings    Settings
	sink        alert.Sink
	faces       FaceResolver // May be nil
	associator  Associator
	store       trackStore
	zones       ZoneSet
	nightVision bool
	clock       func() time.Time // Timestamps for events raised outside of Update
}

// NewTracker creates a Tracker. faces may be nil, in which case face images are ignored.
func NewTracker(logger logs.Log, settings Settings, sink alert.Sink, faces FaceResolver) (*Tracker, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if settings.Association == "" {
		settings.Association = AssociationGreedy
	}
	if sink == nil {
		sink = alert.Discard
	}
	return &Tracker{
		log:        logger,
		settings:   settings,
		sink:       sink,
		faces:      faces,
		associator: newAssociator(settings.Association),
		clock:      time.Now,
	}, nil
}

// Update processes the detections of a single frame.
// now is the time of the frame, and must not go backwards between calls.
func (t *Tracker) Update(detections []Detection, now time.Time) {
	detBoxes := make([]nn.Rect, len(detections))
	for i := range detections {
		detBoxes[i] = detections[i].Box
	}

	// Match existing tracks. New tracks are appended after this, so the indices in
	// trackToDetection remain valid.
	existing := t.store.tracks
	trackToDetection := t.associator.Associate(t.store.boxes(), detBoxes, t.settings.IOUThreshold)
	detectionHasMatch := make([]bool, len(detections))
	for i, j := range trackToDetection {
		if j == -1 {
			continue
		}
		detectionHasMatch[j] = true
		t.updateTrack(existing[i], &detections[j], now)
	}

	for j := range detections {
		if !detectionHasMatch[j] {
			t.createTrack(&detections[j], now)
		}
	}

	t.expireStaleTracks(now)

	for _, track := range t.store.tracks {
		t.updateMotion(track, now)
	}
	for _, track := range t.store.tracks {
		t.checkViolations(track, now)
	}
}

// Tracks returns a copy of all live tracks, in creation order
func (t *Tracker) Tracks() []TrackedObject {
	return t.store.snapshot()
}

// Track returns a copy of a single track
func (t *Tracker) Track(id int64) (TrackedObject, error) {
	track := t.store.get(id)
	if track == nil {
		return TrackedObject{}, fmt.Errorf("%w: %v", ErrTrackNotFound, id)
	}
	return track.clone(), nil
}

// PredictTrajectory extrapolates the future positions of a live track
func (t *Tracker) PredictTrajectory(id int64, frames int) ([]nn.Point, error) {
	track := t.store.get(id)
	if track == nil {
		return nil, fmt.Errorf("%w: %v", ErrTrackNotFound, id)
	}
	return PredictTrajectory(track, frames, t.settings.FrameInterval), nil
}

func (t *Tracker) AddRestrictedZone(zone nn.Rect) error {
	if err := t.zones.Add(zone); err != nil {
		return err
	}
	t.emit(t.clock(), alert.CategorySystemStatus, alert.SeverityLow, "New restricted zone added")
	return nil
}

// ClearRestrictedZones removes all zones. This ends the zone episode of every track,
// so an object that is inside a zone added later is reported again.
func (t *Tracker) ClearRestrictedZones() {
	t.zones.Clear()
	for _, track := range t.store.tracks {
		track.InRestrictedZone = false
		track.Episodes.End(ConditionZone)
	}
	t.emit(t.clock(), alert.CategorySystemStatus, alert.SeverityLow, "All restricted zones cleared")
}

// Restore reinstates persisted operator state (zones and night vision) without raising events.
// Existing zones are replaced. If any zone is invalid, nothing is changed.
func (t *Tracker) Restore(zones []nn.Rect, nightVision bool) error {
	restored := ZoneSet{}
	for _, z := range zones {
		if err := restored.Add(z); err != nil {
			return err
		}
	}
	t.zones = restored
	t.nightVision = nightVision
	return nil
}

func (t *Tracker) RestrictedZones() []nn.Rect {
	return t.zones.Rects()
}

// SetMotionThresholds sets the speed alarm threshold (m/s) and the minimum pixel movement per frame
func (t *Tracker) SetMotionThresholds(maxVelocity, minMovement float64) error {
	s := t.settings
	s.MaxVelocity = maxVelocity
	s.MinMovement = minMovement
	return t.SetSettings(s)
}

func (t *Tracker) SetSettings(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Association == "" {
		s.Association = AssociationGreedy
	}
	t.settings = s
	t.associator = newAssociator(s.Association)
	return nil
}

func (t *Tracker) Settings() Settings {
	return t.settings
}

// SetAssociator replaces the association algorithm
func (t *Tracker) SetAssociator(a Associator) {
	t.associator = a
}

func (t *Tracker) EnableNightVision(enable bool) {
	if t.nightVision == enable {
		return
	}
	t.nightVision = enable
	msg := "Night vision disabled"
	if enable {
		msg = "Night vision enabled"
	}
	t.emit(t.clock(), alert.CategorySystemStatus, alert.SeverityLow, "%v", msg)
}

func (t *Tracker) NightVision() bool {
	return t.nightVision
}

func (t *Tracker) emit(now time.Time, category alert.Category, severity alert.Severity, format string, args ...any) {
	t.sink.Send(alert.Event{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		Severity: severity,
		Time:     now,
	})
}
