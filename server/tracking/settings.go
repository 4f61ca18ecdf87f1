package tracking

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidSettings = errors.New("Invalid tracker settings")

const (
	AssociationGreedy    = "greedy"
	AssociationHungarian = "hungarian"
)

// Settings are the tunable parameters of the Tracker.
// SYNC-TRACKER-SETTINGS
type Settings struct {
	FrameInterval       time.Duration `json:"frameInterval"`       // Time between frames, used as the motion delta time (default 33ms)
	IOUThreshold        float64       `json:"iouThreshold"`        // A detection must overlap a track by more than this to be matched to it
	MaxTrackAge         time.Duration `json:"maxTrackAge"`         // Tracks that have not been matched for longer than this are removed
	MaxVelocity         float64       `json:"maxVelocity"`         // Speed (m/s) above which we raise a speed violation
	MinMovement         float64       `json:"minMovement"`         // Pixel displacement per frame above which an object is considered moving
	MaxStationaryTime   time.Duration `json:"maxStationaryTime"`   // An object that hasn't moved for longer than this is suspicious
	PixelToMeter        float64       `json:"pixelToMeter"`        // Meters per pixel
	FaceAcceptThreshold float64       `json:"faceAcceptThreshold"` // Face recognitions with a confidence below this are accepted (lower is better)
	Association         string        `json:"association"`         // "greedy" (default) or "hungarian"
	Verbose             bool          `json:"verbose"`             // Log track creation and expiry
}

const DefaultFrameInterval = 33 * time.Millisecond

// DefaultSettings returns the settings that the system ships with
func DefaultSettings() Settings {
	return Settings{
		FrameInterval:       DefaultFrameInterval,
		IOUThreshold:        0.3,
		MaxTrackAge:         30 * DefaultFrameInterval,
		MaxVelocity:         5,
		MinMovement:         5,
		MaxStationaryTime:   300 * time.Second,
		PixelToMeter:        0.01,
		FaceAcceptThreshold: 100,
		Association:         AssociationGreedy,
	}
}

// Validate returns an error wrapping ErrInvalidSettings if any value is out of range
func (s *Settings) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, fmt.Sprintf(format, args...))
	}
	if s.FrameInterval <= 0 {
		return fail("frameInterval must be positive (%v)", s.FrameInterval)
	}
	if s.IOUThreshold < 0 || s.IOUThreshold >= 1 {
		return fail("iouThreshold must be in [0,1) (%v)", s.IOUThreshold)
	}
	if s.MaxTrackAge < 0 {
		return fail("maxTrackAge may not be negative (%v)", s.MaxTrackAge)
	}
	if s.MaxVelocity < 0 {
		return fail("maxVelocity may not be negative (%v)", s.MaxVelocity)
	}
	if s.MinMovement < 0 {
		return fail("minMovement may not be negative (%v)", s.MinMovement)
	}
	if s.MaxStationaryTime < 0 {
		return fail("maxStationaryTime may not be negative (%v)", s.MaxStationaryTime)
	}
	if s.PixelToMeter <= 0 {
		return fail("pixelToMeter must be positive (%v)", s.PixelToMeter)
	}
	if s.FaceAcceptThreshold < 0 {
		return fail("faceAcceptThreshold may not be negative (%v)", s.FaceAcceptThreshold)
	}
	switch s.Association {
	case "", AssociationGreedy, AssociationHungarian:
	default:
		return fail("unknown association '%v'", s.Association)
	}
	return nil
}
