package tracking

import (
	"time"

	"github.com/cyclopcam/overwatch/pkg/nn"
)

// Detection is a single object observed in a single frame, without any temporal identity.
// SYNC-DETECTION-JSON
type Detection struct {
	Box      nn.Rect `json:"box"`
	Class    string  `json:"class"`          // eg "person", "car"
	Velocity float64 `json:"velocity"`       // Instantaneous velocity estimate from the perception source (informational)
	Moving   bool    `json:"moving"`         // Perception source's own moving flag (informational)
	Face     []byte  `json:"face,omitempty"` // Encoded face crop (eg JPEG), if a face was found
}

func (d *Detection) Center() nn.Point {
	return d.Box.Center()
}

// TrackedObject is an object that we have followed across one or more frames.
// SYNC-TRACKED-OBJECT
type TrackedObject struct {
	ID               int64        `json:"id"`    // Unique for the lifetime of the Tracker
	Box              nn.Rect      `json:"box"`   // Most recent bounding box
	Class            string       `json:"class"` // Most recently observed class
	Trajectory       []nn.Point   `json:"trajectory"`
	Speed            float64      `json:"speed"`     // meters/second
	Direction        float64      `json:"direction"` // radians
	InRestrictedZone bool         `json:"inRestrictedZone"`
	Moving           bool         `json:"moving"`
	RecognizedPerson string       `json:"recognizedPerson,omitempty"`
	LastSeen         time.Time    `json:"lastSeen"`
	LastMoved        time.Time    `json:"lastMoved"`
	Episodes         EpisodeTable `json:"episodes"`
}

func (t *TrackedObject) Center() nn.Point {
	return t.Box.Center()
}

// LastPosition returns the most recent trajectory point
func (t *TrackedObject) LastPosition() nn.Point {
	return t.Trajectory[len(t.Trajectory)-1]
}

func (t *TrackedObject) ViolationReported() bool {
	return t.Episodes.Reported(ConditionZone)
}

func (t *TrackedObject) NightActivityReported() bool {
	return t.Episodes.Reported(ConditionNightActivity)
}

func (t *TrackedObject) StationaryReported() bool {
	return t.Episodes.Reported(ConditionStationary)
}

// clone returns a deep copy, so that callers can't mutate tracker state
func (t *TrackedObject) clone() TrackedObject {
	c := *t
	c.Trajectory = append([]nn.Point(nil), t.Trajectory...)
	return c
}

// Recognition is the result of a face lookup
type Recognition struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"` // Resolver-native distance score. Lower is better.
	Known      bool    `json:"known"`      // False if the resolver could not identify the face
}

// FaceResolver identifies a face image
type FaceResolver interface {
	Recognize(face []byte) (Recognition, error)
}
