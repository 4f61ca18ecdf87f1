package tracking

import (
	"testing"
	"time"

	"github.com/cyclopcam/overwatch/pkg/alert"
	"github.com/cyclopcam/overwatch/pkg/nn"
	"github.com/stretchr/testify/require"
)

// One object sits inside a restricted zone for 100 frames
func TestZoneViolationEndToEnd(t *testing.T) {
	tr, sink := newTestTracker(t, DefaultSettings(), nil)
	require.NoError(t, tr.AddRestrictedZone(nn.MakeRect(10, 10, 40, 40)))

	person := det("person", 0, 0, 20, 20) // center is (10,10)

	tr.Update([]Detection{person}, frameTime(0))
	require.Len(t, tr.Tracks(), 1)
	require.Equal(t, 1, sink.count(alert.CategoryNewObject))
	require.Equal(t, 0, sink.count(alert.CategoryZoneViolation))

	tr.Update([]Detection{person}, frameTime(1))
	require.Equal(t, 1, sink.count(alert.CategoryZoneViolation))
	ev := sink.last(alert.CategoryZoneViolation)
	require.Equal(t, alert.SeverityHigh, ev.Severity)
	require.Equal(t, "Object ID 1 (person) entered restricted zone", ev.Message)
	require.Equal(t, frameTime(1), ev.Time)

	for i := 2; i < 100; i++ {
		tr.Update([]Detection{person}, frameTime(i))
	}
	tracks := tr.Tracks()
	require.Len(t, tracks, 1)
	require.True(t, tracks[0].InRestrictedZone)
	require.True(t, tracks[0].ViolationReported())
	require.Len(t, tracks[0].Trajectory, 100)
	require.Equal(t, 1, sink.count(alert.CategoryZoneViolation))
	require.Equal(t, 1, sink.count(alert.CategoryNewObject))
	require.Equal(t, 0, sink.count(alert.CategorySpeedViolation))
	require.Equal(t, 0, sink.count(alert.CategoryStationary))
}

func TestClearZonesEndsEpisode(t *testing.T) {
	tr, sink := newTestTracker(t, DefaultSettings(), nil)
	require.NoError(t, tr.AddRestrictedZone(nn.MakeRect(0, 0, 100, 100)))
	person := det("person", 20, 20, 20, 20)
	for i := 0; i < 5; i++ {
		tr.Update([]Detection{person}, frameTime(i))
	}
	require.Equal(t, 1, sink.count(alert.CategoryZoneViolation))

	tr.ClearRestrictedZones()
	require.Empty(t, tr.RestrictedZones())
	require.Equal(t, "All restricted zones cleared", sink.last(alert.CategorySystemStatus).Message)
	tr.Update([]Detection{person}, frameTime(5))
	require.Equal(t, 1, sink.count(alert.CategoryZoneViolation))
	require.False(t, tr.Tracks()[0].InRestrictedZone)

	require.NoError(t, tr.AddRestrictedZone(nn.MakeRect(0, 0, 100, 100)))
	tr.Update([]Detection{person}, frameTime(6))
	tr.Update([]Detection{person}, frameTime(7))
	require.Equal(t, 2, sink.count(alert.CategoryZoneViolation))
}

func TestAddInvalidZone(t *testing.T) {
	tr, sink := newTestTracker(t, DefaultSettings(), nil)
	require.ErrorIs(t, tr.AddRestrictedZone(nn.MakeRect(5, 5, 0, 10)), ErrInvalidZone)
	require.ErrorIs(t, tr.AddRestrictedZone(nn.MakeRect(5, 5, 10, -1)), ErrInvalidZone)
	require.Empty(t, tr.RestrictedZones())
	require.Empty(t, sink.events)
}

// The speed alarm is continuous: one event per frame while the object is too fast
func TestSpeedAlarmEveryFrame(t *testing.T) {
	tr, sink := newTestTracker(t, DefaultSettings(), nil)

	// 40x40 box moving 20 pixels per frame: IoU between frames is 1/3,
	// and speed is 20 * 0.01 / 0.033 = 6.06 m/s
	tr.Update([]Detection{det("car", 0, 0, 40, 40)}, frameTime(0))
	for i := 1; i <= 5; i++ {
		tr.Update([]Detection{det("car", 20*i, 0, 40, 40)}, frameTime(i))
	}
	require.Equal(t, 5, sink.count(alert.CategorySpeedViolation))
	require.Equal(t, "High speed movement detected: 6 m/s", sink.last(alert.CategorySpeedViolation).Message)
	require.Equal(t, alert.SeverityMedium, sink.last(alert.CategorySpeedViolation).Severity)

	// Come to a stop
	tr.Update([]Detection{det("car", 100, 0, 40, 40)}, frameTime(6))
	tr.Update([]Detection{det("car", 100, 0, 40, 40)}, frameTime(7))
	require.Equal(t, 5, sink.count(alert.CategorySpeedViolation))

	tracks := tr.Tracks()
	require.Len(t, tracks, 1)
	require.Equal(t, 0.0, tracks[0].Speed)
	require.False(t, tracks[0].Moving)
}

func TestStaleTrackRemoval(t *testing.T) {
	s := DefaultSettings()
	s.MaxTrackAge = time.Second
	tr, sink := newTestTracker(t, s, nil)

	tr.Update([]Detection{det("dog", 0, 0, 10, 10)}, baseTime)
	tr.Update(nil, baseTime.Add(time.Second))
	require.Len(t, tr.Tracks(), 1)

	tr.Update(nil, baseTime.Add(time.Second+time.Millisecond))
	require.Empty(t, tr.Tracks())

	// Expiry is silent
	require.Len(t, sink.events, 1)
	require.Equal(t, alert.CategoryNewObject, sink.events[0].Category)
}

func TestMatchedTrackSurvives(t *testing.T) {
	s := DefaultSettings()
	s.MaxTrackAge = 100 * time.Millisecond
	tr, _ := newTestTracker(t, s, nil)
	for i := 0; i < 50; i++ {
		tr.Update([]Detection{det("dog", 0, 0, 10, 10)}, baseTime.Add(time.Duration(i)*100*time.Millisecond))
	}
	tracks := tr.Tracks()
	require.Len(t, tracks, 1)
	require.Equal(t, int64(1), tracks[0].ID)
}

// A reappearing object gets a new id, and ids are never reused
func TestTrackIDsAreUnique(t *testing.T) {
	s := DefaultSettings()
	s.MaxTrackAge = time.Second
	tr, _ := newTestTracker(t, s, nil)

	seen := map[int64]bool{}
	now := baseTime
	for round := 0; round < 5; round++ {
		tr.Update([]Detection{det("person", 0, 0, 10, 10), det("car", 100, 100, 50, 30)}, now)
		for _, track := range tr.Tracks() {
			seen[track.ID] = true
		}
		now = now.Add(2 * time.Second)
		tr.Update(nil, now)
		require.Empty(t, tr.Tracks())
	}
	require.Len(t, seen, 10)
	for id := int64(1); id <= 10; id++ {
		require.True(t, seen[id])
	}
}

func TestDegenerateDetections(t *testing.T) {
	tr, sink := newTestTracker(t, DefaultSettings(), nil)
	flat := det("ghost", 5, 5, 0, 0)
	tr.Update([]Detection{flat}, frameTime(0))
	tr.Update([]Detection{flat}, frameTime(1))
	// A zero-area box never overlaps anything, so each frame creates a new track
	require.Len(t, tr.Tracks(), 2)
	require.Equal(t, 2, sink.count(alert.CategoryNewObject))
}

func TestNightActivity(t *testing.T) {
	tr, sink := newTestTracker(t, DefaultSettings(), nil)
	tr.EnableNightVision(true)
	tr.EnableNightVision(true)
	require.True(t, tr.NightVision())
	require.Equal(t, 1, sink.count(alert.CategorySystemStatus))
	require.Equal(t, "Night vision enabled", sink.last(alert.CategorySystemStatus).Message)

	// Moves 8 pixels per frame, which is more than MinMovement, but slower than MaxVelocity
	for i := 0; i < 10; i++ {
		tr.Update([]Detection{det("person", 8*i, 0, 40, 40)}, frameTime(i))
	}
	require.Equal(t, 1, sink.count(alert.CategoryNightActivity))
	require.Equal(t, "Night activity detected: person", sink.last(alert.CategoryNightActivity).Message)
	require.Equal(t, 0, sink.count(alert.CategorySpeedViolation))
	require.True(t, tr.Tracks()[0].NightActivityReported())

	tr.EnableNightVision(false)
	require.Equal(t, "Night vision disabled", sink.last(alert.CategorySystemStatus).Message)
}

func TestNoNightActivityByDay(t *testing.T) {
	tr, sink := newTestTracker(t, DefaultSettings(), nil)
	for i := 0; i < 10; i++ {
		tr.Update([]Detection{det("person", 8*i, 0, 40, 40)}, frameTime(i))
	}
	require.Equal(t, 0, sink.count(alert.CategoryNightActivity))
}

func TestStationaryObject(t *testing.T) {
	s := DefaultSettings()
	s.MaxTrackAge = time.Minute
	s.MaxStationaryTime = 2 * time.Second
	tr, sink := newTestTracker(t, s, nil)

	bag := det("suitcase", 50, 50, 30, 30)
	now := baseTime
	for i := 0; i < 10; i++ {
		tr.Update([]Detection{bag}, now)
		now = now.Add(500 * time.Millisecond)
	}
	// Frames at 0.0 .. 4.5 seconds. The condition first holds at 2.5 seconds.
	require.Equal(t, 1, sink.count(alert.CategoryStationary))
	require.Equal(t, "Suspicious stationary object: suitcase", sink.last(alert.CategoryStationary).Message)
	require.True(t, tr.Tracks()[0].StationaryReported())
}

func TestMovingObjectIsNotStationary(t *testing.T) {
	s := DefaultSettings()
	s.MaxTrackAge = time.Minute
	s.MaxStationaryTime = time.Second
	tr, sink := newTestTracker(t, s, nil)
	now := baseTime
	for i := 0; i < 20; i++ {
		tr.Update([]Detection{det("person", 6*i, 0, 40, 40)}, now)
		now = now.Add(500 * time.Millisecond)
	}
	require.Equal(t, 0, sink.count(alert.CategoryStationary))
}

func TestFaceRecognition(t *testing.T) {
	faces := &fakeResolver{rec: Recognition{Label: "alice", Confidence: 42, Known: true}}
	tr, sink := newTestTracker(t, DefaultSettings(), faces)

	d := det("person", 0, 0, 40, 40)
	d.Face = []byte{0xff, 0xd8}

	// Faces are only resolved when a detection matches an existing track
	tr.Update([]Detection{d}, frameTime(0))
	require.Equal(t, 0, faces.calls)

	tr.Update([]Detection{d}, frameTime(1))
	tr.Update([]Detection{d}, frameTime(2))
	require.Equal(t, 2, faces.calls)
	require.Equal(t, 2, sink.count(alert.CategoryFaceRecognized))
	require.Equal(t, "Recognized person: alice", sink.last(alert.CategoryFaceRecognized).Message)
	require.Equal(t, "alice", tr.Tracks()[0].RecognizedPerson)

	// Without a face image, the resolver is not called
	tr.Update([]Detection{det("person", 0, 0, 40, 40)}, frameTime(3))
	require.Equal(t, 2, faces.calls)
}

func TestFaceRecognitionRejected(t *testing.T) {
	cases := []*fakeResolver{
		{rec: Recognition{Label: "bob", Confidence: 100, Known: true}},
		{rec: Recognition{Label: "bob", Confidence: 20, Known: false}},
		{err: errResolver},
		{panic: true},
	}
	for _, faces := range cases {
		tr, sink := newTestTracker(t, DefaultSettings(), faces)
		d := det("person", 0, 0, 40, 40)
		d.Face = []byte{1, 2, 3}
		tr.Update([]Detection{d}, frameTime(0))
		tr.Update([]Detection{d}, frameTime(1))
		require.Equal(t, 1, faces.calls)
		require.Equal(t, 0, sink.count(alert.CategoryFaceRecognized))
		require.Empty(t, tr.Tracks()[0].RecognizedPerson)
	}
}

func TestMotionEstimate(t *testing.T) {
	tr, _ := newTestTracker(t, DefaultSettings(), nil)
	tr.Update([]Detection{det("person", 0, 0, 40, 40)}, frameTime(0))
	track := tr.Tracks()[0]
	require.Equal(t, 0.0, track.Speed)
	require.False(t, track.Moving)

	// Move (6, 8) => 10 pixels, toward +Y
	tr.Update([]Detection{det("person", 6, 8, 40, 40)}, frameTime(1))
	track = tr.Tracks()[0]
	require.InDelta(t, 10*0.01/0.033, track.Speed, 1e-9)
	require.InDelta(t, 0.927295218, track.Direction, 1e-6)
	require.True(t, track.Moving)
	require.Equal(t, frameTime(1), track.LastMoved)

	// Move 3 pixels, which is below MinMovement. Direction still follows the displacement.
	tr.Update([]Detection{det("person", 9, 8, 40, 40)}, frameTime(2))
	track = tr.Tracks()[0]
	require.False(t, track.Moving)
	require.Equal(t, frameTime(1), track.LastMoved)
	require.InDelta(t, 0.0, track.Direction, 1e-9)
}

func TestTracksReturnsCopies(t *testing.T) {
	tr, _ := newTestTracker(t, DefaultSettings(), nil)
	tr.Update([]Detection{det("person", 0, 0, 40, 40)}, frameTime(0))
	tracks := tr.Tracks()
	tracks[0].Trajectory[0] = nn.Point{X: 999, Y: 999}
	tracks[0].Class = "mutated"

	again, err := tr.Track(tracks[0].ID)
	require.NoError(t, err)
	require.Equal(t, nn.Point{X: 20, Y: 20}, again.Trajectory[0])
	require.Equal(t, "person", again.Class)

	_, err = tr.Track(12345)
	require.ErrorIs(t, err, ErrTrackNotFound)
}

func TestSettingsValidation(t *testing.T) {
	_, err := NewTracker(nil, Settings{}, nil, nil)
	require.ErrorIs(t, err, ErrInvalidSettings)

	tr, _ := newTestTracker(t, DefaultSettings(), nil)
	require.ErrorIs(t, tr.SetMotionThresholds(-1, 5), ErrInvalidSettings)
	require.ErrorIs(t, tr.SetMotionThresholds(5, -1), ErrInvalidSettings)
	require.Equal(t, 5.0, tr.Settings().MaxVelocity)

	require.NoError(t, tr.SetMotionThresholds(2, 1))
	require.Equal(t, 2.0, tr.Settings().MaxVelocity)
	require.Equal(t, 1.0, tr.Settings().MinMovement)

	bad := []func(s *Settings){
		func(s *Settings) { s.FrameInterval = 0 },
		func(s *Settings) { s.IOUThreshold = -0.1 },
		func(s *Settings) { s.IOUThreshold = 1 },
		func(s *Settings) { s.MaxTrackAge = -time.Second },
		func(s *Settings) { s.MaxStationaryTime = -time.Second },
		func(s *Settings) { s.PixelToMeter = 0 },
		func(s *Settings) { s.FaceAcceptThreshold = -1 },
		func(s *Settings) { s.Association = "optimal" },
	}
	for _, mutate := range bad {
		s := DefaultSettings()
		mutate(&s)
		require.ErrorIs(t, tr.SetSettings(s), ErrInvalidSettings)
	}

	s := DefaultSettings()
	s.Association = ""
	require.NoError(t, tr.SetSettings(s))
	require.Equal(t, AssociationGreedy, tr.Settings().Association)
}

func TestHungarianTracker(t *testing.T) {
	s := DefaultSettings()
	s.Association = AssociationHungarian
	tr, sink := newTestTracker(t, s, nil)
	for i := 0; i < 5; i++ {
		tr.Update([]Detection{det("person", 10*i, 0, 40, 40), det("car", 300, 300-10*i, 60, 40)}, frameTime(i))
	}
	require.Len(t, tr.Tracks(), 2)
	require.Equal(t, 2, sink.count(alert.CategoryNewObject))
}

func TestRestoreIsSilent(t *testing.T) {
	tr, sink := newTestTracker(t, DefaultSettings(), nil)
	require.NoError(t, tr.Restore([]nn.Rect{nn.MakeRect(0, 0, 10, 10), nn.MakeRect(50, 50, 10, 10)}, true))
	require.Empty(t, sink.events)
	require.Len(t, tr.RestrictedZones(), 2)
	require.True(t, tr.NightVision())

	require.ErrorIs(t, tr.Restore([]nn.Rect{nn.MakeRect(0, 0, 10, 10), nn.MakeRect(1, 1, 0, 0)}, false), ErrInvalidZone)
	require.Len(t, tr.RestrictedZones(), 2)
	require.True(t, tr.NightVision())
}
