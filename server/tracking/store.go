package tracking

import (
	"time"

	"github.com/cyclopcam/overwatch/pkg/idgen"
	"github.com/cyclopcam/overwatch/pkg/nn"
)

// trackStore owns the live tracks, in creation order.
// Only the lifecycle functions create or remove tracks.
type trackStore struct {
	tracks []*TrackedObject
	ids    idgen.Int64
}

func (s *trackStore) len() int {
	return len(s.tracks)
}

func (s *trackStore) get(id int64) *TrackedObject {
	for _, t := range s.tracks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// boxes returns the current bounding box of every track, in store order
func (s *trackStore) boxes() []nn.Rect {
	boxes := make([]nn.Rect, len(s.tracks))
	for i, t := range s.tracks {
		boxes[i] = t.Box
	}
	return boxes
}

// create adds a new track, seeded from det
func (s *trackStore) create(det *Detection, now time.Time) *TrackedObject {
	t := &TrackedObject{
		ID:         s.ids.Next(),
		Box:        det.Box,
		Class:      det.Class,
		Trajectory: []nn.Point{det.Center()},
		LastSeen:   now,
		LastMoved:  now,
	}
	s.tracks = append(s.tracks, t)
	return t
}

// removeStale deletes every track that has not been seen for longer than maxAge.
// Order of the surviving tracks is preserved.
func (s *trackStore) removeStale(now time.Time, maxAge time.Duration) []*TrackedObject {
	var removed []*TrackedObject
	remaining := s.tracks[:0]
	for _, t := range s.tracks {
		if now.Sub(t.LastSeen) > maxAge {
			removed = append(removed, t)
		} else {
			remaining = append(remaining, t)
		}
	}
	clear(s.tracks[len(remaining):])
	s.tracks = remaining
	return removed
}

func (s *trackStore) snapshot() []TrackedObject {
	out := make([]TrackedObject, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t.clone()
	}
	return out
}
