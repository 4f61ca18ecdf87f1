package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/cyclopcam/overwatch/server/tracking"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

const (
	defaultPredictFrames = 10
	maxPredictFrames     = 1000
)

// SYNC-FRAME-JSON
type frameJSON struct {
	Detections []tracking.Detection `json:"detections"`
}

// Feed one frame of detections into the tracker. The frame is timestamped with server time.
func (s *Server) httpFrame(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	frame := frameJSON{}
	www.ReadJSON(w, r, &frame, 16*1024*1024)

	s.trackerLock.Lock()
	start := time.Now()
	s.tracker.Update(frame.Detections, s.clock())
	s.updateTime.AddSample(time.Since(start))
	tracks := s.tracker.Tracks()
	s.trackerLock.Unlock()

	www.SendJSON(w, tracks)
}

func (s *Server) httpTracks(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.trackerLock.Lock()
	tracks := s.tracker.Tracks()
	s.trackerLock.Unlock()
	www.SendJSON(w, tracks)
}

func (s *Server) httpTrack(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id := www.ParseID(params.ByName("id"))
	s.trackerLock.Lock()
	track, err := s.tracker.Track(id)
	s.trackerLock.Unlock()
	checkTrackErr(err)
	www.SendJSON(w, &track)
}

func (s *Server) httpPredict(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id := www.ParseID(params.ByName("id"))
	frames := defaultPredictFrames
	if www.QueryValue(r, "frames") != "" {
		frames = www.QueryInt(r, "frames")
	}
	if frames <= 0 || frames > maxPredictFrames {
		www.PanicBadRequestf("frames must be between 1 and %v", maxPredictFrames)
	}
	s.trackerLock.Lock()
	points, err := s.tracker.PredictTrajectory(id, frames)
	s.trackerLock.Unlock()
	checkTrackErr(err)
	www.SendJSON(w, points)
}

func checkTrackErr(err error) {
	if errors.Is(err, tracking.ErrTrackNotFound) {
		www.PanicNotFound()
	}
	www.Check(err)
}

// SYNC-ENGINE-STATS-JSON
type statsJSON struct {
	Frames           int64   `json:"frames"`
	Tracks           int     `json:"tracks"`
	Zones            int     `json:"zones"`
	AverageUpdateSec float64 `json:"averageUpdateSec"`
	MaxUpdateSec     float64 `json:"maxUpdateSec"`
}

func (s *Server) httpStats(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.trackerLock.Lock()
	stats := statsJSON{
		Frames:           s.updateTime.Samples,
		Tracks:           len(s.tracker.Tracks()),
		Zones:            len(s.tracker.RestrictedZones()),
		AverageUpdateSec: s.updateTime.Average().Seconds(),
		MaxUpdateSec:     s.updateTime.Max.Seconds(),
	}
	s.trackerLock.Unlock()
	www.SendJSON(w, &stats)
}
