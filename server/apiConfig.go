package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/cyclopcam/overwatch/pkg/nn"
	"github.com/cyclopcam/overwatch/server/tracking"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

func (s *Server) httpGetZones(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.trackerLock.Lock()
	zones := s.tracker.RestrictedZones()
	s.trackerLock.Unlock()
	www.SendJSON(w, zones)
}

func (s *Server) httpAddZone(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	zone := nn.Rect{}
	www.ReadJSON(w, r, &zone, 1024*1024)

	// Persist first, so that a live zone is never lost on restart
	s.trackerLock.Lock()
	defer s.trackerLock.Unlock()
	stored, err := s.ConfigDB.AddZone(zone)
	checkConfigErr(err)
	checkConfigErr(s.tracker.AddRestrictedZone(zone))
	www.SendID(w, stored.ID)
}

func (s *Server) httpClearZones(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.trackerLock.Lock()
	defer s.trackerLock.Unlock()
	www.Check(s.ConfigDB.ClearZones())
	s.tracker.ClearRestrictedZones()
	www.SendOK(w)
}

func (s *Server) httpGetSettings(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.trackerLock.Lock()
	settings := s.tracker.Settings()
	s.trackerLock.Unlock()
	www.SendJSON(w, &settings)
}

func (s *Server) httpSetSettings(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	body := json.RawMessage{}
	www.ReadJSON(w, r, &body, 1024*1024)

	s.trackerLock.Lock()
	defer s.trackerLock.Unlock()
	settings := s.tracker.Settings()
	// Fields that are absent from the body keep their current values
	if err := json.Unmarshal(body, &settings); err != nil {
		www.PanicBadRequestf("Invalid settings: %v", err)
	}
	s.applySettings(settings)
	www.SendOK(w)
}

// Set the speed and movement thresholds via ?maxVelocity=X&minMovement=Y
func (s *Server) httpSetMotionThresholds(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	maxVelocity := parseFloatQuery(r, "maxVelocity")
	minMovement := parseFloatQuery(r, "minMovement")

	s.trackerLock.Lock()
	defer s.trackerLock.Unlock()
	settings := s.tracker.Settings()
	settings.MaxVelocity = maxVelocity
	settings.MinMovement = minMovement
	s.applySettings(settings)
	www.SendOK(w)
}

// Validate, persist, and then apply new tracker settings.
// The caller must hold trackerLock.
func (s *Server) applySettings(settings tracking.Settings) {
	checkConfigErr(settings.Validate())
	www.Check(s.ConfigDB.SetEngineSettings(settings))
	checkConfigErr(s.tracker.SetSettings(settings))
}

func (s *Server) httpNightVision(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	enable, err := strconv.ParseBool(params.ByName("state"))
	if err != nil {
		www.PanicBadRequestf("Invalid night vision state '%v'. Use 'true' or 'false'", params.ByName("state"))
	}
	s.trackerLock.Lock()
	defer s.trackerLock.Unlock()
	www.Check(s.ConfigDB.SetNightVision(enable))
	s.tracker.EnableNightVision(enable)
	www.SendOK(w)
}

func parseFloatQuery(r *http.Request, key string) float64 {
	v, err := strconv.ParseFloat(www.RequiredQueryValue(r, key), 64)
	if err != nil {
		www.PanicBadRequestf("Invalid value for '%v': %v", key, err)
	}
	return v
}

// Configuration errors are the caller's fault
func checkConfigErr(err error) {
	if errors.Is(err, tracking.ErrInvalidSettings) || errors.Is(err, tracking.ErrInvalidZone) {
		www.PanicBadRequestf("%v", err)
	}
	www.Check(err)
}
