package server

import (
	"net/http"
	"time"

	"github.com/cyclopcam/www"
	"github.com/go-chi/httprate"
	"github.com/julienschmidt/httprouter"
)

// Limits for requests per second, per client IP
const (
	frameRequestsPerSecond  = 120
	configRequestsPerSecond = 10
)

func (s *Server) setupHttpRoutes() {
	router := httprouter.New()

	handle := func(method, route string, handle httprouter.Handle) {
		www.Handle(s.Log, router, method, route, handle)
	}

	ratelimited := func(method, route string, handle httprouter.Handle, requestLimit int, windowLength time.Duration) {
		// We create a unique rate limiter for each endpoint, so we don't need httprate.KeyByEndpoint
		limited := httprate.Limit(requestLimit, windowLength, httprate.WithKeyFuncs(httprate.KeyByIP))
		www.Handle(s.Log, router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			limited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handle(w, r, params)
			})).ServeHTTP(w, r)
		})
	}

	handle("GET", "/api/ping", s.httpPing)
	handle("GET", "/api/stats", s.httpStats)

	ratelimited("POST", "/api/frame", s.httpFrame, frameRequestsPerSecond, time.Second)
	handle("GET", "/api/tracks", s.httpTracks)
	handle("GET", "/api/tracks/:id", s.httpTrack)
	handle("GET", "/api/tracks/:id/predict", s.httpPredict)

	handle("GET", "/api/zones", s.httpGetZones)
	ratelimited("POST", "/api/zones", s.httpAddZone, configRequestsPerSecond, time.Second)
	ratelimited("DELETE", "/api/zones", s.httpClearZones, configRequestsPerSecond, time.Second)

	handle("GET", "/api/settings", s.httpGetSettings)
	ratelimited("POST", "/api/settings", s.httpSetSettings, configRequestsPerSecond, time.Second)
	ratelimited("POST", "/api/settings/motion", s.httpSetMotionThresholds, configRequestsPerSecond, time.Second)
	ratelimited("POST", "/api/nightvision/:state", s.httpNightVision, configRequestsPerSecond, time.Second)

	handle("GET", "/api/events/recent", s.httpRecentEvents)
	handle("GET", "/api/events/ws", s.httpEventsWebSocket)

	s.httpRouter = router
}

func (s *Server) httpPing(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	type pingJSON struct {
		Time int64 `json:"time"`
	}
	www.SendJSON(w, &pingJSON{
		Time: time.Now().Unix(),
	})
}
