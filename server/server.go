package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/overwatch/pkg/nn"
	"github.com/cyclopcam/overwatch/pkg/perfstats"
	"github.com/cyclopcam/overwatch/server/config"
	"github.com/cyclopcam/overwatch/server/configdb"
	"github.com/cyclopcam/overwatch/server/eventdb"
	"github.com/cyclopcam/overwatch/server/facerec"
	"github.com/cyclopcam/overwatch/server/notifications"
	"github.com/cyclopcam/overwatch/server/tracking"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

type Server struct {
	ShutdownComplete chan struct{} // Closed when Shutdown has finished

	Log      logs.Log
	ConfigDB *configdb.ConfigDB
	EventDB  *eventdb.EventDB
	Notifier *notifications.Notifier

	// The tracker is not thread safe, so every call into it holds trackerLock
	trackerLock sync.Mutex
	tracker     *tracking.Tracker
	updateTime  perfstats.TimeAccumulator // Time spent in tracker.Update

	signalIn     chan os.Signal
	shutdownOnce sync.Once
	httpServer   *http.Server
	httpRouter   *httprouter.Router
	wsUpgrader   websocket.Upgrader
	clock        func() time.Time
}

// NewServer opens the databases, restores the operator's zones and settings,
// and creates the tracker and notifier.
func NewServer(logger logs.Log, cfg *config.Config) (*Server, error) {
	if err := os.MkdirAll(cfg.DataDir, 0770); err != nil {
		return nil, fmt.Errorf("Failed to create data directory '%v': %w", cfg.DataDir, err)
	}

	s := &Server{
		ShutdownComplete: make(chan struct{}),
		Log:              logger,
		clock:            time.Now,
	}
	ok := false
	defer func() {
		if !ok {
			s.closeStorage()
		}
	}()

	var err error
	s.ConfigDB, err = configdb.NewConfigDB(logger, filepath.Join(cfg.DataDir, "config.sqlite"))
	if err != nil {
		return nil, err
	}
	s.EventDB, err = eventdb.NewEventDB(logger, filepath.Join(cfg.DataDir, "events.sqlite"))
	if err != nil {
		return nil, err
	}
	s.Notifier, err = notifications.NewNotifier(logger, s.EventDB, cfg.Notifications)
	if err != nil {
		return nil, err
	}

	var faces tracking.FaceResolver
	if cfg.Face.URL != "" {
		logger.Infof("Using face recognition service at %v", cfg.Face.URL)
		faces = facerec.NewClient(cfg.Face.URL, cfg.Face.Timeout)
	}

	settings := cfg.Engine
	if stored, err := s.ConfigDB.EngineSettings(); err == nil {
		if stored.Validate() == nil {
			settings = stored
		} else {
			logger.Warnf("Ignoring invalid stored engine settings")
		}
	}
	// Verbosity is a process setting, so the command line can always turn it on
	settings.Verbose = settings.Verbose || cfg.Engine.Verbose
	s.tracker, err = tracking.NewTracker(logger, settings, s.Notifier, faces)
	if err != nil {
		return nil, err
	}
	if err := s.restoreTrackerState(); err != nil {
		return nil, err
	}

	s.setupHttpRoutes()
	ok = true
	return s, nil
}

func (s *Server) restoreTrackerState() error {
	zones, err := s.ConfigDB.Zones()
	if err != nil {
		return err
	}
	rects := make([]nn.Rect, 0, len(zones))
	for i := range zones {
		rects = append(rects, zones[i].Rect())
	}
	nightVision, err := s.ConfigDB.NightVision()
	if err != nil {
		return err
	}
	s.Log.Infof("Restored %v restricted zones, night vision %v", len(rects), nightVision)
	return s.tracker.Restore(rects, nightVision)
}

// port example: ":8080"
func (s *Server) ListenHTTP(port string) error {
	s.Log.Infof("Listening on %v", port)
	s.httpServer = &http.Server{
		Addr:    port,
		Handler: s.httpRouter,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) ListenForKillSignals() {
	s.signalIn = make(chan os.Signal, 1)
	signal.Notify(s.signalIn, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig, ok := <-s.signalIn
		if ok {
			s.Log.Infof("Received OS signal '%v'. Shutting down", sig.String())
			s.Shutdown()
		}
	}()
}

// Shutdown stops the HTTP server, flushes queued events, and closes the databases
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.Log.Infof("Shutdown")
		if s.signalIn != nil {
			signal.Stop(s.signalIn)
			close(s.signalIn)
		}
		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.httpServer.Shutdown(ctx); err != nil {
				s.Log.Warnf("HTTP server shutdown: %v", err)
			}
		}
		s.closeStorage()
		s.Log.Infof("Shutdown complete")
		close(s.ShutdownComplete)
	})
}

func (s *Server) closeStorage() {
	if s.Notifier != nil {
		s.Notifier.Close()
	}
	if s.EventDB != nil {
		s.EventDB.Close()
	}
	if s.ConfigDB != nil {
		s.ConfigDB.Close()
	}
}
