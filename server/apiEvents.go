package server

import (
	"net/http"

	"github.com/cyclopcam/overwatch/server/eventdb"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
)

const (
	defaultRecentEvents = 100
	maxRecentEvents     = 10000
)

func (s *Server) httpRecentEvents(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	count := defaultRecentEvents
	if www.QueryValue(r, "count") != "" {
		count = www.QueryInt(r, "count")
	}
	if count <= 0 || count > maxRecentEvents {
		www.PanicBadRequestf("count must be between 1 and %v", maxRecentEvents)
	}
	events, err := s.Notifier.Recent(count)
	www.Check(err)
	if events == nil {
		events = []*eventdb.Event{}
	}
	www.SendJSON(w, events)
}

// SYNC-EVENT-WEBSOCKET-JSON
type eventMessageJSON struct {
	Backlog bool           `json:"backlog"` // True for events that happened before the socket was opened
	Event   *eventdb.Event `json:"event"`
}

// Stream events as they happen. The in-memory backlog of recent events is sent first.
func (s *Server) httpEventsWebSocket(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	c, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Errorf("Event websocket upgrade failed: %v", err)
		return
	}
	defer c.Close()

	// Register before reading the backlog, so that nothing falls between the two
	watcher := s.Notifier.AddWatcher()
	defer s.Notifier.RemoveWatcher(watcher)

	sentMaxID := int64(0)
	for _, ev := range s.Notifier.Backlog() {
		if err := c.WriteJSON(&eventMessageJSON{Backlog: true, Event: &ev}); err != nil {
			return
		}
		sentMaxID = max(sentMaxID, ev.ID)
	}

	// We don't expect any messages from the client, but we need to read in order to detect a close
	closed := make(chan struct{})
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				close(closed)
				return
			}
		}
	}()

	for {
		select {
		case ev := <-watcher:
			if ev.ID <= sentMaxID {
				continue
			}
			if err := c.WriteJSON(&eventMessageJSON{Event: ev}); err != nil {
				s.Log.Infof("Event websocket write failed: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}
