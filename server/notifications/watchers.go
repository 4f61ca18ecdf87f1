package notifications

import (
	"github.com/cyclopcam/overwatch/pkg/gen"
	"github.com/cyclopcam/overwatch/server/eventdb"
)

// SYNC-WATCHER-CHANNEL-SIZE
const WatcherChannelSize = 100

// Register to receive every event as soon as it is stored
func (n *Notifier) AddWatcher() chan *eventdb.Event {
	n.watchersLock.Lock()
	defer n.watchersLock.Unlock()
	ch := make(chan *eventdb.Event, WatcherChannelSize)
	n.watchers = append(n.watchers, ch)
	return ch
}

func (n *Notifier) RemoveWatcher(ch chan *eventdb.Event) {
	n.watchersLock.Lock()
	defer n.watchersLock.Unlock()
	for i, w := range n.watchers {
		if w == ch {
			n.watchers = gen.DeleteFromSliceUnordered(n.watchers, i)
			return
		}
	}
	n.log.Warnf("RemoveWatcher failed to find channel")
}

func (n *Notifier) sendToWatchers(ev *eventdb.Event) {
	n.watchersLock.RLock()
	defer n.watchersLock.RUnlock()
	for _, ch := range n.watchers {
		// SYNC-WATCHER-CHANNEL-SIZE
		if len(ch) >= cap(ch)*9/10 {
			// A slow watcher must not stall the notifier
			n.log.Warnf("Watcher is falling behind. Dropping event %v", ev.ID)
		} else {
			ch <- ev
		}
	}
}
