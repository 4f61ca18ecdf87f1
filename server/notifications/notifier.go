package notifications

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmharper/ringbuffer"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/overwatch/pkg/alert"
	"github.com/cyclopcam/overwatch/pkg/gen"
	"github.com/cyclopcam/overwatch/server/eventdb"
)

const DefaultPushoverURL = "https://api.pushover.net/1/messages.json"

// Number of recent events kept in memory, for new watchers. Must be a power of 2.
const backlogSize = 64

type Config struct {
	WebhookURL         string           // Every event is POSTed here as JSON (optional)
	PushoverURL        string           // Defaults to DefaultPushoverURL
	PushoverToken      string           // Pushover application token (optional)
	PushoverUser       string           // Pushover user key (optional)
	MinSeverity        alert.Severity   // Events below this severity are dropped
	DisabledCategories []alert.Category // Events of these categories are dropped
	QueueSize          int              // Max number of events waiting to be stored or transmitted
	HTTPTimeout        time.Duration
}

func DefaultConfig() Config {
	return Config{
		PushoverURL: DefaultPushoverURL,
		MinSeverity: alert.SeverityLow,
		QueueSize:   1000,
		HTTPTimeout: 10 * time.Second,
	}
}

// Notifier is the sink for security events.
// It stores every event in the event DB, streams it to watchers, and delivers it
// to the webhook and Pushover, retrying until the receivers accept it.
type Notifier struct {
	log      logs.Log
	eventDB  *eventdb.EventDB
	config   Config
	client   *http.Client
	incoming chan alert.Event
	transmit chan *eventdb.Event
	closed   atomic.Bool
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	// Retry backoff for failed transmissions
	minPause time.Duration
	maxPause time.Duration

	filterLock  sync.Mutex
	minSeverity alert.Severity
	disabled    map[alert.Category]bool

	watchersLock sync.RWMutex
	watchers     []chan *eventdb.Event

	backlogLock sync.Mutex
	backlog     ringbuffer.RingP[eventdb.Event]
}

// Create a new notifier, and start its background threads.
// Events that were stored but never delivered are queued for transmission again.
func NewNotifier(logger logs.Log, eventDB *eventdb.EventDB, config Config) (*Notifier, error) {
	return newNotifier(logger, eventDB, config, time.Second, 30*time.Second)
}

func newNotifier(logger logs.Log, eventDB *eventdb.EventDB, config Config, minPause, maxPause time.Duration) (*Notifier, error) {
	if config.PushoverURL == "" {
		config.PushoverURL = DefaultPushoverURL
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = DefaultConfig().HTTPTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	n := &Notifier{
		log:         logs.NewPrefixLogger(logger, "Notifier:"),
		eventDB:     eventDB,
		config:      config,
		client:      &http.Client{Timeout: config.HTTPTimeout},
		incoming:    make(chan alert.Event, config.QueueSize),
		transmit:    make(chan *eventdb.Event, config.QueueSize),
		ctx:         ctx,
		cancel:      cancel,
		minPause:    minPause,
		maxPause:    maxPause,
		minSeverity: config.MinSeverity,
		disabled:    map[alert.Category]bool{},
		backlog:     ringbuffer.NewRingP[eventdb.Event](backlogSize),
	}
	for _, c := range config.DisabledCategories {
		n.disabled[c] = true
	}

	var unsent []*eventdb.Event
	if n.hasReceivers() {
		var err error
		unsent, err = eventDB.Unsent()
		if err != nil {
			cancel()
			return nil, err
		}
		if len(unsent) != 0 {
			n.log.Infof("Resuming transmission of %v undelivered events", len(unsent))
		}
	}

	n.wg.Add(2)
	go n.processThread()
	go n.transmitThread(unsent)
	return n, nil
}

// Send queues an event. It never blocks. If the queue is full, the event is dropped.
func (n *Notifier) Send(ev alert.Event) {
	if n.closed.Load() || !n.accept(ev) {
		return
	}
	select {
	case n.incoming <- ev:
	default:
		n.log.Warnf("Queue is full, dropping '%v' event: %v", ev.Category, ev.Message)
	}
}

func (n *Notifier) accept(ev alert.Event) bool {
	n.filterLock.Lock()
	defer n.filterLock.Unlock()
	return ev.Severity >= n.minSeverity && !n.disabled[ev.Category]
}

func (n *Notifier) SetMinSeverity(s alert.Severity) {
	n.filterLock.Lock()
	defer n.filterLock.Unlock()
	n.minSeverity = s
}

func (n *Notifier) EnableCategory(c alert.Category, enable bool) {
	n.filterLock.Lock()
	defer n.filterLock.Unlock()
	if enable {
		delete(n.disabled, c)
	} else {
		n.disabled[c] = true
	}
}

// Recent returns up to 'count' of the most recently stored events, oldest first
func (n *Notifier) Recent(count int) ([]*eventdb.Event, error) {
	return n.eventDB.Recent(count)
}

// Backlog returns the events held in memory, oldest first
func (n *Notifier) Backlog() []eventdb.Event {
	n.backlogLock.Lock()
	defer n.backlogLock.Unlock()
	out := make([]eventdb.Event, 0, n.backlog.Len())
	for i := 0; i < n.backlog.Len(); i++ {
		out = append(out, n.backlog.Peek(i))
	}
	return out
}

// Close stops the background threads.
// Events that are already queued are stored before Close returns, and delivered on the next start.
func (n *Notifier) Close() {
	if n.closed.Swap(true) {
		return
	}
	n.cancel()
	n.wg.Wait()
}

func (n *Notifier) hasReceivers() bool {
	return n.config.WebhookURL != "" || (n.config.PushoverToken != "" && n.config.PushoverUser != "")
}

// Store, broadcast and queue every incoming event
func (n *Notifier) processThread() {
	defer n.wg.Done()
	for {
		select {
		case ev := <-n.incoming:
			n.process(ev, true)
		case <-n.ctx.Done():
			remaining := gen.DrainChannelIntoSlice(n.incoming)
			for _, ev := range remaining {
				n.process(ev, false)
			}
			return
		}
	}
}

func (n *Notifier) process(ev alert.Event, transmit bool) {
	stored, err := n.eventDB.AddEvent(ev)
	if err != nil {
		n.log.Errorf("Failed to store '%v' event: %v", ev.Category, err)
		return
	}

	n.backlogLock.Lock()
	n.backlog.Add(*stored)
	n.backlogLock.Unlock()

	n.sendToWatchers(stored)

	if !transmit || !n.hasReceivers() {
		return
	}
	select {
	case n.transmit <- stored:
	default:
		n.log.Warnf("Transmit queue is full. Event %v will be sent after restart", stored.ID)
	}
}
