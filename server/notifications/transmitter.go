package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cyclopcam/overwatch/pkg/alert"
	"github.com/cyclopcam/overwatch/pkg/gen"
	"github.com/cyclopcam/overwatch/server/eventdb"
)

// Deliver events to the remote receivers, retrying with exponential backoff.
// 'initialQueue' is the list of events that were stored but never delivered.
func (n *Notifier) transmitThread(initialQueue []*eventdb.Event) {
	defer n.wg.Done()
	pause := n.maxPause
	if len(initialQueue) != 0 {
		pause = 0
	}
	queue := initialQueue
	for {
		select {
		case ev := <-n.transmit:
			if len(queue) >= n.config.QueueSize {
				// Drop old messages. They remain unsent in the DB, and are retried on the next start.
				n.log.Warnf("Dropping old messages from transmit queue, size: %v", len(queue))
				queue = queue[len(queue)-n.config.QueueSize+1:]
			}
			queue = append(queue, ev)
			pause = 0
		case <-time.After(pause):
			if len(queue) != 0 {
				queue = n.transmitQueue(queue)
			}
			if len(queue) == 0 {
				// Queue was cleared, so we can pause until receiving a new event
				pause = n.maxPause
			} else {
				// Queue was not cleared, so we start backing off
				pause = gen.Clamp(pause*2, n.minPause, n.maxPause)
			}
		case <-n.ctx.Done():
			return
		}
	}
}

// Returns the list of events that still need to be sent.
func (n *Notifier) transmitQueue(queue []*eventdb.Event) []*eventdb.Event {
	for i, ev := range queue {
		if err := n.transmitEvent(ev); err != nil {
			n.log.Errorf("Failed to send event %v: %v", ev.ID, err)
			return queue[i:]
		}
		if err := n.eventDB.MarkSent([]int64{ev.ID}); err != nil {
			n.log.Errorf("Failed to mark event %v as sent: %v", ev.ID, err)
		}
	}
	return nil
}

// Send the event to every receiver that wants it.
// If one receiver fails, the whole event is retried later, so the webhook
// receiver must use the UUID to discard duplicates.
func (n *Notifier) transmitEvent(ev *eventdb.Event) error {
	if n.config.WebhookURL != "" {
		if err := n.sendWebhook(ev); err != nil {
			return fmt.Errorf("webhook: %w", err)
		}
	}
	if n.config.PushoverToken != "" && n.config.PushoverUser != "" && ev.Severity >= alert.SeverityMedium {
		if err := n.sendPushover(ev); err != nil {
			return fmt.Errorf("pushover: %w", err)
		}
	}
	return nil
}

// SYNC-WEBHOOK-EVENT-JSON
type webhookEventJSON struct {
	UUID         string `json:"uuid"`
	Time         int64  `json:"time"` // Unix milliseconds
	Category     string `json:"category"`
	Severity     int    `json:"severity"`
	SeverityName string `json:"severityName"`
	Message      string `json:"message"`
	Image        []byte `json:"image,omitempty"`
}

func (n *Notifier) sendWebhook(ev *eventdb.Event) error {
	j, err := json.Marshal(&webhookEventJSON{
		UUID:         ev.UUID,
		Time:         ev.Time.Get().UnixMilli(),
		Category:     string(ev.Category),
		Severity:     int(ev.Severity),
		SeverityName: ev.Severity.String(),
		Message:      ev.Message,
		Image:        ev.Image,
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(n.ctx, n.config.HTTPTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "POST", n.config.WebhookURL, bytes.NewReader(j))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", ev.UUID)
	return n.do(req)
}

// Pushover priorities are -2..2. We only raise priority for the most severe events.
func pushoverPriority(s alert.Severity) int {
	if s >= alert.SeverityHigh {
		return 1
	}
	return 0
}

func (n *Notifier) sendPushover(ev *eventdb.Event) error {
	form := url.Values{}
	form.Set("token", n.config.PushoverToken)
	form.Set("user", n.config.PushoverUser)
	form.Set("title", "Overwatch: "+string(ev.Category))
	form.Set("message", ev.Message)
	form.Set("priority", strconv.Itoa(pushoverPriority(ev.Severity)))
	form.Set("timestamp", strconv.FormatInt(ev.Time.Get().Unix(), 10))

	ctx, cancel := context.WithTimeout(n.ctx, n.config.HTTPTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "POST", n.config.PushoverURL, bytes.NewReader([]byte(form.Encode())))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return n.do(req)
}

func (n *Notifier) do(req *http.Request) error {
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%v (%v)", resp.Status, string(msg))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
