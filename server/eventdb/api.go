package eventdb

import (
	"slices"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/overwatch/pkg/alert"
	"github.com/google/uuid"
)

// Events older than this are not retransmitted
const MaxSendEventAge = 24 * time.Hour

// AddEvent persists ev, and returns the stored record
func (e *EventDB) AddEvent(ev alert.Event) (*Event, error) {
	t := ev.Time
	if t.IsZero() {
		t = time.Now()
	}
	event := &Event{
		UUID:     uuid.NewString(),
		Time:     dbh.MakeIntTime(t),
		Category: ev.Category,
		Message:  ev.Message,
		Severity: ev.Severity,
		Image:    ev.Image,
	}
	if err := e.DB.Create(event).Error; err != nil {
		return nil, err
	}
	e.purgeOldRecords(event.ID)
	return event, nil
}

// Delete everything but the most recent maxEventCount events.
// IDs are assigned in ascending order, so we can do this without counting.
func (e *EventDB) purgeOldRecords(newestID int64) {
	cutoff := newestID - e.maxEventCount
	if cutoff <= 0 {
		return
	}
	if err := e.DB.Where("id <= ?", cutoff).Delete(&Event{}).Error; err != nil {
		e.log.Warnf("Failed to purge old events: %v", err)
	}
}

// Unsent returns the events that have not yet been delivered, oldest first
func (e *EventDB) Unsent() ([]*Event, error) {
	oldest := dbh.MakeIntTime(time.Now().Add(-MaxSendEventAge))
	var events []*Event
	if err := e.DB.Where("sent = ? AND time > ?", false, oldest).Order("id").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Mark the given events as delivered
func (e *EventDB) MarkSent(eventIDs []int64) error {
	if len(eventIDs) == 0 {
		return nil
	}
	return e.DB.Model(&Event{}).Where("id IN ?", eventIDs).Update("sent", true).Error
}

// Recent returns up to 'count' of the most recent events, oldest first
func (e *EventDB) Recent(count int) ([]*Event, error) {
	if count <= 0 {
		return nil, nil
	}
	var events []*Event
	if err := e.DB.Order("id DESC").Limit(count).Find(&events).Error; err != nil {
		return nil, err
	}
	slices.Reverse(events)
	return events, nil
}

func (e *EventDB) Count() (int64, error) {
	count := int64(0)
	err := e.DB.Model(&Event{}).Count(&count).Error
	return count, err
}
