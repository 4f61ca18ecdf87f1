package alert

import (
	"fmt"
	"time"
)

// Package alert defines the discrete security events raised by the tracker,
// and the Sink that is responsible for delivering them.

// Category of an event
// SYNC-ALERT-CATEGORY
type Category string

const (
	CategoryNewObject      Category = "new-object"
	CategoryZoneViolation  Category = "zone-violation"
	CategorySpeedViolation Category = "speed-violation"
	CategoryNightActivity  Category = "night-activity"
	CategoryStationary     Category = "stationary-object"
	CategoryFaceRecognized Category = "face-recognized"
	CategorySystemStatus   Category = "system-status"
)

// AllCategories lists every category, in a stable order
var AllCategories = []Category{
	CategoryNewObject,
	CategoryZoneViolation,
	CategorySpeedViolation,
	CategoryNightActivity,
	CategoryStationary,
	CategoryFaceRecognized,
	CategorySystemStatus,
}

func (c Category) IsValid() bool {
	for _, v := range AllCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Severity is on a scale of 1 (lowest) to 5 (highest)
type Severity int

const (
	SeverityLow    Severity = 1
	SeverityMedium Severity = 2
	SeverityHigh   Severity = 3
	SeverityMax    Severity = 5
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	}
	return fmt.Sprintf("severity-%d", int(s))
}

// An Event is a single notification, such as "entered restricted zone"
// SYNC-ALERT-EVENT-JSON
type Event struct {
	Category Category  `json:"category"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Time     time.Time `json:"time"`
	Image    []byte    `json:"image,omitempty"` // Optional image, such as a face crop (usually empty)
}

// Sink accepts events for delivery.
// Send must not block the caller on delivery. Delivery failures are the sink's concern.
type Sink interface {
	Send(ev Event)
}

// SinkFunc adapts a function into a Sink
type SinkFunc func(ev Event)

func (f SinkFunc) Send(ev Event) {
	f(ev)
}

// Discard is a Sink that drops every event
var Discard Sink = SinkFunc(func(ev Event) {})
