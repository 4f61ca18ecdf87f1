package eventdb

import (
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/overwatch/pkg/alert"
)

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// SYNC-EVENTDB-EVENT
type Event struct {
	BaseModel
	UUID     string         `json:"uuid"` // Idempotency key for remote receivers
	Time     dbh.IntTime    `json:"time"`
	Category alert.Category `json:"category"`
	Message  string         `json:"message"`
	Severity alert.Severity `json:"severity"`
	Image    []byte         `json:"-" gorm:"default:null"`
	Sent     bool           `json:"sent"` // True once every delivery channel has accepted the event
}

func (e *Event) Alert() alert.Event {
	return alert.Event{
		Category: e.Category,
		Message:  e.Message,
		Severity: e.Severity,
		Time:     e.Time.Get(),
		Image:    e.Image,
	}
}
