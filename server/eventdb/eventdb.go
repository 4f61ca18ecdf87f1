package eventdb

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"gorm.io/gorm"
)

// EventDB is the persistent log of security events.
// Events are written once, marked as sent when delivery succeeds, and purged when the table grows too large.
type EventDB struct {
	log           logs.Log
	DB            *gorm.DB
	maxEventCount int64
}

// Open or create an event DB
func NewEventDB(logger logs.Log, dbFilename string) (*EventDB, error) {
	logger = logs.NewPrefixLogger(logger, "EventDB:")
	if err := os.MkdirAll(filepath.Dir(dbFilename), 0770); err != nil {
		return nil, fmt.Errorf("Failed to create event DB directory: %w", err)
	}
	db, err := dbh.OpenDB(logger, dbh.MakeSqliteConfig(dbFilename), Migrations(logger), 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open database %v: %w", dbFilename, err)
	}
	return &EventDB{
		log:           logger,
		DB:            db,
		maxEventCount: 100000,
	}, nil
}

func (e *EventDB) Close() {
	if sqlDB, err := e.DB.DB(); err == nil {
		sqlDB.Close()
	}
}
