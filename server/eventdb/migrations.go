package eventdb

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

func Migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE event(
			id INTEGER PRIMARY KEY,
			uuid TEXT NOT NULL,
			time INT NOT NULL,
			category TEXT NOT NULL,
			message TEXT NOT NULL,
			severity INT NOT NULL,
			image BLOB,
			sent BOOLEAN NOT NULL
		);
		CREATE UNIQUE INDEX idx_event_uuid ON event(uuid);
	`))

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE INDEX idx_event_time ON event(time);
		CREATE INDEX idx_event_sent ON event(sent) WHERE sent = 0;
	`))

	return migs
}
