package configdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/overwatch/pkg/nn"
	"github.com/cyclopcam/overwatch/server/tracking"
	"github.com/stretchr/testify/require"
)

func createTestDB(t *testing.T, dbFilename string) *ConfigDB {
	t.Helper()
	db, err := NewConfigDB(logs.NewTestingLog(t), dbFilename)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func TestZones(t *testing.T) {
	dbFilename := filepath.Join(t.TempDir(), "config.sqlite")
	db := createTestDB(t, dbFilename)

	zones, err := db.Zones()
	require.NoError(t, err)
	require.Empty(t, zones)

	_, err = db.AddZone(nn.MakeRect(10, 10, 40, 40))
	require.NoError(t, err)
	_, err = db.AddZone(nn.MakeRect(0, 0, 5, 100))
	require.NoError(t, err)
	_, err = db.AddZone(nn.MakeRect(0, 0, 0, 100))
	require.ErrorIs(t, err, tracking.ErrInvalidZone)

	// Zones survive reopening
	db2 := createTestDB(t, dbFilename)
	zones, err = db2.Zones()
	require.NoError(t, err)
	require.Len(t, zones, 2)
	require.Equal(t, nn.MakeRect(10, 10, 40, 40), zones[0].Rect())
	require.Equal(t, nn.MakeRect(0, 0, 5, 100), zones[1].Rect())

	require.NoError(t, db.ClearZones())
	zones, err = db.Zones()
	require.NoError(t, err)
	require.Empty(t, zones)
}

func TestEngineSettings(t *testing.T) {
	db := createTestDB(t, filepath.Join(t.TempDir(), "config.sqlite"))

	_, err := db.EngineSettings()
	require.ErrorIs(t, err, ErrNotFound)

	s := tracking.DefaultSettings()
	s.MaxVelocity = 12.5
	s.MaxStationaryTime = 90 * time.Second
	s.Association = tracking.AssociationHungarian
	require.NoError(t, db.SetEngineSettings(s))

	loaded, err := db.EngineSettings()
	require.NoError(t, err)
	require.Equal(t, s, loaded)

	// Overwrite
	s.MaxVelocity = 3
	require.NoError(t, db.SetEngineSettings(s))
	loaded, err = db.EngineSettings()
	require.NoError(t, err)
	require.Equal(t, 3.0, loaded.MaxVelocity)

	bad := s
	bad.PixelToMeter = 0
	require.ErrorIs(t, db.SetEngineSettings(bad), tracking.ErrInvalidSettings)
}

func TestNightVision(t *testing.T) {
	db := createTestDB(t, filepath.Join(t.TempDir(), "config.sqlite"))
	on, err := db.NightVision()
	require.NoError(t, err)
	require.False(t, on)

	require.NoError(t, db.SetNightVision(true))
	on, err = db.NightVision()
	require.NoError(t, err)
	require.True(t, on)

	require.NoError(t, db.SetNightVision(false))
	on, err = db.NightVision()
	require.NoError(t, err)
	require.False(t, on)
}
