package configdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/cyclopcam/overwatch/server/tracking"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VariableKey is global configuration variables that can be set on the system
type VariableKey string

const (
	VarEngineSettings VariableKey = "EngineSettings" // JSON of tracking.Settings
	VarNightVision    VariableKey = "NightVision"    // "true" or "false"
)

// Returns ErrNotFound if the variable has never been set
func (c *ConfigDB) GetVariable(key VariableKey) (string, error) {
	v := Variable{}
	err := c.DB.First(&v, "key = ?", string(key)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("%w: variable %v", ErrNotFound, key)
	} else if err != nil {
		return "", err
	}
	return v.Value, nil
}

func (c *ConfigDB) SetVariable(key VariableKey, value string) error {
	v := Variable{
		Key:   string(key),
		Value: value,
	}
	return c.DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(&v).Error
}

// EngineSettings returns the persisted tracker settings, or ErrNotFound if they have never been saved
func (c *ConfigDB) EngineSettings() (tracking.Settings, error) {
	raw, err := c.GetVariable(VarEngineSettings)
	if err != nil {
		return tracking.Settings{}, err
	}
	s := tracking.Settings{}
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return tracking.Settings{}, fmt.Errorf("Invalid stored engine settings: %w", err)
	}
	return s, nil
}

func (c *ConfigDB) SetEngineSettings(s tracking.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	j, err := json.Marshal(&s)
	if err != nil {
		return err
	}
	return c.SetVariable(VarEngineSettings, string(j))
}

// NightVision returns false if the state has never been saved
func (c *ConfigDB) NightVision() (bool, error) {
	raw, err := c.GetVariable(VarNightVision)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return strconv.ParseBool(raw)
}

func (c *ConfigDB) SetNightVision(enable bool) error {
	return c.SetVariable(VarNightVision, strconv.FormatBool(enable))
}
