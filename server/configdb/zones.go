package configdb

import (
	"github.com/cyclopcam/overwatch/pkg/nn"
	"github.com/cyclopcam/overwatch/server/tracking"
)

// Zones returns the restricted zones in the order that they were added
func (c *ConfigDB) Zones() ([]Zone, error) {
	zones := []Zone{}
	if err := c.DB.Order("id").Find(&zones).Error; err != nil {
		return nil, err
	}
	return zones, nil
}

func (c *ConfigDB) AddZone(r nn.Rect) (*Zone, error) {
	if r.IsEmpty() {
		return nil, tracking.ErrInvalidZone
	}
	zone := &Zone{
		X:      r.X,
		Y:      r.Y,
		Width:  r.Width,
		Height: r.Height,
	}
	if err := c.DB.Create(zone).Error; err != nil {
		return nil, err
	}
	return zone, nil
}

func (c *ConfigDB) ClearZones() error {
	return c.DB.Where("1 = 1").Delete(&Zone{}).Error
}
