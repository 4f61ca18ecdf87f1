package configdb

import "github.com/cyclopcam/overwatch/pkg/nn"

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// A restricted zone, in pixel coordinates of the camera image
// SYNC-CONFIGDB-ZONE
type Zone struct {
	BaseModel
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (z *Zone) Rect() nn.Rect {
	return nn.MakeRect(z.X, z.Y, z.Width, z.Height)
}

type Variable struct {
	Key   string `gorm:"primaryKey" json:"key"`
	Value string `json:"value"`
}
