package tracking

import (
	"errors"
	"fmt"

	flatbush "github.com/bmharper/flatbush-go"
	"github.com/cyclopcam/overwatch/pkg/nn"
)

var ErrInvalidZone = errors.New("Invalid restricted zone")

// ZoneSet is the set of restricted zones, with a spatial index for point lookups.
// The index is rebuilt whenever the set changes, which is rare compared to lookups.
type ZoneSet struct {
	zones   []nn.Rect
	index   *flatbush.Flatbush[int32] // nil when there are no zones
	scratch []int
}

func (z *ZoneSet) Add(r nn.Rect) error {
	if r.IsEmpty() {
		return fmt.Errorf("%w: %v x %v", ErrInvalidZone, r.Width, r.Height)
	}
	z.zones = append(z.zones, r)
	z.rebuild()
	return nil
}

func (z *ZoneSet) Clear() {
	z.zones = nil
	z.index = nil
}

func (z *ZoneSet) Len() int {
	return len(z.zones)
}

// Rects returns a copy of the zones
func (z *ZoneSet) Rects() []nn.Rect {
	return append([]nn.Rect{}, z.zones...)
}

// Contains returns true if p lies inside any zone
func (z *ZoneSet) Contains(p nn.Point) bool {
	if z.index == nil {
		return false
	}
	x, y := int32(p.X), int32(p.Y)
	z.scratch = z.index.SearchFast(x, y, x, y, z.scratch[:0])
	for _, i := range z.scratch {
		if z.zones[i].Contains(p) {
			return true
		}
	}
	return false
}

func (z *ZoneSet) rebuild() {
	fb := flatbush.NewFlatbush[int32]()
	fb.Reserve(len(z.zones))
	for _, r := range z.zones {
		fb.Add(int32(r.X), int32(r.Y), int32(r.X2()), int32(r.Y2()))
	}
	fb.Finish()
	z.index = fb
}
