package world

// ZoneDef is the static, preconfigured metadata for a zone.
type ZoneDef struct {
	ID           string
	Name         string
	DefaultSpawn Vec3
	BoundsMin    Vec3
	BoundsMax    Vec3
}

// Zone is a preconfigured region of the world, sharded into capacity-bounded
// channels. Channels are appended, never removed, for the lifetime of the
// process.
type Zone struct {
	Def      ZoneDef
	Channels []*Channel
	capacity int
	cellSize int32
}

func newZone(def ZoneDef, capacity int, cellSize int32) *Zone {
	z := &Zone{Def: def, capacity: capacity, cellSize: cellSize}
	z.Channels = append(z.Channels, newChannel(0, capacity, cellSize))
	return z
}

// BestChannelFor returns the first channel with spare capacity, appending a
// new one if every existing channel is full.
func (z *Zone) BestChannelFor() *Channel {
	for _, c := range z.Channels {
		if !c.Full() {
			return c
		}
	}
	next := newChannel(len(z.Channels), z.capacity, z.cellSize)
	z.Channels = append(z.Channels, next)
	return next
}

// InBounds reports whether pos lies within the zone's configured bounds.
func (z *Zone) InBounds(pos Vec3) bool {
	return pos.X >= z.Def.BoundsMin.X && pos.X <= z.Def.BoundsMax.X &&
		pos.Z >= z.Def.BoundsMin.Z && pos.Z <= z.Def.BoundsMax.Z
}
