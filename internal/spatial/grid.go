// Package spatial implements the uniform-grid interest filter used to
// answer "entities near (x,z)" in O(k). It owns no entity state — it is
// strictly an index over positions the caller already tracks.
package spatial

// cellKey identifies one grid cell by integer coordinate.
type cellKey struct {
	cx, cz int32
}

// Grid is a uniform grid over world coordinates. It is not safe for
// concurrent use — like the rest of per-channel world state, it is only
// ever touched from the tick goroutine.
type Grid struct {
	cellSize int32
	cells    map[cellKey]map[int64]struct{}
	byEntity map[int64]cellKey
}

// NewGrid creates a grid with the given cell side length, in world units.
func NewGrid(cellSize int32) *Grid {
	if cellSize <= 0 {
		cellSize = 50
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[cellKey]map[int64]struct{}),
		byEntity: make(map[int64]cellKey),
	}
}

func (g *Grid) cellOf(x, z float64) cellKey {
	return cellKey{cx: floorDiv(x, float64(g.cellSize)), cz: floorDiv(z, float64(g.cellSize))}
}

func floorDiv(v, size float64) int32 {
	q := v / size
	if q < 0 {
		return int32(q) - 1
	}
	return int32(q)
}

// Add places an entity into the grid at (x, z). The entity must not already
// be present; use Move to relocate an entity that is.
func (g *Grid) Add(id int64, x, z float64) {
	k := g.cellOf(x, z)
	g.insert(id, k)
	g.byEntity[id] = k
}

func (g *Grid) insert(id int64, k cellKey) {
	cell, ok := g.cells[k]
	if !ok {
		cell = make(map[int64]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

// Remove takes an entity out of the grid entirely.
func (g *Grid) Remove(id int64) {
	k, ok := g.byEntity[id]
	if !ok {
		return
	}
	g.removeFromCell(id, k)
	delete(g.byEntity, id)
}

func (g *Grid) removeFromCell(id int64, k cellKey) {
	cell := g.cells[k]
	if cell == nil {
		return
	}
	delete(cell, id)
	if len(cell) == 0 {
		delete(g.cells, k)
	}
}

// Move updates an entity's position. If the new position maps to the same
// cell, this is a no-op (O(1)); otherwise the entity is relocated between
// cell sets.
func (g *Grid) Move(id int64, x, z float64) {
	newKey := g.cellOf(x, z)
	oldKey, tracked := g.byEntity[id]
	if tracked && oldKey == newKey {
		return
	}
	if tracked {
		g.removeFromCell(id, oldKey)
	}
	g.insert(id, newKey)
	g.byEntity[id] = newKey
}

// NearbyEntities returns the union of entity IDs in the 3x3 cell
// neighbourhood centred on (x, z). The order is unspecified.
func (g *Grid) NearbyEntities(x, z float64) []int64 {
	center := g.cellOf(x, z)
	var out []int64
	for dx := int32(-1); dx <= 1; dx++ {
		for dz := int32(-1); dz <= 1; dz++ {
			cell := g.cells[cellKey{cx: center.cx + dx, cz: center.cz + dz}]
			for id := range cell {
				out = append(out, id)
			}
		}
	}
	return out
}

// CellOf exposes the cell coordinate for a position, primarily for tests
// that assert the locality property directly.
func (g *Grid) CellOf(x, z float64) (int32, int32) {
	k := g.cellOf(x, z)
	return k.cx, k.cz
}

// Contains reports whether id is currently tracked by the grid.
func (g *Grid) Contains(id int64) bool {
	_, ok := g.byEntity[id]
	return ok
}
