package world

import "github.com/shardwell/worldcore/internal/spatial"

// Channel is a capacity-bounded shard within a zone. It owns its own player
// and monster tables and one spatial grid. Invariant: len(Players) never
// exceeds Capacity while a new player is being placed — BestChannelFor is
// responsible for routing overflow to a sibling channel.
type Channel struct {
	Index    int
	Capacity int

	Players    map[EntityID]*Player
	Monsters   map[EntityID]*Monster
	GroundLoot map[int64]*GroundLootEntry
	Grid       *spatial.Grid
}

func newChannel(index, capacity int, cellSize int32) *Channel {
	return &Channel{
		Index:      index,
		Capacity:   capacity,
		Players:    make(map[EntityID]*Player),
		Monsters:   make(map[EntityID]*Monster),
		GroundLoot: make(map[int64]*GroundLootEntry),
		Grid:       spatial.NewGrid(cellSize),
	}
}

// Full reports whether the channel is at its configured player capacity.
func (c *Channel) Full() bool {
	return len(c.Players) >= c.Capacity
}

// AddPlayer inserts a player into the channel's table and spatial grid.
func (c *Channel) AddPlayer(p *Player) {
	c.Players[p.ID] = p
	c.Grid.Add(int64(p.ID), p.Position.X, p.Position.Z)
}

// RemovePlayer removes a player from the channel's table and spatial grid.
func (c *Channel) RemovePlayer(id EntityID) {
	delete(c.Players, id)
	c.Grid.Remove(int64(id))
}

// AddMonster inserts a monster into the channel's table and spatial grid.
func (c *Channel) AddMonster(m *Monster) {
	c.Monsters[m.ID] = m
	c.Grid.Add(int64(m.ID), m.Position.X, m.Position.Z)
}

// RemoveMonster removes a monster from the channel's table and spatial grid.
func (c *Channel) RemoveMonster(id EntityID) {
	delete(c.Monsters, id)
	c.Grid.Remove(int64(id))
}

// MovePlayer updates a player's grid cell after its position changed.
func (c *Channel) MovePlayer(id EntityID, pos Vec3) {
	c.Grid.Move(int64(id), pos.X, pos.Z)
}

// MoveMonster updates a monster's grid cell after its position changed.
func (c *Channel) MoveMonster(id EntityID, pos Vec3) {
	c.Grid.Move(int64(id), pos.X, pos.Z)
}

// AddGroundLoot places a spawned-loot entry on the channel's ground-loot
// table, reachable for pickup until a client removes it.
func (c *Channel) AddGroundLoot(e *GroundLootEntry) {
	c.GroundLoot[e.ID] = e
}

// GroundLootByID looks up a ground-loot entry by its ID.
func (c *Channel) GroundLootByID(id int64) (*GroundLootEntry, bool) {
	e, ok := c.GroundLoot[id]
	return e, ok
}

// RemoveGroundLoot removes a ground-loot entry once it has been picked
// up; entries do not expire.
func (c *Channel) RemoveGroundLoot(id int64) {
	delete(c.GroundLoot, id)
}

// NearbyPlayers resolves the interest set around (x, z) to live Player
// records, used by the broadcast service to pick packet recipients.
func (c *Channel) NearbyPlayers(x, z float64) []*Player {
	ids := c.Grid.NearbyEntities(x, z)
	out := make([]*Player, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.Players[EntityID(id)]; ok {
			out = append(out, p)
		}
	}
	return out
}
