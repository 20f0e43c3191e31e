package world

import "fmt"

// location tracks which zone/channel currently owns a given entity, so
// cross-entity references (kept as plain EntityIDs per spec's design notes)
// can be resolved back to the single channel table that owns the record.
type location struct {
	zoneID  string
	channel int
}

// State is the single process-wide piece of domain state: the set of zones
// and their channels, plus the reverse index needed to resolve an EntityID
// to its owning channel. It is exposed as one injected service — init,
// Place, Remove, lookup, IterateChannels — per spec.md §9; every mutator is
// tick-goroutine-only.
type State struct {
	zones map[string]*Zone
	order []string

	playerLoc  map[EntityID]location
	monsterLoc map[EntityID]location

	playerIDs     *IDAllocator
	monsterIDs    *IDAllocator
	monsterIDBase int64
	lootIDs       *IDAllocator

	channelCapacity int
	cellSize        int32
}

// NewState creates an empty world state. channelCapacity and cellSize apply
// to every channel created for every zone; monsterIDBase is the first ID
// value reserved for monsters (player IDs occupy [1, monsterIDBase)).
func NewState(channelCapacity int, cellSize int32, monsterIDBase int64) *State {
	return &State{
		zones:           make(map[string]*Zone),
		playerLoc:       make(map[EntityID]location),
		monsterLoc:      make(map[EntityID]location),
		playerIDs:       NewIDAllocator(1),
		monsterIDs:      NewIDAllocator(monsterIDBase),
		monsterIDBase:   monsterIDBase,
		lootIDs:         NewIDAllocator(1),
		channelCapacity: channelCapacity,
		cellSize:        cellSize,
	}
}

// AddZone registers a zone's static metadata, starting it with one channel.
func (s *State) AddZone(def ZoneDef) {
	s.zones[def.ID] = newZone(def, s.channelCapacity, s.cellSize)
	s.order = append(s.order, def.ID)
}

// Zone looks up a zone by ID.
func (s *State) Zone(id string) (*Zone, bool) {
	z, ok := s.zones[id]
	return z, ok
}

// NextPlayerID allocates a fresh player entity ID.
func (s *State) NextPlayerID() EntityID { return s.playerIDs.Next() }

// NextMonsterID allocates a fresh monster entity ID.
func (s *State) NextMonsterID() EntityID { return s.monsterIDs.Next() }

// NextLootID allocates a fresh ground-loot entry ID.
func (s *State) NextLootID() int64 { return int64(s.lootIDs.Next()) }

// IsMonster reports whether id falls in the monster ID range, realizing the
// tagged-variant discrimination called for in spec.md §9: identity alone
// determines which table owns the record.
func (s *State) IsMonster(id EntityID) bool {
	return int64(id) >= s.monsterIDBase
}

// PlacePlayer runs BestChannelFor(zone), inserts the player into that
// channel's table and spatial grid, and records the reverse-index entry.
// Returns the channel the player now belongs to.
func (s *State) PlacePlayer(p *Player, zoneID string) (*Channel, error) {
	zone, ok := s.zones[zoneID]
	if !ok {
		return nil, fmt.Errorf("unknown zone %q", zoneID)
	}
	ch := zone.BestChannelFor()
	ch.AddPlayer(p)
	p.ZoneID = zoneID
	p.ChannelID = ch.Index
	s.playerLoc[p.ID] = location{zoneID: zoneID, channel: ch.Index}
	return ch, nil
}

// PlaceInChannel inserts the player into a specific zone/channel index
// rather than letting BestChannelFor pick one, the explicit placement a
// channel-switch or zone-change handler needs after validating the
// target channel has spare capacity.
func (s *State) PlaceInChannel(p *Player, zoneID string, channelIndex int) (*Channel, error) {
	zone, ok := s.zones[zoneID]
	if !ok {
		return nil, fmt.Errorf("unknown zone %q", zoneID)
	}
	if channelIndex < 0 || channelIndex >= len(zone.Channels) {
		return nil, fmt.Errorf("zone %q has no channel %d", zoneID, channelIndex)
	}
	ch := zone.Channels[channelIndex]
	ch.AddPlayer(p)
	p.ZoneID = zoneID
	p.ChannelID = ch.Index
	s.playerLoc[p.ID] = location{zoneID: zoneID, channel: ch.Index}
	return ch, nil
}

// RemovePlayer removes a player from its current channel and clears the
// reverse-index entry. No-op if the player isn't placed.
func (s *State) RemovePlayer(id EntityID) {
	loc, ok := s.playerLoc[id]
	if !ok {
		return
	}
	if zone, ok := s.zones[loc.zoneID]; ok && loc.channel < len(zone.Channels) {
		zone.Channels[loc.channel].RemovePlayer(id)
	}
	delete(s.playerLoc, id)
}

// PlayerChannel resolves a player ID to its owning channel.
func (s *State) PlayerChannel(id EntityID) (*Channel, bool) {
	loc, ok := s.playerLoc[id]
	if !ok {
		return nil, false
	}
	zone, ok := s.zones[loc.zoneID]
	if !ok || loc.channel >= len(zone.Channels) {
		return nil, false
	}
	return zone.Channels[loc.channel], true
}

// FindPlayer resolves a player ID to its record and owning channel.
func (s *State) FindPlayer(id EntityID) (*Player, *Channel, bool) {
	ch, ok := s.PlayerChannel(id)
	if !ok {
		return nil, nil, false
	}
	p, ok := ch.Players[id]
	return p, ch, ok
}

// PlaceMonster inserts a monster into the given zone's channel and records
// the reverse-index entry.
func (s *State) PlaceMonster(m *Monster, zoneID string, channelIndex int) error {
	zone, ok := s.zones[zoneID]
	if !ok {
		return fmt.Errorf("unknown zone %q", zoneID)
	}
	if channelIndex >= len(zone.Channels) {
		return fmt.Errorf("zone %q has no channel %d", zoneID, channelIndex)
	}
	ch := zone.Channels[channelIndex]
	ch.AddMonster(m)
	s.monsterLoc[m.ID] = location{zoneID: zoneID, channel: channelIndex}
	return nil
}

// MonsterChannel resolves a monster ID to its owning channel.
func (s *State) MonsterChannel(id EntityID) (*Channel, bool) {
	loc, ok := s.monsterLoc[id]
	if !ok {
		return nil, false
	}
	zone, ok := s.zones[loc.zoneID]
	if !ok || loc.channel >= len(zone.Channels) {
		return nil, false
	}
	return zone.Channels[loc.channel], true
}

// FindMonster resolves a monster ID to its record and owning channel.
func (s *State) FindMonster(id EntityID) (*Monster, *Channel, bool) {
	ch, ok := s.MonsterChannel(id)
	if !ok {
		return nil, nil, false
	}
	m, ok := ch.Monsters[id]
	return m, ch, ok
}

// RemoveMonster removes a monster from its current channel.
func (s *State) RemoveMonster(id EntityID) {
	loc, ok := s.monsterLoc[id]
	if !ok {
		return
	}
	if zone, ok := s.zones[loc.zoneID]; ok && loc.channel < len(zone.Channels) {
		zone.Channels[loc.channel].RemoveMonster(id)
	}
	delete(s.monsterLoc, id)
}

// IterateChannels calls fn once per channel across every zone, in
// registration order. Used by systems (AI tick, persistence scan) that must
// visit every live entity exactly once per pass.
func (s *State) IterateChannels(fn func(zoneID string, c *Channel)) {
	for _, zoneID := range s.order {
		zone := s.zones[zoneID]
		for _, c := range zone.Channels {
			fn(zoneID, c)
		}
	}
}
