package world

import "testing"

func newTestState(capacity int) *State {
	s := NewState(capacity, 50, 1_000_000)
	s.AddZone(ZoneDef{
		ID:           "town",
		Name:         "Town",
		DefaultSpawn: Vec3{0, 0, 0},
		BoundsMin:    Vec3{-1000, -1000, -1000},
		BoundsMax:    Vec3{1000, 1000, 1000},
	})
	return s
}

// TestChannelCapacity implements testable property 6: a channel never holds
// more than channel-capacity players; a new channel appears once every
// existing channel in the zone is full.
func TestChannelCapacity(t *testing.T) {
	s := newTestState(2)

	var placed []*Player
	for i := 0; i < 5; i++ {
		p := NewPlayer(s.NextPlayerID(), int64(i), int64(i), "p", "warrior")
		if _, err := s.PlacePlayer(p, "town"); err != nil {
			t.Fatalf("PlacePlayer: %v", err)
		}
		placed = append(placed, p)
	}

	zone, _ := s.Zone("town")
	if len(zone.Channels) != 3 {
		t.Fatalf("expected 3 channels for 5 players at capacity 2, got %d", len(zone.Channels))
	}
	for _, c := range zone.Channels {
		if len(c.Players) > c.Capacity {
			t.Fatalf("channel %d holds %d players, capacity %d", c.Index, len(c.Players), c.Capacity)
		}
	}

	// All 5 must be placed somewhere, and findable via reverse index.
	for _, p := range placed {
		if _, _, ok := s.FindPlayer(p.ID); !ok {
			t.Fatalf("player %d not findable after placement", p.ID)
		}
	}
}

func TestIsMonsterDiscriminatesByIDRange(t *testing.T) {
	s := newTestState(100)
	p := s.NextPlayerID()
	m := s.NextMonsterID()
	if s.IsMonster(p) {
		t.Errorf("player ID %d misclassified as monster", p)
	}
	if !s.IsMonster(m) {
		t.Errorf("monster ID %d misclassified as player", m)
	}
}

func TestRemovePlayerClearsReverseIndex(t *testing.T) {
	s := newTestState(10)
	p := NewPlayer(s.NextPlayerID(), 1, 1, "p", "mage")
	s.PlacePlayer(p, "town")
	s.RemovePlayer(p.ID)
	if _, _, ok := s.FindPlayer(p.ID); ok {
		t.Fatal("expected player gone after RemovePlayer")
	}
}

func TestIterateChannelsVisitsEveryChannel(t *testing.T) {
	s := newTestState(1)
	for i := 0; i < 3; i++ {
		p := NewPlayer(s.NextPlayerID(), int64(i), int64(i), "p", "warrior")
		s.PlacePlayer(p, "town")
	}
	count := 0
	s.IterateChannels(func(zoneID string, c *Channel) {
		count++
	})
	if count != 3 {
		t.Fatalf("expected 3 channels visited, got %d", count)
	}
}
