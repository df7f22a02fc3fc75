package game

import (
	"testing"

	"arena-game/protocol"
)

func newTestEntity(id string) PlayerEntity {
	return PlayerEntity{
		ID:       id,
		Username: "Pilot",
		Position: protocol.Position{X: 0, Y: 1.6, Z: 10},
		Health:   MaxHealth,
	}
}

func TestStoreAddGetRemove(t *testing.T) {
	s := NewStore()
	s.Add(newTestEntity("p1"))

	e, ok := s.Get("p1")
	if !ok {
		t.Fatal("expected entity p1")
	}
	if e.Health != MaxHealth || e.Username != "Pilot" {
		t.Errorf("unexpected entity %+v", e)
	}

	s.Remove("p1")
	if _, ok := s.Get("p1"); ok {
		t.Error("entity should be gone after Remove")
	}
	// Removing again is a no-op
	s.Remove("p1")
}

func TestStoreUpdateMergesOnlyProvidedFields(t *testing.T) {
	s := NewStore()
	s.Add(newTestEntity("p1"))

	pos := protocol.Position{X: 5, Y: 1.6, Z: -3}
	rot := 1.5
	if !s.Update("p1", Partial{Position: &pos, Rotation: &rot}) {
		t.Fatal("update should succeed")
	}

	e, _ := s.Get("p1")
	if e.Position != pos || e.Rotation != rot {
		t.Errorf("position/rotation not merged: %+v", e)
	}
	if e.Health != MaxHealth {
		t.Errorf("health clobbered by movement update: %d", e.Health)
	}

	// Health-only update must not move the player
	health := 40
	s.Update("p1", Partial{Health: &health})
	e, _ = s.Get("p1")
	if e.Position != pos {
		t.Error("position clobbered by health update")
	}
	if e.Health != 40 {
		t.Errorf("expected health 40, got %d", e.Health)
	}
}

func TestStoreUpdatePositionRequiresRotation(t *testing.T) {
	s := NewStore()
	s.Add(newTestEntity("p1"))

	pos := protocol.Position{X: 99}
	s.Update("p1", Partial{Position: &pos})

	e, _ := s.Get("p1")
	if e.Position.X == 99 {
		t.Error("position applied without rotation")
	}
}

func TestStoreUpdateUnknownIDIsNoOp(t *testing.T) {
	s := NewStore()
	health := 10
	if s.Update("ghost", Partial{Health: &health}) {
		t.Error("update of unknown id should return false")
	}
}

func TestStoreHealthClamped(t *testing.T) {
	s := NewStore()
	s.Add(newTestEntity("p1"))

	over := 250
	s.Update("p1", Partial{Health: &over})
	if e, _ := s.Get("p1"); e.Health != MaxHealth {
		t.Errorf("health not clamped high: %d", e.Health)
	}

	under := -50
	s.Update("p1", Partial{Health: &under})
	if e, _ := s.Get("p1"); e.Health != 0 {
		t.Errorf("health not clamped low: %d", e.Health)
	}
}

func TestApplyDamageKillsExactlyOnce(t *testing.T) {
	s := NewStore()
	s.Add(newTestEntity("p1"))

	// 100 -> 75 -> 50 -> 25 -> 0; only the fourth call kills
	for i, want := range []int{75, 50, 25, 0} {
		killed := s.ApplyDamage("p1", 25)
		e, _ := s.Get("p1")
		if e.Health != want {
			t.Fatalf("call %d: expected health %d, got %d", i+1, want, e.Health)
		}
		if killed != (want == 0) {
			t.Fatalf("call %d: killed = %v", i+1, killed)
		}
	}

	// Further damage on a dead player never re-kills
	if s.ApplyDamage("p1", 25) {
		t.Error("dead player killed again")
	}
	if e, _ := s.Get("p1"); e.Health != 0 {
		t.Errorf("health went below 0: %d", e.Health)
	}
}

func TestApplyDamageOverkillClampsToZero(t *testing.T) {
	s := NewStore()
	s.Add(newTestEntity("p1"))

	if !s.ApplyDamage("p1", 9999) {
		t.Error("overkill should still report the kill")
	}
	if e, _ := s.Get("p1"); e.Health != 0 {
		t.Errorf("expected health 0, got %d", e.Health)
	}
}

func TestApplyDamageUnknownID(t *testing.T) {
	s := NewStore()
	if s.ApplyDamage("ghost", 50) {
		t.Error("damage to unknown id should be a no-op")
	}
}

func TestReviveResetsHealthAndPosition(t *testing.T) {
	s := NewStore()
	s.Add(newTestEntity("p1"))
	s.ApplyDamage("p1", 100)

	pos := protocol.Position{X: 7, Y: 1.6, Z: 7}
	if !s.Revive("p1", pos) {
		t.Fatal("revive should succeed")
	}
	e, _ := s.Get("p1")
	if e.Health != MaxHealth {
		t.Errorf("expected full health, got %d", e.Health)
	}
	if e.Position != pos {
		t.Errorf("expected position %+v, got %+v", pos, e.Position)
	}
}

func TestReviveAbsentEntity(t *testing.T) {
	s := NewStore()
	if s.Revive("ghost", protocol.Position{}) {
		t.Error("revive of absent entity should return false")
	}
}

func TestAllReturnsCopies(t *testing.T) {
	s := NewStore()
	s.Add(newTestEntity("p1"))
	s.Add(newTestEntity("p2"))

	all := s.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(all))
	}

	// Mutating the copy must not affect the store
	e := all["p1"]
	e.Health = 1
	all["p1"] = e
	if stored, _ := s.Get("p1"); stored.Health != MaxHealth {
		t.Error("All leaked a reference into the store")
	}
}
