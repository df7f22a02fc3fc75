package game

import (
	"testing"
	"time"

	"arena-game/protocol"
)

func TestResolveHitDamage(t *testing.T) {
	s := NewStore()
	s.Add(newTestEntity("victim"))
	r := NewResolver(s, time.Millisecond)

	health, killed := r.ResolveHit("victim", 30, "attacker")
	if killed {
		t.Error("30 damage should not kill")
	}
	if health != 70 {
		t.Errorf("expected health 70, got %d", health)
	}
}

func TestResolveHitKillFiresOnce(t *testing.T) {
	s := NewStore()
	s.Add(newTestEntity("victim"))
	r := NewResolver(s, time.Millisecond)

	kills := 0
	r.OnKill(func(killerID, victimID string) {
		kills++
		if killerID != "attacker" || victimID != "victim" {
			t.Errorf("kill %s -> %s", killerID, victimID)
		}
	})

	for i := 0; i < 4; i++ {
		r.ResolveHit("victim", 25, "attacker")
	}
	if kills != 1 {
		t.Errorf("expected exactly one kill, got %d", kills)
	}

	// Dead victim: further hits are no-ops
	health, killed := r.ResolveHit("victim", 25, "attacker")
	if killed || health != 0 {
		t.Errorf("hit on dead victim: health=%d killed=%v", health, killed)
	}
	if kills != 1 {
		t.Errorf("kill fired again: %d", kills)
	}
}

func TestResolveHitUnknownVictim(t *testing.T) {
	s := NewStore()
	r := NewResolver(s, time.Millisecond)
	r.OnKill(func(_, _ string) { t.Error("kill fired for unknown victim") })

	health, killed := r.ResolveHit("ghost", 100, "attacker")
	if killed || health != 0 {
		t.Errorf("expected no-op, got health=%d killed=%v", health, killed)
	}
}

func TestRespawnDueFiresAfterDelay(t *testing.T) {
	s := NewStore()
	s.Add(newTestEntity("victim"))
	r := NewResolver(s, 10*time.Millisecond)

	due := make(chan string, 1)
	r.OnRespawnDue(func(victimID string) { due <- victimID })

	r.ResolveHit("victim", 100, "attacker")

	select {
	case id := <-due:
		if id != "victim" {
			t.Errorf("respawn due for %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("respawn timer never fired")
	}
}

func TestRespawnDueNotScheduledWithoutKill(t *testing.T) {
	s := NewStore()
	s.Add(newTestEntity("victim"))
	r := NewResolver(s, time.Millisecond)

	fired := make(chan struct{}, 1)
	r.OnRespawnDue(func(string) { fired <- struct{}{} })

	r.ResolveHit("victim", 10, "attacker")

	select {
	case <-fired:
		t.Error("respawn scheduled for a non-lethal hit")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSpawnBoundsRandom(t *testing.T) {
	b := SpawnBounds{MinX: -20, MaxX: 20, MinZ: -20, MaxZ: 20, Y: 1.6}
	for i := 0; i < 100; i++ {
		pos := b.Random()
		if !b.Contains(pos) {
			t.Fatalf("spawn outside bounds: %+v", pos)
		}
	}
}

func TestSpawnBoundsContains(t *testing.T) {
	b := SpawnBounds{MinX: 0, MaxX: 10, MinZ: 0, MaxZ: 10, Y: 1.6}
	if !b.Contains(protocol.Position{X: 5, Y: 1.6, Z: 5}) {
		t.Error("interior point rejected")
	}
	if b.Contains(protocol.Position{X: 15, Y: 1.6, Z: 5}) {
		t.Error("exterior point accepted")
	}
	if b.Contains(protocol.Position{X: 5, Y: 0, Z: 5}) {
		t.Error("wrong height accepted")
	}
}
