package game

import "time"

// Resolver applies combat rules over the Store. It owns no state beyond
// its injected dependencies; hit claims come from clients and are
// applied without verification (trusted-client model, documented).
type Resolver struct {
	store        *Store
	respawnDelay time.Duration

	// onKill fires exactly once per death threshold-crossing, inside the
	// caller's goroutine.
	onKill func(killerID, victimID string)
	// onRespawnDue fires after respawnDelay from a kill. The receiver
	// must re-check entity existence: the victim may have disconnected
	// while the timer was pending.
	onRespawnDue func(victimID string)
}

// NewResolver creates a Resolver bound to store
func NewResolver(store *Store, respawnDelay time.Duration) *Resolver {
	return &Resolver{store: store, respawnDelay: respawnDelay}
}

// OnKill sets the kill notification callback
func (r *Resolver) OnKill(fn func(killerID, victimID string)) {
	r.onKill = fn
}

// OnRespawnDue sets the deferred respawn callback
func (r *Resolver) OnRespawnDue(fn func(victimID string)) {
	r.onRespawnDue = fn
}

// ResolveHit applies damage to the victim and returns the new health and
// whether this hit killed. On a kill it emits the kill notification and
// schedules the respawn timer. A missing or already-dead victim is a
// no-op returning (0, false).
func (r *Resolver) ResolveHit(victimID string, amount int, attackerID string) (int, bool) {
	victim, ok := r.store.Get(victimID)
	if !ok || !victim.Alive() {
		return 0, false
	}

	killed := r.store.ApplyDamage(victimID, amount)
	victim, _ = r.store.Get(victimID)

	if killed {
		if r.onKill != nil {
			r.onKill(attackerID, victimID)
		}
		if r.onRespawnDue != nil {
			// Fire-and-forget: if the process dies mid-delay the respawn
			// is lost, acceptable for a single in-memory session.
			time.AfterFunc(r.respawnDelay, func() {
				r.onRespawnDue(victimID)
			})
		}
	}
	return victim.Health, killed
}
