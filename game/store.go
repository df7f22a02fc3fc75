package game

import (
	"sync"

	"arena-game/protocol"
)

// Partial is a merge of selected entity fields. Position and Rotation
// travel together so a movement update can never tear; Health and
// Username are each independently optional so a movement update from one
// source does not clobber a health change from another.
type Partial struct {
	Position *protocol.Position
	Rotation *float64
	Health   *int
	Username *string
}

// Store is the in-memory table of connected players' replicated state.
// All methods are safe for concurrent use; mutation is additionally
// serialized by the coordinator's event loop. Operations on unknown ids
// are silent no-ops — a late message for a disconnected player must not
// crash anything.
type Store struct {
	mu       sync.RWMutex
	entities map[string]*PlayerEntity
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{entities: make(map[string]*PlayerEntity)}
}

// Add inserts an entity, replacing any previous entity with the same id
func (s *Store) Add(e PlayerEntity) {
	e.Health = clampHealth(e.Health)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[e.ID] = &e
}

// Remove deletes the entity for id if present
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities, id)
}

// Update merges the provided fields into the entity for id.
// Returns false if no such entity exists.
func (s *Store) Update(id string, p Partial) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	if !ok {
		return false
	}
	if p.Position != nil && p.Rotation != nil {
		e.Position = *p.Position
		e.Rotation = *p.Rotation
	}
	if p.Health != nil {
		e.Health = clampHealth(*p.Health)
	}
	if p.Username != nil {
		e.Username = *p.Username
	}
	return true
}

// Get returns a copy of the entity for id
func (s *Store) Get(id string) (PlayerEntity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	if !ok {
		return PlayerEntity{}, false
	}
	return *e, true
}

// All returns a copy of every entity keyed by id
func (s *Store) All() map[string]PlayerEntity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]PlayerEntity, len(s.entities))
	for id, e := range s.entities {
		out[id] = *e
	}
	return out
}

// Count returns the number of entities
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// ApplyDamage subtracts amount from the entity's health, clamping at 0.
// Returns true only when this call crossed from alive to dead, so a kill
// fires exactly once per death. Unknown ids and already-dead entities
// return false.
func (s *Store) ApplyDamage(id string, amount int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	if !ok || e.Health <= 0 {
		return false
	}
	if amount < 0 {
		amount = 0
	}
	e.Health -= amount
	if e.Health <= 0 {
		e.Health = 0
		return true
	}
	return false
}

// Revive resets the entity to full health at pos. Returns false if the
// entity no longer exists (player disconnected mid respawn delay).
func (s *Store) Revive(id string, pos protocol.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	if !ok {
		return false
	}
	e.Position = pos
	e.Health = MaxHealth
	return true
}
