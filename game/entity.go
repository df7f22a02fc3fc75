package game

import "arena-game/protocol"

// MaxHealth is the health ceiling; health is always clamped to [0, MaxHealth].
const MaxHealth = 100

// PlayerEntity is one player's replicated state
type PlayerEntity struct {
	ID       string
	Username string
	Position protocol.Position
	Rotation float64
	Health   int
}

// Alive reports whether the entity can still take damage
func (e *PlayerEntity) Alive() bool {
	return e.Health > 0
}

// ToState converts to the wire form
func (e *PlayerEntity) ToState() protocol.PlayerState {
	return protocol.PlayerState{
		ID:       e.ID,
		Username: e.Username,
		Position: e.Position,
		Rotation: e.Rotation,
		Health:   e.Health,
	}
}

// clampHealth restricts h to [0, MaxHealth]
func clampHealth(h int) int {
	if h < 0 {
		return 0
	}
	if h > MaxHealth {
		return MaxHealth
	}
	return h
}
