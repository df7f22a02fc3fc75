package game

import (
	"math/rand/v2"

	"arena-game/protocol"
)

// SpawnBounds is the square region players respawn inside. Y is the
// fixed eye height of a spawned player.
type SpawnBounds struct {
	MinX, MaxX float64
	MinZ, MaxZ float64
	Y          float64
}

// Random returns a uniformly random spawn position inside the bounds
func (b SpawnBounds) Random() protocol.Position {
	return protocol.Position{
		X: b.MinX + rand.Float64()*(b.MaxX-b.MinX),
		Y: b.Y,
		Z: b.MinZ + rand.Float64()*(b.MaxZ-b.MinZ),
	}
}

// Contains reports whether pos lies inside the bounds
func (b SpawnBounds) Contains(pos protocol.Position) bool {
	return pos.X >= b.MinX && pos.X <= b.MaxX &&
		pos.Z >= b.MinZ && pos.Z <= b.MaxZ &&
		pos.Y == b.Y
}
