package client

import (
	"math"

	"arena-game/protocol"
)

// Projectile is a locally-simulated bullet. After spawn only Position
// and Age change; every observer integrates on its own clock, so the
// same bullet can drift apart between machines. That drift is accepted —
// there is no resync.
type Projectile struct {
	ID        string
	Owner     string
	Position  protocol.Position
	Origin    protocol.Position
	Direction protocol.Position // normalized
	Speed     float64
	Age       float64
}

// projectileFromState rebuilds a Projectile from its wire announcement
func projectileFromState(s protocol.BulletState) *Projectile {
	speed := vecLen(s.Velocity)
	dir := s.Velocity
	if speed > 0 {
		dir = protocol.Position{X: s.Velocity.X / speed, Y: s.Velocity.Y / speed, Z: s.Velocity.Z / speed}
	}
	return &Projectile{
		ID:        s.ID,
		Owner:     s.Owner,
		Position:  s.Position,
		Origin:    s.Position,
		Direction: dir,
		Speed:     speed,
	}
}

// ToState converts to the wire form
func (p *Projectile) ToState() protocol.BulletState {
	return protocol.BulletState{
		ID:       p.ID,
		Position: p.Origin,
		Velocity: protocol.Position{
			X: p.Direction.X * p.Speed,
			Y: p.Direction.Y * p.Speed,
			Z: p.Direction.Z * p.Speed,
		},
		Owner: p.Owner,
	}
}

// Advance integrates position += direction * speed * dt
func (p *Projectile) Advance(dt float64) {
	p.Position.X += p.Direction.X * p.Speed * dt
	p.Position.Y += p.Direction.Y * p.Speed * dt
	p.Position.Z += p.Direction.Z * p.Speed * dt
	p.Age += dt
}

// Expired reports whether the projectile outlived its lifetime or range
func (p *Projectile) Expired(lifetime, maxRange float64) bool {
	if p.Age >= lifetime {
		return true
	}
	return dist(p.Position, p.Origin) >= maxRange
}

func vecLen(v protocol.Position) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func dist(a, b protocol.Position) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	dz := b.Z - a.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// spheresHit checks sphere-sphere overlap
func spheresHit(a, b protocol.Position, ra, rb float64) bool {
	dx := b.X - a.X
	dy := b.Y - a.Y
	dz := b.Z - a.Z
	sum := ra + rb
	return dx*dx+dy*dy+dz*dz <= sum*sum
}

func normalize(v protocol.Position) protocol.Position {
	l := vecLen(v)
	if l == 0 {
		return protocol.Position{X: 0, Y: 0, Z: 1}
	}
	return protocol.Position{X: v.X / l, Y: v.Y / l, Z: v.Z / l}
}
