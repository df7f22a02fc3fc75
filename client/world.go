package client

import (
	"encoding/json"
	"fmt"
	"sync"

	"arena-game/game"
	"arena-game/protocol"
)

// Sender is the outbound half of the connection. Sends are
// fire-and-forget; no acknowledgment is awaited.
type Sender interface {
	Send(name string, payload interface{}) error
	SendBinary(frame []byte) error
}

// Entity is the client-side view of one player
type Entity struct {
	ID       string
	Username string
	Position protocol.Position
	Rotation float64
	Health   int
}

// Alive reports whether the entity can still take damage
func (e *Entity) Alive() bool {
	return e.Health > 0
}

// Config tunes the reconciliation layer
type Config struct {
	UpdateHz       float64 // outbound updatePlayer rate
	BulletSpeed    float64
	BulletDamage   int
	BulletLifetime float64 // seconds
	BulletMaxRange float64
	PlayerRadius   float64
	BulletRadius   float64
	RespawnDelay   float64 // seconds
	FeedSize       int
	Bounds         game.SpawnBounds
}

// DefaultConfig returns the standard tuning
func DefaultConfig() Config {
	return Config{
		UpdateHz:       10,
		BulletSpeed:    90,
		BulletDamage:   25,
		BulletLifetime: 1.5,
		BulletMaxRange: 120,
		PlayerRadius:   0.5,
		BulletRadius:   0.1,
		RespawnDelay:   3.0,
		FeedSize:       5,
		Bounds:         game.SpawnBounds{MinX: -50, MaxX: 50, MinZ: -50, MaxZ: 50, Y: 1.6},
	}
}

// Snapshot is what the rendering collaborator consumes each frame
type Snapshot struct {
	Self        Entity
	Remotes     []Entity
	Projectiles []Projectile
}

type pending struct {
	name   string
	data   json.RawMessage
	update *protocol.UpdateMsg // decoded binary movement frame
}

// World is the per-client reconciliation layer. `self` is authoritative
// locally: network messages are a sink for its movement, never a source
// (combat results are the one exception — hits land as server-reported
// absolute health). `remotes` is authoritative only from the network and
// never contains the local id. Network callbacks queue their effects;
// everything is applied at the top of the next Step so a render never
// observes a half-updated entity.
type World struct {
	mu  sync.Mutex
	cfg Config

	sender Sender

	self    Entity
	joined  bool
	remotes map[string]*Entity

	localProjectiles  map[string]*Projectile
	remoteProjectiles map[string]*Projectile
	bulletSeq         uint64

	inbound []pending

	sinceUpdate  float64
	dead         bool
	respawnTimer float64

	score int
	feed  *KillFeed

	// UI collaborator callbacks, invoked during Step
	OnDamage   func(amount int)
	OnKillFeed func(entry KillFeedEntry)
}

// NewWorld creates a reconciliation layer sending through sender
func NewWorld(sender Sender, cfg Config) *World {
	return &World{
		cfg:               cfg,
		sender:            sender,
		remotes:           make(map[string]*Entity),
		localProjectiles:  make(map[string]*Projectile),
		remoteProjectiles: make(map[string]*Projectile),
		feed:              NewKillFeed(cfg.FeedSize),
	}
}

// Join announces the local player. The display name is clamped here and
// fixed afterwards; the server assigns the id via the welcome message.
func (w *World) Join(username string, pos protocol.Position, rotation float64) error {
	if len(username) > protocol.MaxNameLen {
		username = username[:protocol.MaxNameLen]
	}
	w.mu.Lock()
	w.self = Entity{Username: username, Position: pos, Rotation: rotation, Health: game.MaxHealth}
	w.joined = true
	w.mu.Unlock()
	return w.sender.Send(protocol.MsgJoin, protocol.JoinMsg{
		Username: username,
		Position: pos,
		Rotation: rotation,
	})
}

// SetTransform applies local movement input immediately and
// optimistically; the network is told later, at the throttled rate.
func (w *World) SetTransform(pos protocol.Position, rotation float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dead {
		return
	}
	w.self.Position = pos
	w.self.Rotation = rotation
}

// Fire spawns a local projectile and announces it. Bullet ids are
// (owner, sequence) composites, unique by construction.
func (w *World) Fire(direction protocol.Position) error {
	w.mu.Lock()
	if w.dead || !w.joined {
		w.mu.Unlock()
		return nil
	}
	w.bulletSeq++
	p := &Projectile{
		ID:        fmt.Sprintf("%s:%d", w.self.ID, w.bulletSeq),
		Owner:     w.self.ID,
		Position:  w.self.Position,
		Origin:    w.self.Position,
		Direction: normalize(direction),
		Speed:     w.cfg.BulletSpeed,
	}
	w.localProjectiles[p.ID] = p
	state := p.ToState()
	w.mu.Unlock()
	return w.sender.Send(protocol.MsgCreateBullet, state)
}

// HandleEvent queues an inbound JSON event for the next Step
func (w *World) HandleEvent(name string, data json.RawMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inbound = append(w.inbound, pending{name: name, data: data})
}

// HandleBinary queues an inbound binary movement frame
func (w *World) HandleBinary(frame []byte) {
	update, err := protocol.DecodeUpdateFrame(frame)
	if err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.inbound = append(w.inbound, pending{name: protocol.MsgUpdated, update: update})
}

// Step advances the world by dt seconds: applies queued network events,
// advances and prunes projectiles, runs hit detection, drives the local
// death/respawn cycle, and emits the throttled movement update.
func (w *World) Step(dt float64) {
	w.mu.Lock()

	queue := w.inbound
	w.inbound = nil
	for _, ev := range queue {
		w.apply(ev)
	}

	w.advanceProjectiles(dt)
	hits := w.detectHits()
	respawn := w.stepRespawn(dt)
	outFrame := w.buildUpdateFrame(dt)

	w.mu.Unlock()

	// Network sends happen outside the lock; all fire-and-forget
	for _, h := range hits {
		w.sender.Send(protocol.MsgHit, h.claim)
		w.sender.Send(protocol.MsgRemoveBullet, protocol.RemoveBulletMsg{ID: h.bulletID})
	}
	if respawn != nil {
		w.sender.Send(protocol.MsgRespawn, *respawn)
	}
	if outFrame != nil {
		w.sender.SendBinary(outFrame)
	}
}

func (w *World) apply(ev pending) {
	switch ev.name {
	case protocol.MsgWelcome:
		var msg protocol.WelcomeMsg
		if ev.data == nil || json.Unmarshal(ev.data, &msg) != nil {
			return
		}
		w.self.ID = msg.ID

	case protocol.MsgExisting:
		var players map[string]protocol.PlayerState
		if ev.data == nil || json.Unmarshal(ev.data, &players) != nil {
			return
		}
		for id, s := range players {
			if id == w.self.ID {
				continue
			}
			w.remotes[id] = &Entity{ID: s.ID, Username: s.Username, Position: s.Position, Rotation: s.Rotation, Health: s.Health}
		}

	case protocol.MsgJoined:
		var s protocol.PlayerState
		if ev.data == nil || json.Unmarshal(ev.data, &s) != nil {
			return
		}
		if s.ID == w.self.ID {
			return
		}
		w.remotes[s.ID] = &Entity{ID: s.ID, Username: s.Username, Position: s.Position, Rotation: s.Rotation, Health: s.Health}

	case protocol.MsgUpdated:
		update := ev.update
		if update == nil {
			var u protocol.UpdateMsg
			if ev.data == nil || json.Unmarshal(ev.data, &u) != nil {
				return
			}
			update = &u
		}
		w.applyRemoteUpdate(update)

	case protocol.MsgLeft:
		var msg protocol.LeftMsg
		if ev.data == nil || json.Unmarshal(ev.data, &msg) != nil {
			return
		}
		delete(w.remotes, msg.ID)

	case protocol.MsgBulletCreated:
		var s protocol.BulletState
		if ev.data == nil || json.Unmarshal(ev.data, &s) != nil {
			return
		}
		// Our own announcement echoed back; we already simulate it
		if s.Owner == w.self.ID {
			return
		}
		w.remoteProjectiles[s.ID] = projectileFromState(s)

	case protocol.MsgBulletRemoved:
		var msg protocol.RemoveBulletMsg
		if ev.data == nil || json.Unmarshal(ev.data, &msg) != nil {
			return
		}
		delete(w.remoteProjectiles, msg.ID)

	case protocol.MsgPlayerHit:
		var msg protocol.HitNotice
		if ev.data == nil || json.Unmarshal(ev.data, &msg) != nil {
			return
		}
		// Reconcile to the server's absolute health rather than
		// subtracting again: local feedback may already have applied it
		w.self.Health = msg.Health
		if w.OnDamage != nil {
			w.OnDamage(msg.Damage)
		}
		w.checkSelfDeath()

	case protocol.MsgKilled:
		var msg protocol.KillMsg
		if ev.data == nil || json.Unmarshal(ev.data, &msg) != nil {
			return
		}
		entry := KillFeedEntry{Killer: msg.KillerName, Victim: msg.VictimName}
		w.feed.Push(entry)
		if msg.KillerID == w.self.ID {
			w.score++
		}
		if w.OnKillFeed != nil {
			w.OnKillFeed(entry)
		}
	}
}

// applyRemoteUpdate merges an update into the remote set. The local id
// is never touched: self is not reconciled from the network.
func (w *World) applyRemoteUpdate(u *protocol.UpdateMsg) {
	if u.ID == "" || u.ID == w.self.ID {
		return
	}
	r, ok := w.remotes[u.ID]
	if !ok {
		return
	}
	if u.Position != nil && u.Rotation != nil {
		r.Position = *u.Position
		r.Rotation = *u.Rotation
	}
	if u.Health != nil {
		r.Health = *u.Health
	}
	if u.Username != nil {
		r.Username = *u.Username
	}
}

func (w *World) advanceProjectiles(dt float64) {
	for id, p := range w.localProjectiles {
		p.Advance(dt)
		if p.Expired(w.cfg.BulletLifetime, w.cfg.BulletMaxRange) {
			delete(w.localProjectiles, id)
		}
	}
	for id, p := range w.remoteProjectiles {
		p.Advance(dt)
		if p.Expired(w.cfg.BulletLifetime, w.cfg.BulletMaxRange) {
			delete(w.remoteProjectiles, id)
		}
	}
}

type hitReport struct {
	bulletID string
	claim    protocol.HitMsg
}

// detectHits runs sphere-sphere tests: our bullets against every remote,
// other players' bullets against self. Only our own bullets produce a
// hitPlayer claim — a hit by a remote bullet is applied locally for
// immediate feedback and reconciled when the shooter's claim comes back
// through the server.
func (w *World) detectHits() []hitReport {
	var reports []hitReport

	for id, p := range w.localProjectiles {
		for rid, r := range w.remotes {
			if !r.Alive() {
				continue
			}
			if spheresHit(p.Position, r.Position, w.cfg.BulletRadius, w.cfg.PlayerRadius) {
				r.Health -= w.cfg.BulletDamage
				if r.Health < 0 {
					r.Health = 0
				}
				delete(w.localProjectiles, id)
				reports = append(reports, hitReport{
					bulletID: id,
					claim: protocol.HitMsg{
						VictimID:   rid,
						Damage:     w.cfg.BulletDamage,
						AttackerID: w.self.ID,
					},
				})
				break
			}
		}
	}

	if !w.dead {
		for id, p := range w.remoteProjectiles {
			if p.Owner == w.self.ID {
				continue
			}
			if spheresHit(p.Position, w.self.Position, w.cfg.BulletRadius, w.cfg.PlayerRadius) {
				w.self.Health -= w.cfg.BulletDamage
				if w.self.Health < 0 {
					w.self.Health = 0
				}
				delete(w.remoteProjectiles, id)
				if w.OnDamage != nil {
					w.OnDamage(w.cfg.BulletDamage)
				}
				w.checkSelfDeath()
			}
		}
	}
	return reports
}

// checkSelfDeath starts the local respawn timer on the transition to 0
// health. Death is detected purely from the local health value; there is
// no "you died" message.
func (w *World) checkSelfDeath() {
	if w.self.Health <= 0 && !w.dead {
		w.dead = true
		w.respawnTimer = w.cfg.RespawnDelay
	}
}

func (w *World) stepRespawn(dt float64) *protocol.RespawnMsg {
	if !w.dead {
		return nil
	}
	w.respawnTimer -= dt
	if w.respawnTimer > 0 {
		return nil
	}
	pos := w.cfg.Bounds.Random()
	w.self.Position = pos
	w.self.Health = game.MaxHealth
	w.dead = false
	return &protocol.RespawnMsg{Position: pos}
}

// buildUpdateFrame returns the outbound movement frame when the 10 Hz
// window has elapsed, nil otherwise.
func (w *World) buildUpdateFrame(dt float64) []byte {
	w.sinceUpdate += dt
	if !w.joined || w.dead || w.sinceUpdate < 1.0/w.cfg.UpdateHz {
		return nil
	}
	w.sinceUpdate = 0
	pos := w.self.Position
	rot := w.self.Rotation
	frame, err := protocol.EncodeUpdateFrame(&protocol.UpdateMsg{Position: &pos, Rotation: &rot})
	if err != nil {
		return nil
	}
	return frame
}

// Renderable returns a copy of everything the presentation layer draws
func (w *World) Renderable() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := Snapshot{
		Self:        w.self,
		Remotes:     make([]Entity, 0, len(w.remotes)),
		Projectiles: make([]Projectile, 0, len(w.localProjectiles)+len(w.remoteProjectiles)),
	}
	for _, r := range w.remotes {
		snap.Remotes = append(snap.Remotes, *r)
	}
	for _, p := range w.localProjectiles {
		snap.Projectiles = append(snap.Projectiles, *p)
	}
	for _, p := range w.remoteProjectiles {
		snap.Projectiles = append(snap.Projectiles, *p)
	}
	return snap
}

// Score returns kills recognized as our own
func (w *World) Score() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.score
}

// Feed returns the current kill feed entries
func (w *World) Feed() []KillFeedEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.feed.Entries()
}

// SelfID returns the server-assigned local id ("" before welcome)
func (w *World) SelfID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.self.ID
}
