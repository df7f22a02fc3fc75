package server

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"arena-game/game"
	"arena-game/protocol"
)

// transport is the outbound half of one connection. *Client implements
// it; tests substitute a recorder.
type transport interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// connState is the per-connection lifecycle
type connState int

const (
	stateConnected connState = iota // socket open, no entity yet
	stateJoined                     // entity exists in the store
	stateClosed                     // terminal; entity removed
)

type eventKind int

const (
	evConnect eventKind = iota
	evMessage
	evBinary
	evDisconnect
	evRespawnDue
	evSetAccount
)

// event is one unit of work for the coordinator loop. Every
// state-mutating input — socket messages, disconnects, expired respawn
// timers — arrives through this type so handling is fully serialized.
type event struct {
	kind   eventKind
	connID string
	client transport
	name      string
	data      json.RawMessage
	frame     []byte
	accountID int64
}

type conn struct {
	client transport
	state  connState
	// accountID links kills/deaths to persistent stats; 0 for guests
	accountID int64
}

// Coordinator owns the entity store and the broadcast policy. A single
// goroutine drains the event channel, so store mutations never
// interleave; events from one connection keep their arrival order.
type Coordinator struct {
	store     *game.Store
	resolver  *game.Resolver
	bounds    game.SpawnBounds
	analytics *Analytics
	db        *DB
	log       zerolog.Logger

	events chan event
	stop   chan struct{}
	conns  map[string]*conn
}

// NewCoordinator wires the coordinator to its store and resolver. The
// resolver callbacks re-enter the event loop: kills broadcast
// synchronously (the resolver runs inside the loop), respawn timers post
// a fresh event so the delayed mutation is serialized too.
func NewCoordinator(store *game.Store, resolver *game.Resolver, bounds game.SpawnBounds, db *DB, analytics *Analytics, log zerolog.Logger) *Coordinator {
	c := &Coordinator{
		store:     store,
		resolver:  resolver,
		bounds:    bounds,
		analytics: analytics,
		db:        db,
		log:       log,
		events:    make(chan event, 512),
		stop:      make(chan struct{}),
		conns:     make(map[string]*conn),
	}
	resolver.OnKill(c.handleKill)
	resolver.OnRespawnDue(func(victimID string) {
		c.post(event{kind: evRespawnDue, connID: victimID})
	})
	return c
}

// Run drains the event channel until Stop
func (c *Coordinator) Run() {
	for {
		select {
		case ev := <-c.events:
			c.dispatch(ev)
		case <-c.stop:
			return
		}
	}
}

// Stop terminates the event loop
func (c *Coordinator) Stop() {
	close(c.stop)
}

func (c *Coordinator) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.stop:
	}
}

// Connect registers a new connection in the Connected state
func (c *Coordinator) Connect(connID string, t transport) {
	c.post(event{kind: evConnect, connID: connID, client: t})
}

// Message hands an inbound JSON message to the event loop
func (c *Coordinator) Message(connID, name string, data json.RawMessage) {
	c.post(event{kind: evMessage, connID: connID, name: name, data: data})
}

// BinaryFrame hands an inbound binary movement frame to the event loop
func (c *Coordinator) BinaryFrame(connID string, frame []byte) {
	c.post(event{kind: evBinary, connID: connID, frame: frame})
}

// Disconnect removes a connection; called exactly once per socket close
func (c *Coordinator) Disconnect(connID string) {
	c.post(event{kind: evDisconnect, connID: connID})
}

// PlayerCount returns the number of joined players
func (c *Coordinator) PlayerCount() int {
	return c.store.Count()
}

func (c *Coordinator) dispatch(ev event) {
	switch ev.kind {
	case evConnect:
		c.conns[ev.connID] = &conn{client: ev.client, state: stateConnected}

	case evMessage:
		c.handleMessage(ev)

	case evBinary:
		c.handleBinaryUpdate(ev.connID, ev.frame)

	case evDisconnect:
		c.handleDisconnect(ev.connID)

	case evRespawnDue:
		c.handleRespawnDue(ev.connID)

	case evSetAccount:
		if cn, ok := c.conns[ev.connID]; ok {
			cn.accountID = ev.accountID
		}
	}
}

func (c *Coordinator) handleMessage(ev event) {
	cn, ok := c.conns[ev.connID]
	if !ok {
		return
	}
	switch ev.name {
	case protocol.MsgJoin:
		c.handleJoin(ev.connID, cn, ev.data)
	case protocol.MsgUpdate:
		var msg protocol.UpdateMsg
		if err := json.Unmarshal(ev.data, &msg); err != nil {
			return
		}
		c.applyUpdate(ev.connID, cn, &msg)
	case protocol.MsgCreateBullet:
		c.handleCreateBullet(ev.connID, cn, ev.data)
	case protocol.MsgRemoveBullet:
		c.handleRemoveBullet(ev.data)
	case protocol.MsgHit:
		c.handleHit(ev.data)
	case protocol.MsgRespawn:
		c.handleRespawnRequest(ev.connID, cn, ev.data)
	default:
		c.log.Debug().Str("event", ev.name).Str("conn", ev.connID).Msg("unknown message type")
	}
}

// SetAccount links a connection to an authenticated account. Posted from
// the client's read goroutine after auth succeeds.
func (c *Coordinator) SetAccount(connID string, accountID int64) {
	c.post(event{kind: evSetAccount, connID: connID, accountID: accountID})
}

func (c *Coordinator) handleJoin(connID string, cn *conn, data json.RawMessage) {
	if cn.state != stateConnected {
		return
	}
	var msg protocol.JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	name := msg.Username
	if name == "" {
		name = "Player"
	}
	if len(name) > protocol.MaxNameLen {
		name = name[:protocol.MaxNameLen]
	}

	entity := game.PlayerEntity{
		ID:       connID,
		Username: name,
		Position: msg.Position,
		Rotation: msg.Rotation,
		Health:   game.MaxHealth,
	}
	c.store.Add(entity)
	cn.state = stateJoined

	// The joiner learns its own id, then the current world; everyone
	// else learns about the joiner.
	cn.client.SendJSON(protocol.Envelope{T: protocol.MsgWelcome, Data: protocol.WelcomeMsg{ID: connID}})
	cn.client.SendJSON(protocol.Envelope{T: protocol.MsgExisting, Data: c.snapshotExcluding(connID)})
	c.broadcastJSON(protocol.Envelope{T: protocol.MsgJoined, Data: entity.ToState()}, connID)

	c.log.Info().Str("player", connID).Str("username", name).Msg("player joined")
	if c.analytics != nil {
		c.analytics.Track(EvtJoin, cn.accountID, connID, "")
	}
}

func (c *Coordinator) snapshotExcluding(excludeID string) map[string]protocol.PlayerState {
	out := make(map[string]protocol.PlayerState)
	for id, e := range c.store.All() {
		if id == excludeID {
			continue
		}
		out[id] = e.ToState()
	}
	return out
}

func (c *Coordinator) handleBinaryUpdate(connID string, frame []byte) {
	cn, ok := c.conns[connID]
	if !ok {
		return
	}
	msg, err := protocol.DecodeUpdateFrame(frame)
	if err != nil {
		c.log.Debug().Err(err).Str("conn", connID).Msg("bad binary frame")
		return
	}
	c.applyUpdate(connID, cn, msg)
}

// applyUpdate merges a client-reported update into the sender's entity
// and relays it to everyone else. Client-reported health is clamped but
// otherwise trusted, like the rest of the update.
func (c *Coordinator) applyUpdate(connID string, cn *conn, msg *protocol.UpdateMsg) {
	if cn.state != stateJoined {
		return
	}
	partial := game.Partial{
		Health:   msg.Health,
		Username: msg.Username,
	}
	// Position and rotation only land together
	if msg.Position != nil && msg.Rotation != nil {
		partial.Position = msg.Position
		partial.Rotation = msg.Rotation
	}
	if msg.Username != nil && len(*msg.Username) > protocol.MaxNameLen {
		trimmed := (*msg.Username)[:protocol.MaxNameLen]
		partial.Username = &trimmed
	}
	if !c.store.Update(connID, partial) {
		return
	}

	relay := *msg
	relay.ID = connID
	if relay.Position != nil {
		// Movement relay rides the compact binary path
		frame, err := protocol.EncodeUpdateFrame(&relay)
		if err != nil {
			return
		}
		c.broadcastBinary(frame, connID)
		return
	}
	c.broadcastJSON(protocol.Envelope{T: protocol.MsgUpdated, Data: relay}, connID)
}

func (c *Coordinator) handleCreateBullet(connID string, cn *conn, data json.RawMessage) {
	if cn.state != stateJoined {
		return
	}
	var bullet protocol.BulletState
	if err := json.Unmarshal(data, &bullet); err != nil {
		return
	}
	bullet.Owner = connID
	// Bullets are never stored server-side; every client, including the
	// shooter, simulates from this one announcement.
	c.broadcastJSON(protocol.Envelope{T: protocol.MsgBulletCreated, Data: bullet}, "")
}

func (c *Coordinator) handleRemoveBullet(data json.RawMessage) {
	var msg protocol.RemoveBulletMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.broadcastJSON(protocol.Envelope{T: protocol.MsgBulletRemoved, Data: msg}, "")
}

func (c *Coordinator) handleHit(data json.RawMessage) {
	var msg protocol.HitMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	victim, ok := c.store.Get(msg.VictimID)
	if !ok || !victim.Alive() {
		// Stale reference: victim disconnected or already dead
		return
	}

	newHealth, _ := c.resolver.ResolveHit(msg.VictimID, msg.Damage, msg.AttackerID)

	if vc, ok := c.conns[msg.VictimID]; ok {
		vc.client.SendJSON(protocol.Envelope{T: protocol.MsgPlayerHit, Data: protocol.HitNotice{
			AttackerID: msg.AttackerID,
			Damage:     msg.Damage,
			Health:     newHealth,
		}})
	}
	c.broadcastJSON(protocol.Envelope{T: protocol.MsgUpdated, Data: protocol.UpdateMsg{
		ID:     msg.VictimID,
		Health: &newHealth,
	}}, "")
}

// handleKill runs synchronously inside ResolveHit, which itself runs
// inside the event loop, so broadcasting here is safe.
func (c *Coordinator) handleKill(killerID, victimID string) {
	killer, _ := c.store.Get(killerID)
	victim, _ := c.store.Get(victimID)

	c.broadcastJSON(protocol.Envelope{T: protocol.MsgKilled, Data: protocol.KillMsg{
		KillerID:   killerID,
		KillerName: killer.Username,
		VictimID:   victimID,
		VictimName: victim.Username,
	}}, "")

	c.log.Info().Str("killer", killerID).Str("victim", victimID).Msg("kill")

	if c.db != nil {
		if kc, ok := c.conns[killerID]; ok && kc.accountID != 0 {
			if err := c.db.AddKill(kc.accountID); err != nil {
				c.log.Error().Err(err).Msg("record kill")
			}
		}
		if vc, ok := c.conns[victimID]; ok && vc.accountID != 0 {
			if err := c.db.AddDeath(vc.accountID); err != nil {
				c.log.Error().Err(err).Msg("record death")
			}
		}
	}
	if c.analytics != nil {
		c.analytics.Track(EvtKill, 0, killerID, victimID)
	}
}

func (c *Coordinator) handleRespawnDue(victimID string) {
	// The victim may have disconnected while the timer was pending
	if _, ok := c.store.Get(victimID); !ok {
		return
	}
	pos := c.bounds.Random()
	c.store.Revive(victimID, pos)
	c.broadcastRevive(victimID, pos)
	if c.analytics != nil {
		c.analytics.Track(EvtRespawn, 0, victimID, "")
	}
}

func (c *Coordinator) handleRespawnRequest(connID string, cn *conn, data json.RawMessage) {
	if cn.state != stateJoined {
		return
	}
	var msg protocol.RespawnMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if !c.store.Revive(connID, msg.Position) {
		return
	}
	c.broadcastRevive(connID, msg.Position)
}

func (c *Coordinator) broadcastRevive(id string, pos protocol.Position) {
	health := game.MaxHealth
	e, _ := c.store.Get(id)
	rotation := e.Rotation
	c.broadcastJSON(protocol.Envelope{T: protocol.MsgUpdated, Data: protocol.UpdateMsg{
		ID:       id,
		Position: &pos,
		Rotation: &rotation,
		Health:   &health,
	}}, "")
}

func (c *Coordinator) handleDisconnect(connID string) {
	cn, ok := c.conns[connID]
	if !ok {
		return
	}
	wasJoined := cn.state == stateJoined
	cn.state = stateClosed
	delete(c.conns, connID)

	if !wasJoined {
		// Dropped mid-handshake: no entity, nothing to announce
		return
	}
	c.store.Remove(connID)
	c.broadcastJSON(protocol.Envelope{T: protocol.MsgLeft, Data: protocol.LeftMsg{ID: connID}}, connID)
	c.log.Info().Str("player", connID).Msg("player left")
	if c.analytics != nil {
		c.analytics.Track(EvtLeave, cn.accountID, connID, "")
	}
}

// broadcastJSON sends to every connected client except excludeID
// ("" excludes nobody).
func (c *Coordinator) broadcastJSON(env protocol.Envelope, excludeID string) {
	for id, cn := range c.conns {
		if id == excludeID {
			continue
		}
		cn.client.SendJSON(env)
	}
}

func (c *Coordinator) broadcastBinary(frame []byte, excludeID string) {
	for id, cn := range c.conns {
		if id == excludeID {
			continue
		}
		cn.client.SendBinary(frame)
	}
}
