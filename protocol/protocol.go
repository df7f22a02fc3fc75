package protocol

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin         = "join"
	MsgUpdate       = "updatePlayer"
	MsgCreateBullet = "createBullet"
	MsgRemoveBullet = "removeBullet"
	MsgHit          = "hitPlayer"
	MsgRespawn      = "respawnRequest"
	MsgRegister     = "register"
	MsgLogin        = "login"
	MsgAuth         = "auth"
)

// Server -> Client message types
const (
	MsgWelcome       = "welcome"
	MsgExisting      = "existingPlayers"
	MsgJoined        = "playerJoined"
	MsgUpdated       = "playerUpdated"
	MsgBulletCreated = "bulletCreated"
	MsgBulletRemoved = "bulletRemoved"
	MsgPlayerHit     = "playerHit"
	MsgKilled        = "playerKilled"
	MsgLeft          = "playerLeft"
	MsgAuthOK        = "authOk"
	MsgError         = "error"
)

// MaxNameLen is the longest display name accepted at join.
const MaxNameLen = 15

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// Position is a point in world space
type Position struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// PlayerState is the full replicated form of one player
type PlayerState struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Position Position `json:"position"`
	Rotation float64  `json:"rotation"`
	Health   int      `json:"health"`
}

// BulletState is the wire form of a projectile at spawn time.
// Position is the spawn point; Velocity is direction scaled by speed.
// Bullets are relayed, never stored — each observer integrates position
// on its own clock after this message.
type BulletState struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
	Velocity Position `json:"velocity"`
	Owner    string   `json:"owner"`
}

// JoinMsg is sent once per connection to enter the session
type JoinMsg struct {
	Username string   `json:"username"`
	Position Position `json:"position"`
	Rotation float64  `json:"rotation"`
}

// UpdateMsg carries a partial entity mutation. Position and Rotation
// travel together; Health and Username are each independently optional.
// ID is filled by the server on the outbound relay and ignored inbound.
type UpdateMsg struct {
	ID       string    `json:"id,omitempty" msgpack:"id,omitempty"`
	Position *Position `json:"position,omitempty" msgpack:"position,omitempty"`
	Rotation *float64  `json:"rotation,omitempty" msgpack:"rotation,omitempty"`
	Health   *int      `json:"health,omitempty" msgpack:"health,omitempty"`
	Username *string   `json:"username,omitempty" msgpack:"username,omitempty"`
}

// HitMsg is a client-reported hit claim. The server applies it without
// verification (trusted-client model).
type HitMsg struct {
	VictimID   string `json:"victimId"`
	Damage     int    `json:"damage"`
	AttackerID string `json:"attackerId"`
}

// HitNotice is sent to the victim of a hit. Health is the post-damage
// server value so the victim can reconcile instead of re-subtracting.
type HitNotice struct {
	AttackerID string `json:"attackerId"`
	Damage     int    `json:"damage"`
	Health     int    `json:"health"`
}

// RespawnMsg asks the server to reset the sender at the given position
type RespawnMsg struct {
	Position Position `json:"position"`
}

// RemoveBulletMsg announces a locally destroyed projectile
type RemoveBulletMsg struct {
	ID string `json:"id"`
}

// KillMsg is broadcast once per death threshold-crossing
type KillMsg struct {
	KillerID   string `json:"killerId"`
	KillerName string `json:"killerName"`
	VictimID   string `json:"victimId"`
	VictimName string `json:"victimName"`
}

// LeftMsg is broadcast when a player disconnects
type LeftMsg struct {
	ID string `json:"id"`
}

// WelcomeMsg tells a joining client its connection-derived id
type WelcomeMsg struct {
	ID string `json:"id"`
}

// RegisterMsg creates an account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg authenticates an existing account
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg resumes a session from a stored token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms register/login/auth
type AuthOKMsg struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	AccountID int64  `json:"accountId"`
}

// ErrorMsg sends an error to the client
type ErrorMsg struct {
	Msg string `json:"msg"`
}
