package server

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"arena-game/protocol"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 60
)

// Client represents one WebSocket connection. Auth messages are handled
// here on the read goroutine (bcrypt must not stall the coordinator);
// everything that mutates game state is handed to the coordinator loop.
type Client struct {
	hub        *Hub
	coord      *Coordinator
	conn       *websocket.Conn
	send       chan []byte
	connID     string
	remoteAddr string
	log        zerolog.Logger

	msgCount   int
	msgResetAt time.Time

	accountID   int64  // 0 = guest
	accountName string // "" = guest
}

// NewClient creates a Client for an upgraded connection
func NewClient(hub *Hub, coord *Coordinator, conn *websocket.Conn, connID, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		coord:      coord,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		connID:     connID,
		remoteAddr: remoteAddr,
		log:        hub.log.With().Str("conn", connID).Logger(),
	}
}

// ReadPump reads messages from the WebSocket connection until it closes.
// Its deferred cleanup is the single source of the disconnect event, so
// the coordinator sees exactly one leave per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.removeClient(c)
		c.coord.Disconnect(c.connID)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("ws read")
			}
			break
		}

		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			c.log.Warn().Str("addr", c.remoteAddr).Msg("rate limit exceeded, disconnecting")
			break
		}

		if msgType == websocket.BinaryMessage {
			c.coord.BinaryFrame(c.connID, message)
			continue
		}
		c.handleMessage(message)
	}
}

// WritePump writes queued messages and pings to the connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF marker from SendBinary selects the binary opcode
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON queues a JSON message for the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error().Err(err).Msg("marshal")
		return
	}
	c.sendRaw(data)
}

// SendBinary queues bytes as a binary WebSocket message
func (c *Client) SendBinary(data []byte) {
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	c.sendRaw(msg)
}

// sendRaw enqueues without blocking; a slow client drops messages. The
// recover guards the race with removeClient closing the channel.
func (c *Client) sendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) handleMessage(raw []byte) {
	var env protocol.InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Debug().Err(err).Msg("unmarshal")
		return
	}

	switch env.T {
	case protocol.MsgRegister:
		c.handleRegister(env.D)
	case protocol.MsgLogin:
		c.handleLogin(env.D)
	case protocol.MsgAuth:
		c.handleAuth(env.D)
	default:
		c.coord.Message(c.connID, env.T, env.D)
	}
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg protocol.RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.SendJSON(protocol.Envelope{T: protocol.MsgError, Data: protocol.ErrorMsg{Msg: err.Error()}})
		return
	}
	c.setAccount(id, msg.Username, token)
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg protocol.LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.SendJSON(protocol.Envelope{T: protocol.MsgError, Data: protocol.ErrorMsg{Msg: err.Error()}})
		return
	}
	c.setAccount(id, msg.Username, token)
}

func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg protocol.AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, username, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.SendJSON(protocol.Envelope{T: protocol.MsgError, Data: protocol.ErrorMsg{Msg: "invalid token"}})
		return
	}
	c.setAccount(id, username, msg.Token)
}

func (c *Client) setAccount(id int64, username, token string) {
	c.accountID = id
	c.accountName = username
	c.coord.SetAccount(c.connID, id)
	c.SendJSON(protocol.Envelope{T: protocol.MsgAuthOK, Data: protocol.AuthOKMsg{
		Token:     token,
		Username:  username,
		AccountID: id,
	}})
}
