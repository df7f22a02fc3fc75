package client

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"arena-game/protocol"
)

// Conn is a live websocket connection implementing Sender. It exists so
// a Go client binary or headless bot can drive a World against a real
// server; tests use an in-memory Sender instead.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// Dial connects to a server's /ws endpoint
func Dial(wsURL string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{ws: ws}, nil
}

// Send writes a typed JSON message
func (c *Conn) Send(name string, payload interface{}) error {
	data, err := json.Marshal(protocol.Envelope{T: name, Data: payload})
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// SendBinary writes a binary movement frame
func (c *Conn) SendBinary(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.BinaryMessage, frame)
}

// Close closes the connection
func (c *Conn) Close() error {
	return c.ws.Close()
}

// ReadLoop feeds inbound messages into w until the connection drops.
// Events are only queued here; they take effect on w's next Step, which
// runs on the caller's render loop.
func (c *Conn) ReadLoop(w *World) error {
	for {
		msgType, raw, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}
		if msgType == websocket.BinaryMessage {
			w.HandleBinary(raw)
			continue
		}
		var env protocol.InEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		w.HandleEvent(env.T, env.D)
	}
}
