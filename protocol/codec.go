package protocol

import (
	"errors"

	"github.com/vmihailenco/msgpack/v5"
)

// Movement updates are the hot path (10 Hz per client, relayed to every
// other client), so they ride compact msgpack frames instead of JSON.
// A frame is one type byte followed by the msgpack body.
const FrameUpdate byte = 0x01

var ErrBadFrame = errors.New("protocol: malformed binary frame")

// EncodeUpdateFrame packs an UpdateMsg into a binary movement frame.
func EncodeUpdateFrame(u *UpdateMsg) ([]byte, error) {
	body, err := msgpack.Marshal(u)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, len(body)+1)
	frame[0] = FrameUpdate
	copy(frame[1:], body)
	return frame, nil
}

// DecodeUpdateFrame unpacks a binary movement frame.
func DecodeUpdateFrame(frame []byte) (*UpdateMsg, error) {
	if len(frame) < 2 || frame[0] != FrameUpdate {
		return nil, ErrBadFrame
	}
	var u UpdateMsg
	if err := msgpack.Unmarshal(frame[1:], &u); err != nil {
		return nil, err
	}
	return &u, nil
}
