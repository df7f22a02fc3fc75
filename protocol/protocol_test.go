package protocol

import (
	"encoding/json"
	"testing"
)

// Wire constants are a compatibility contract with deployed clients;
// renaming one is a breaking protocol change.
func TestMessageTypeValues(t *testing.T) {
	cases := map[string]string{
		MsgJoin:         "join",
		MsgUpdate:       "updatePlayer",
		MsgCreateBullet: "createBullet",
		MsgRemoveBullet: "removeBullet",
		MsgHit:          "hitPlayer",
		MsgRespawn:      "respawnRequest",
		MsgWelcome:      "welcome",
		MsgExisting:     "existingPlayers",
		MsgJoined:       "playerJoined",
		MsgUpdated:      "playerUpdated",
		MsgBulletCreated: "bulletCreated",
		MsgBulletRemoved: "bulletRemoved",
		MsgPlayerHit:    "playerHit",
		MsgKilled:       "playerKilled",
		MsgLeft:         "playerLeft",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("message constant %q != %q", got, want)
		}
	}
}

func TestPlayerStateWireShape(t *testing.T) {
	s := PlayerState{
		ID:       "p1",
		Username: "Ann",
		Position: Position{X: 0, Y: 1.6, Z: 10},
		Rotation: 1.25,
		Health:   80,
	}
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	json.Unmarshal(raw, &m)
	for _, key := range []string{"id", "username", "position", "rotation", "health"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing wire field %q", key)
		}
	}
	pos := m["position"].(map[string]interface{})
	if pos["y"] != 1.6 {
		t.Errorf("position.y = %v", pos["y"])
	}
}

func TestUpdateFrameRoundTrip(t *testing.T) {
	pos := Position{X: 1.5, Y: 1.6, Z: -4.25}
	rot := 2.5
	frame, err := EncodeUpdateFrame(&UpdateMsg{ID: "p1", Position: &pos, Rotation: &rot})
	if err != nil {
		t.Fatal(err)
	}
	if frame[0] != FrameUpdate {
		t.Fatalf("frame type byte = %#x", frame[0])
	}

	got, err := DecodeUpdateFrame(frame)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "p1" {
		t.Errorf("id = %q", got.ID)
	}
	if got.Position == nil || *got.Position != pos {
		t.Errorf("position = %+v", got.Position)
	}
	if got.Rotation == nil || *got.Rotation != rot {
		t.Errorf("rotation = %+v", got.Rotation)
	}
	if got.Health != nil || got.Username != nil {
		t.Error("absent fields decoded as present")
	}
}

func TestDecodeUpdateFrameRejectsGarbage(t *testing.T) {
	for _, frame := range [][]byte{nil, {}, {0x07, 0x01}, {FrameUpdate}} {
		if _, err := DecodeUpdateFrame(frame); err == nil {
			t.Errorf("frame %v decoded without error", frame)
		}
	}
}
