// Package codec builds per-viewer table views and frames client/server
// messages as JSON text or protobuf Struct binary.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Format is the frame encoding negotiated through the WebSocket subprotocol.
type Format int

const (
	FormatJSON Format = iota
	FormatProto
)

const (
	SubprotocolJSON  = "belote.json"
	SubprotocolProto = "belote.proto"
)

// FormatForSubprotocol maps a negotiated subprotocol to a frame format.
// Unknown or empty subprotocols fall back to JSON.
func FormatForSubprotocol(sub string) Format {
	if sub == SubprotocolProto {
		return FormatProto
	}
	return FormatJSON
}

// Client message types.
const (
	TypeGetRooms      = "get-rooms"
	TypeJoinRoom      = "join-room"
	TypeLeaveRoom     = "leave-room"
	TypeStartWithBots = "start-game-bots"
	TypeStartGame     = "start-game"
	TypeResetGame     = "reset-game"
	TypePlayerReady   = "player-ready"
	TypePlayerBid     = "player-bid"
	TypePlayCard      = "play-card"
	TypeDeclare       = "declare-announcement"
)

// Server message types.
const (
	TypeRoomList    = "room-list"
	TypeLobbyUpdate = "lobby-update"
	TypeGameUpdate  = "game-update"
	TypeError       = "error"
)

var ErrMalformed = errors.New("malformed message")

// ClientMessage is the union of every client request.
type ClientMessage struct {
	Type     string `json:"type"`
	RoomID   int    `json:"roomId,omitempty"`
	Username string `json:"username,omitempty"`
	UserID   string `json:"userId,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Action   string `json:"action,omitempty"`
	Suit     string `json:"suit,omitempty"`
	CardID   string `json:"cardId,omitempty"`
	Decision *bool  `json:"decision,omitempty"`
}

// ServerMessage is one outbound event.
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// ErrorPayload is the body of an error event.
type ErrorPayload struct {
	Message string `json:"message"`
}

func Encode(format Format, msg ServerMessage) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Type, err)
	}
	if format == FormatJSON {
		return data, nil
	}
	var st structpb.Struct
	if err := protojson.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("encode %s as struct: %w", msg.Type, err)
	}
	out, err := proto.Marshal(&st)
	if err != nil {
		return nil, fmt.Errorf("encode %s as proto: %w", msg.Type, err)
	}
	return out, nil
}

func Decode(format Format, data []byte) (ClientMessage, error) {
	if format == FormatProto {
		var st structpb.Struct
		if err := proto.Unmarshal(data, &st); err != nil {
			return ClientMessage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		var err error
		if data, err = protojson.Marshal(&st); err != nil {
			return ClientMessage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if msg.Type == "" {
		return ClientMessage{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return msg, nil
}

// DecodeServer parses an outbound frame back into a generic tree. Used by
// tests and tooling that inspect server traffic.
func DecodeServer(format Format, data []byte) (map[string]any, error) {
	if format == FormatProto {
		var st structpb.Struct
		if err := proto.Unmarshal(data, &st); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return st.AsMap(), nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return out, nil
}
