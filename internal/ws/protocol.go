package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/playmatatu/eightball/internal/game"
)

// Client to server event names.
const (
	EventQueueJoin           = "queue-join"
	EventQueueLeave          = "queue-leave"
	EventShoot               = "shoot"
	EventRoomCreate          = "room-create"
	EventRoomJoin            = "room-join"
	EventRematchRequest      = "rematch-request"
	EventRematchResponse     = "rematch-response"
	EventRequestOnlineUpdate = "requestOnlineUpdate"

	eventAck   = "ack"
	eventError = "error"
)

var (
	ErrUnknownEvent   = errors.New("unknown event")
	ErrNotAuthorized  = errors.New("sign in to play")
	ErrInvalidPayload = errors.New("invalid payload")
)

// ClientEnvelope is a message from the browser. Ack, when present, is echoed
// back in the reply so the client can match it to its callback.
type ClientEnvelope struct {
	Event string          `json:"event"`
	Ack   json.RawMessage `json:"ack,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ServerEnvelope carries a server event.
type ServerEnvelope struct {
	Event string          `json:"event"`
	Ack   json.RawMessage `json:"ack,omitempty"`
	Data  interface{}     `json:"data,omitempty"`
}

// ShootData is the payload of a shoot event.
type ShootData struct {
	Power float64 `json:"power"`
	Angle float64 `json:"angle"`
}

// Encode wraps a server message in its envelope. Messages whose event name
// is not a known server event are refused.
func Encode(msg game.Message) ([]byte, error) {
	event := msg.Event()
	if !game.ServerEvents[event] {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	return json.Marshal(ServerEnvelope{Event: event, Data: msg})
}

// EncodeAck builds the reply to an acknowledged request.
func EncodeAck(id json.RawMessage, ack game.Ack) ([]byte, error) {
	return json.Marshal(ServerEnvelope{Event: eventAck, Ack: id, Data: ack})
}

func encodeError(message string) []byte {
	data, _ := json.Marshal(ServerEnvelope{Event: eventError, Data: map[string]string{"message": message}})
	return data
}

// Decode parses one client message.
func Decode(raw []byte) (ClientEnvelope, error) {
	var env ClientEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if env.Event == "" {
		return env, fmt.Errorf("%w: missing event", ErrInvalidPayload)
	}
	return env, nil
}

// GameServer is the part of the game server a connection drives.
type GameServer interface {
	Connect(id game.Identity, conn game.Conn)
	Disconnect(playerID string, conn game.Conn)
	AddObserver(conn game.Conn)
	RemoveObserver(conn game.Conn)

	QueueJoin(playerID string) game.Ack
	QueueLeave(playerID string)
	Shoot(playerID string, power, angle float64)
	RoomCreate(playerID string) game.Ack
	RoomJoin(playerID, code string) game.Ack
	RematchRequest(playerID string) game.Ack
	RematchResponse(playerID string, accept bool) game.Ack
	RequestOnlineUpdate()
}

// dispatch routes one client event to the server. It returns the ack to send
// back, or nil for events without one. Observers (empty playerID) may only
// ask for presence.
func dispatch(srv GameServer, playerID string, env ClientEnvelope) (*game.Ack, error) {
	if env.Event == EventRequestOnlineUpdate {
		srv.RequestOnlineUpdate()
		return nil, nil
	}
	if playerID == "" {
		switch env.Event {
		case EventQueueJoin, EventQueueLeave, EventShoot, EventRoomCreate,
			EventRoomJoin, EventRematchRequest, EventRematchResponse:
			return &game.Ack{Success: false, Message: "Sign in to play"}, ErrNotAuthorized
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}

	var ack game.Ack
	switch env.Event {
	case EventQueueJoin:
		ack = srv.QueueJoin(playerID)
	case EventQueueLeave:
		srv.QueueLeave(playerID)
		return nil, nil
	case EventShoot:
		var data ShootData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		srv.Shoot(playerID, data.Power, data.Angle)
		return nil, nil
	case EventRoomCreate:
		ack = srv.RoomCreate(playerID)
	case EventRoomJoin:
		var code string
		if err := json.Unmarshal(env.Data, &code); err != nil {
			return &game.Ack{Success: false, Message: "Room code required"}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		ack = srv.RoomJoin(playerID, code)
	case EventRematchRequest:
		ack = srv.RematchRequest(playerID)
	case EventRematchResponse:
		var accept bool
		if err := json.Unmarshal(env.Data, &accept); err != nil {
			return &game.Ack{Success: false, Message: "Answer required"}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		ack = srv.RematchResponse(playerID, accept)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	return &ack, nil
}
