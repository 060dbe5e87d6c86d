package game

import "errors"

var (
	ErrGameInProgress = errors.New("previous game is still in progress")
	ErrInGame         = errors.New("cannot join room while in game")
	ErrRoomFull       = errors.New("room is full")
	ErrNotInRoom      = errors.New("not in a room")
	ErrRoomNotReady   = errors.New("room not ready")
)

// ackMessages are the client-facing texts for the sentinel errors.
var ackMessages = map[error]string{
	ErrGameInProgress: "Previous game is still in progress!",
	ErrInGame:         "Cannot join room while in game",
	ErrRoomFull:       "Room is full",
	ErrNotInRoom:      "Not in a room",
	ErrRoomNotReady:   "Room not ready",
}

// FailAck turns an error into a failed acknowledgement.
func FailAck(err error) Ack {
	for sentinel, msg := range ackMessages {
		if errors.Is(err, sentinel) {
			return Ack{Success: false, Message: msg}
		}
	}
	return Ack{Success: false, Message: err.Error()}
}
