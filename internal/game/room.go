package game

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"
)

const (
	roomCodeLength  = 6
	roomCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCapacity    = 2
)

// Room is a private table two players meet at by code. It outlives its
// games so the pair can rematch.
type Room struct {
	ID      string
	Players []*Player
	Game    *Game
	Created time.Time
}

func (r *Room) has(p *Player) bool {
	for _, member := range r.Players {
		if member.ID == p.ID {
			return true
		}
	}
	return false
}

// Opponent returns the other member of the room, or nil.
func (r *Room) Opponent(p *Player) *Player {
	for _, member := range r.Players {
		if member.ID != p.ID {
			return member
		}
	}
	return nil
}

// Ready reports whether the room holds two players.
func (r *Room) Ready() bool {
	return len(r.Players) == roomCapacity
}

// GameRunning reports whether the room's last game is still being played.
func (r *Room) GameRunning() bool {
	return r.Game != nil && !r.Game.Ended()
}

// RoomRegistry maps room codes to rooms.
type RoomRegistry struct {
	rooms   map[string]*Room
	newCode func() string
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:   make(map[string]*Room),
		newCode: generateRoomCode,
	}
}

// generateRoomCode returns a random code of uppercase letters and digits.
func generateRoomCode() string {
	var sb strings.Builder
	max := big.NewInt(int64(len(roomCodeCharset)))
	for i := 0; i < roomCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			sb.WriteByte(roomCodeCharset[i])
			continue
		}
		sb.WriteByte(roomCodeCharset[n.Int64()])
	}
	return sb.String()
}

// NormalizeRoomCode trims and upper-cases a typed code.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NewCode returns a code no current room uses. Nothing is stored; the room
// comes into being when the first player joins it.
func (rr *RoomRegistry) NewCode() string {
	code := rr.newCode()
	for rr.rooms[code] != nil {
		code = rr.newCode()
	}
	return code
}

func (rr *RoomRegistry) Get(code string) *Room {
	return rr.rooms[code]
}

func (rr *RoomRegistry) Len() int {
	return len(rr.rooms)
}

// CheckJoin reports whether p could join the room with the given code
// without changing anything.
func (rr *RoomRegistry) CheckJoin(code string, p *Player) error {
	room := rr.rooms[code]
	if room != nil && !room.has(p) && len(room.Players) >= roomCapacity {
		return ErrRoomFull
	}
	return nil
}

// Join adds p to the room with the given code, creating it on first use.
// Joining a room p is already in succeeds without change. joined is false in
// that case.
func (rr *RoomRegistry) Join(code string, p *Player) (room *Room, joined bool, err error) {
	room = rr.rooms[code]
	if room == nil {
		room = &Room{ID: code, Created: time.Now()}
		rr.rooms[code] = room
	}
	if room.has(p) {
		return room, false, nil
	}
	if len(room.Players) >= roomCapacity {
		return room, false, ErrRoomFull
	}
	room.Players = append(room.Players, p)
	p.InRoom = true
	p.RoomID = code
	p.WantsRematch = false
	return room, true, nil
}

// Leave removes p from its room, clears everyone's rematch flags and drops
// the room once empty.
func (rr *RoomRegistry) Leave(p *Player) {
	if !p.InRoom {
		return
	}
	code := p.RoomID
	p.InRoom = false
	p.RoomID = ""
	p.WantsRematch = false

	room := rr.rooms[code]
	if room == nil {
		return
	}
	kept := room.Players[:0]
	for _, member := range room.Players {
		if member.ID != p.ID {
			member.WantsRematch = false
			kept = append(kept, member)
		}
	}
	room.Players = kept
	if len(room.Players) == 0 {
		delete(rr.rooms, code)
	}
}

// RoomOf returns the room p is a member of.
func (rr *RoomRegistry) RoomOf(p *Player) (*Room, error) {
	if !p.InRoom || p.RoomID == "" {
		return nil, ErrNotInRoom
	}
	room := rr.rooms[p.RoomID]
	if room == nil || !room.Ready() {
		return nil, ErrRoomNotReady
	}
	return room, nil
}

// RequestRematch flags p as wanting a rematch. Returns true when both
// members now want one; the flags are then reset.
func (rr *RoomRegistry) RequestRematch(p *Player) (room *Room, start bool, err error) {
	room, err = rr.RoomOf(p)
	if err != nil {
		return nil, false, err
	}
	if room.GameRunning() {
		return room, false, ErrGameInProgress
	}
	p.WantsRematch = true
	opp := room.Opponent(p)
	if opp != nil && opp.WantsRematch {
		for _, member := range room.Players {
			member.WantsRematch = false
		}
		return room, true, nil
	}
	return room, false, nil
}

// DeclineRematch clears the opponent's outstanding request and returns them.
func (rr *RoomRegistry) DeclineRematch(p *Player) (*Player, error) {
	room, err := rr.RoomOf(p)
	if err != nil {
		return nil, err
	}
	p.WantsRematch = false
	opp := room.Opponent(p)
	if opp != nil {
		opp.WantsRematch = false
	}
	return opp, nil
}
