package game

// Identity is the stable identity a connection authenticates as.
type Identity struct {
	ID       string
	Username string
	Country  string
	Rating   *int
	IsGuest  bool
}

// Player is a connected participant. Queue and room flags are owned by the
// queue and room registry; game membership is owned by the Game.
type Player struct {
	ID       string
	Username string
	Country  string
	Rating   *int
	IsGuest  bool

	InQueue      bool
	InRoom       bool
	RoomID       string
	WantsRematch bool

	conn Conn
	game *Game
}

func NewPlayer(id Identity, conn Conn) *Player {
	return &Player{
		ID:       id.ID,
		Username: id.Username,
		Country:  id.Country,
		Rating:   id.Rating,
		IsGuest:  id.IsGuest,
		conn:     conn,
	}
}

// InGame reports whether the player currently holds a seat in a running game.
func (p *Player) InGame() bool {
	return p.game != nil
}

// Game returns the game the player is seated in, or nil.
func (p *Player) Game() *Game {
	return p.game
}

// Send delivers msg to the player's connection, if any.
func (p *Player) Send(msg Message) {
	if p.conn != nil {
		p.conn.Send(msg)
	}
}

func (p *Player) Summary() PlayerSummary {
	return PlayerSummary{ID: p.ID, Username: p.Username, Country: p.Country, Rating: p.Rating}
}
