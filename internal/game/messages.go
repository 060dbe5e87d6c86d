package game

// Server to client event names.
const (
	EventOnlineUpdate     = "online-update"
	EventQueueUpdate      = "queue-update"
	EventGameStart        = "game-start"
	EventGameUpdate       = "game-update"
	EventScoreUpdate      = "game-scoreUpdate"
	EventTurnUpdate       = "game-updateTurn"
	EventGameEnd          = "game-end"
	EventRematchRequested = "rematch-requested"
	EventRematchAccepted  = "rematch-accepted"
	EventRematchDeclined  = "rematch-declined"
)

// ServerEvents is the set of event names a server message may carry.
var ServerEvents = map[string]bool{
	EventOnlineUpdate:     true,
	EventQueueUpdate:      true,
	EventGameStart:        true,
	EventGameUpdate:       true,
	EventScoreUpdate:      true,
	EventTurnUpdate:       true,
	EventGameEnd:          true,
	EventRematchRequested: true,
	EventRematchAccepted:  true,
	EventRematchDeclined:  true,
}

// Message is a server to client payload tagged with its event name.
type Message interface {
	Event() string
}

// Conn is the outbound half of a client connection. Send must not block.
type Conn interface {
	Send(msg Message)
}

// PlayerSummary is the presence view of a player.
type PlayerSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Country  string `json:"country"`
	Rating   *int   `json:"rating"`
}

type OnlineUpdate struct {
	PlayersOnline []PlayerSummary `json:"playersOnline"`
}

type QueueUpdate struct {
	PlayersInQueue []PlayerSummary `json:"playersInQueue"`
}

// SeatView is one side of a game as seen in game-start.
type SeatView struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Score    int       `json:"score"`
	Color    BallColor `json:"color,omitempty"`
}

type GameStart struct {
	Player   SeatView   `json:"player"`
	Opponent SeatView   `json:"opponent"`
	Active   bool       `json:"active"`
	Turn     bool       `json:"turn"`
	Balls    []BallView `json:"balls"`
}

type GameUpdate struct {
	Active bool       `json:"active"`
	Balls  []BallView `json:"balls"`
}

type ScoreUpdate struct {
	Player        int       `json:"player"`
	Opponent      int       `json:"opponent"`
	PlayerColor   BallColor `json:"playercolor,omitempty"`
	OpponentColor BallColor `json:"opponentcolor,omitempty"`
	GameColorSet  bool      `json:"gameColorSet"`
}

// ScoreView is one side of a game as seen in game-updateTurn.
type ScoreView struct {
	Score int       `json:"score"`
	Color BallColor `json:"color,omitempty"`
}

type TurnUpdate struct {
	Player   ScoreView `json:"player"`
	Opponent ScoreView `json:"opponent"`
	Turn     bool      `json:"turn"`
}

type GameEnd struct {
	Winner    bool      `json:"winner"`
	WinReason WinReason `json:"winReason"`
}

type RematchRequested struct {
	From string `json:"from"`
}

type RematchAccepted struct {
	From string `json:"from"`
}

type RematchDeclined struct {
	From string `json:"from"`
}

func (OnlineUpdate) Event() string     { return EventOnlineUpdate }
func (QueueUpdate) Event() string      { return EventQueueUpdate }
func (GameStart) Event() string        { return EventGameStart }
func (GameUpdate) Event() string       { return EventGameUpdate }
func (ScoreUpdate) Event() string      { return EventScoreUpdate }
func (TurnUpdate) Event() string       { return EventTurnUpdate }
func (GameEnd) Event() string          { return EventGameEnd }
func (RematchRequested) Event() string { return EventRematchRequested }
func (RematchAccepted) Event() string  { return EventRematchAccepted }
func (RematchDeclined) Event() string  { return EventRematchDeclined }

// Ack is the reply to a client request that expects acknowledgement.
type Ack struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	RoomID        string `json:"roomId,omitempty"`
	PlayersInRoom int    `json:"playersInRoom,omitempty"`
}
