package games

const (
	BoardWidth  = 7
	BoardHeight = 6

	// ConnectLength is the number of marks in a line needed to win.
	ConnectLength = 4

	StatusWaiting  GameStatus = "waiting"
	StatusActive   GameStatus = "active"
	StatusFinished GameStatus = "finished"

	SinglePlayer      GameType = "single"
	LocalMultiplayer  GameType = "local"
	OnlineMultiplayer GameType = "online"

	// BotID is the player id used for the seat taken by an automated agent.
	BotID = "bot"
)

// Mark is the content of one board cell.
type Mark int8

const (
	Empty Mark = iota
	PlayerOne
	PlayerTwo
)

// Opponent returns the other placeable mark. Empty has no opponent.
func (m Mark) Opponent() Mark {
	switch m {
	case PlayerOne:
		return PlayerTwo
	case PlayerTwo:
		return PlayerOne
	}
	return Empty
}

// Placeable reports whether m may be dropped into a column.
func (m Mark) Placeable() bool {
	return m == PlayerOne || m == PlayerTwo
}

func (m Mark) String() string {
	switch m {
	case PlayerOne:
		return "X"
	case PlayerTwo:
		return "O"
	}
	return "."
}
