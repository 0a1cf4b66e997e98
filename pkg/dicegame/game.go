package dicegame

import (
	"sync"
)

// PlayerID identifies a connected player. It is assigned by the session
// layer when the connection is accepted and stays stable until disconnect.
type PlayerID string

// Player is one seat in a room. Seats are ordered by join time; seat 0 is
// the host and holds the restart privilege.
type Player struct {
	ID        PlayerID
	Name      string
	Score     int
	HasBanked bool
}

// DiceRoll is the outcome of a single throw of two dice.
type DiceRoll struct {
	D1  int `json:"d1"`
	D2  int `json:"d2"`
	Sum int `json:"sum"`
}

func (r DiceRoll) IsDouble() bool {
	return r.D1 == r.D2
}

// Room is the full state of one game session. Commands against a room must
// run with the room locked; rooms share nothing with each other.
type Room struct {
	sync.Mutex

	Code               string
	Players            []*Player
	Pot                int
	Round              int
	CurrentPlayerIndex int
	Started            bool
	LastRoll           *DiceRoll
	RollCount          int
}

// CurrentPlayer returns the player whose turn it is, or nil for an empty room.
func (r *Room) CurrentPlayer() *Player {
	if len(r.Players) == 0 || r.CurrentPlayerIndex >= len(r.Players) {
		return nil
	}
	return r.Players[r.CurrentPlayerIndex]
}

func (r *Room) findPlayer(id PlayerID) (int, *Player) {
	for i, p := range r.Players {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}
