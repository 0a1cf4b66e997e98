package dicegame

// State is the client-facing snapshot of a room, broadcast after every
// state-changing command.
type State struct {
	RoomCode           string        `json:"roomCode"`
	Pot                int           `json:"pot"`
	Round              int           `json:"round"`
	CurrentPlayerIndex int           `json:"currentPlayerIndex"`
	Started            bool          `json:"started"`
	LastRoll           *DiceRoll     `json:"lastRoll"`
	RollCount          int           `json:"rollCount"`
	Players            []PlayerState `json:"players"`
}

type PlayerState struct {
	ID        PlayerID `json:"id"`
	Name      string   `json:"name"`
	Score     int      `json:"score"`
	HasBanked bool     `json:"hasBanked"`
}

// Snapshot copies the room into a detached State. The caller must hold the
// room lock; the returned value is safe to use after the lock is released.
func (r *Room) Snapshot() *State {
	players := make([]PlayerState, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, PlayerState{
			ID:        p.ID,
			Name:      p.Name,
			Score:     p.Score,
			HasBanked: p.HasBanked,
		})
	}
	var lastRoll *DiceRoll
	if r.LastRoll != nil {
		roll := *r.LastRoll
		lastRoll = &roll
	}
	return &State{
		RoomCode:           r.Code,
		Pot:                r.Pot,
		Round:              r.Round,
		CurrentPlayerIndex: r.CurrentPlayerIndex,
		Started:            r.Started,
		LastRoll:           lastRoll,
		RollCount:          r.RollCount,
		Players:            players,
	}
}
