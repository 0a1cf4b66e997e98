package dicegame

import (
	"fmt"

	"github.com/pkg/errors"
)

// luckySum is the throw that is lucky early in a round and a bust later.
const luckySum = 7

var (
	ErrRoomFull      = errors.New("room is full")
	ErrNotStarted    = errors.New("game has not started")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrAlreadyBanked = errors.New("already banked this round")
	ErrNotAuthorized = errors.New("only the host can restart")
)

// Engine applies commands to rooms. It holds no per-room state of its own,
// so a single engine serves every room in the process. Callers are
// responsible for holding the room lock across each call.
type Engine struct {
	rules Rules
	dice  Roller
}

func NewEngine(rules Rules, dice Roller) *Engine {
	return &Engine{rules: rules, dice: dice}
}

func (e *Engine) Rules() Rules {
	return e.rules
}

// NewRoom builds a room in the lobby state with the creator seated as host.
func (e *Engine) NewRoom(code string, hostID PlayerID, hostName string) *Room {
	return &Room{
		Code:    code,
		Players: []*Player{{ID: hostID, Name: hostName}},
		Round:   1,
	}
}

// Join seats a new player at the end of the order. Joining is allowed at any
// time, including mid-game; the newcomer enters rotation when the turn
// naturally reaches them.
func (e *Engine) Join(room *Room, id PlayerID, name string) error {
	if len(room.Players) >= e.rules.MaxPlayers {
		return ErrRoomFull
	}
	room.Players = append(room.Players, &Player{ID: id, Name: name})
	return nil
}

// Start begins (or fully resets) the game. Any room member may start; this
// asymmetry with Restart matches the reference server.
func (e *Engine) Start(room *Room) {
	room.Started = true
	e.reset(room)
}

// Restart is Start restricted to the seat-0 host. It leaves Started as-is.
func (e *Engine) Restart(room *Room, actor PlayerID) error {
	if len(room.Players) == 0 || room.Players[0].ID != actor {
		return ErrNotAuthorized
	}
	e.reset(room)
	return nil
}

func (e *Engine) reset(room *Room) {
	room.Round = 1
	room.Pot = 0
	room.CurrentPlayerIndex = 0
	room.LastRoll = nil
	room.RollCount = 0
	for _, p := range room.Players {
		p.Score = 0
		p.HasBanked = false
	}
}

// Roll throws the dice for the acting player and resolves the pot. The
// returned events are ordered; the caller broadcasts them followed by a
// fresh state snapshot.
func (e *Engine) Roll(room *Room, actor PlayerID) ([]Event, error) {
	if !room.Started {
		return nil, ErrNotStarted
	}
	current := room.CurrentPlayer()
	if current == nil || current.ID != actor {
		return nil, ErrNotYourTurn
	}
	if current.HasBanked {
		// Rotation never hands the turn to a banked player, but guard anyway.
		return nil, ErrAlreadyBanked
	}

	room.RollCount++
	roll := e.dice.Roll()
	room.LastRoll = &roll
	events := []Event{{Type: EventTypeDiceRolled, Roll: roll}}

	roundEnded := false
	if roll.Sum == luckySum {
		if room.RollCount <= e.rules.LuckyRollWindow {
			room.Pot += e.rules.LuckySevenBonus
			events = append(events, Event{
				Type:    EventTypeLuckySeven,
				Message: fmt.Sprintf("LUCKY 7! +%d to pot!", e.rules.LuckySevenBonus),
			})
		} else {
			room.Pot = 0
			e.startNewRound(room)
			events = append(events, Event{Type: EventTypeBust, Message: "BUST! Pot reset to 0"})
			roundEnded = true
		}
	} else if room.RollCount > e.rules.LuckyRollWindow && roll.IsDouble() {
		room.Pot *= 2
		events = append(events, Event{Type: EventTypeDoubles, Message: "DOUBLES! Pot doubled!"})
	} else {
		room.Pot += roll.Sum
	}

	if !roundEnded {
		e.moveToNextPlayer(room)
	}
	return events, nil
}

// Bank locks the current pot value into the acting player's score. The pot
// itself is not reset; players banking later in the same round still claim
// its value at that time.
func (e *Engine) Bank(room *Room, actor PlayerID) error {
	if !room.Started {
		return ErrNotStarted
	}
	current := room.CurrentPlayer()
	if current == nil || current.ID != actor {
		return ErrNotYourTurn
	}
	if current.HasBanked {
		return ErrAlreadyBanked
	}
	current.Score += room.Pot
	current.HasBanked = true
	e.moveToNextPlayer(room)
	return nil
}

// RemovePlayer takes a player out of the seat order, normally on disconnect.
// empty reports that no players remain and the room should be dropped from
// its store. When the removal leaves the turn index past the end of the
// order it is clamped to seat 0, matching the reference server even though
// that silently reassigns whose turn it was.
func (e *Engine) RemovePlayer(room *Room, id PlayerID) (removed, empty bool) {
	idx, _ := room.findPlayer(id)
	if idx == -1 {
		return false, len(room.Players) == 0
	}
	room.Players = append(room.Players[:idx], room.Players[idx+1:]...)
	if len(room.Players) == 0 {
		return true, true
	}
	if room.CurrentPlayerIndex >= len(room.Players) {
		room.CurrentPlayerIndex = 0
	}
	return true, false
}

// moveToNextPlayer advances the turn, skipping banked players, probing each
// seat at most once. If everyone has banked after the advance, a new round
// begins immediately.
func (e *Engine) moveToNextPlayer(room *Room) {
	attempts := 0
	maxAttempts := len(room.Players)
	for {
		room.CurrentPlayerIndex = (room.CurrentPlayerIndex + 1) % len(room.Players)
		attempts++
		if !room.Players[room.CurrentPlayerIndex].HasBanked || attempts >= maxAttempts {
			break
		}
	}
	for _, p := range room.Players {
		if !p.HasBanked {
			return
		}
	}
	e.startNewRound(room)
}

// startNewRound resets the round-scoped state. The turn index advances one
// step from wherever it currently points; on the bust path this is the only
// rotation taken, on the all-banked path it compounds with the rotation that
// just ran.
func (e *Engine) startNewRound(room *Room) {
	room.Round++
	room.Pot = 0
	room.LastRoll = nil
	room.RollCount = 0
	for _, p := range room.Players {
		p.HasBanked = false
	}
	room.CurrentPlayerIndex = (room.CurrentPlayerIndex + 1) % len(room.Players)
}
