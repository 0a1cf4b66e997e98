// Package gateway is the session layer: it accepts websocket connections,
// dispatches named messages to the game engine and broadcasts room state to
// every occupant.
package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"strings"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/castaneai/potluck/pkg/dicegame"
	"github.com/castaneai/potluck/pkg/messaging"
	"github.com/castaneai/potluck/pkg/roomstore"
)

type Server struct {
	ctx    context.Context
	cancel context.CancelFunc
	engine *dicegame.Engine
	store  roomstore.Store
	codes  *roomstore.CodeGenerator

	mu       sync.RWMutex
	sessions map[string]map[string]*session // room code -> connection id -> session
}

func NewServer(engine *dicegame.Engine, store roomstore.Store, codes *roomstore.CodeGenerator) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		ctx:      ctx,
		cancel:   cancel,
		engine:   engine,
		store:    store,
		codes:    codes,
		sessions: make(map[string]map[string]*session),
	}
}

// Shutdown stops the receive loops of all connected sessions.
func (s *Server) Shutdown() {
	s.cancel()
}

func (s *Server) WebSocketHandler() websocket.Handler {
	return func(ws *websocket.Conn) {
		sess := newSession(ws)
		defer s.disconnect(sess)
		for {
			select {
			case <-s.ctx.Done():
				return
			default:
				var msg messaging.Message
				if err := websocket.JSON.Receive(ws, &msg); err != nil {
					if err != io.EOF {
						log.Printf("failed to receive json from %s: %+v", sess.cid, err)
					}
					return
				}
				s.handleMessage(sess, &msg)
			}
		}
	}
}

func (s *Server) handleMessage(sess *session, msg *messaging.Message) {
	switch msg.Type {
	case messaging.MessageTypeCreateRoom:
		var body messaging.CreateRoomMessage
		if err := json.Unmarshal(msg.Body, &body); err != nil {
			log.Printf("failed to decode %s body: %+v", msg.Type, err)
			return
		}
		s.handleCreateRoom(sess, &body)
	case messaging.MessageTypeJoinRoom:
		var body messaging.JoinRoomMessage
		if err := json.Unmarshal(msg.Body, &body); err != nil {
			log.Printf("failed to decode %s body: %+v", msg.Type, err)
			return
		}
		s.handleJoinRoom(sess, &body)
	case messaging.MessageTypeStartGame:
		s.handleStartGame(sess)
	case messaging.MessageTypeRollDice:
		s.handleRollDice(sess)
	case messaging.MessageTypeBankNow:
		s.handleBankNow(sess)
	case messaging.MessageTypeRestartGame:
		s.handleRestartGame(sess)
	default:
		log.Printf("unknown message type received from %s: %s", sess.cid, msg.Type)
	}
}

func (s *Server) handleCreateRoom(sess *session, body *messaging.CreateRoomMessage) {
	name := strings.TrimSpace(body.Name)
	if name == "" {
		sess.sendError("Name is required")
		return
	}
	var room *dicegame.Room
	for {
		code, err := s.codes.Generate(s.ctx)
		if err != nil {
			log.Printf("failed to generate room code: %+v", err)
			return
		}
		room = s.engine.NewRoom(code, dicegame.PlayerID(sess.cid), name)
		err = s.store.CreateRoom(s.ctx, room)
		if err == roomstore.ErrRoomExists {
			// Lost the code to a concurrent creator; draw again.
			continue
		}
		if err != nil {
			log.Printf("failed to store room: %+v", err)
			return
		}
		break
	}

	room.Lock()
	defer room.Unlock()
	s.register(sess, room.Code)
	sess.setRoomCode(room.Code)
	s.sendRoomJoined(sess, room.Code, room.Snapshot())
	log.Printf("room %s created by %s (%s)", room.Code, name, sess.cid)
}

func (s *Server) handleJoinRoom(sess *session, body *messaging.JoinRoomMessage) {
	name := strings.TrimSpace(body.Name)
	if name == "" {
		sess.sendError("Name is required")
		return
	}
	code := strings.ToUpper(strings.TrimSpace(body.RoomCode))
	if len(code) != 4 {
		sess.sendError("Room code must be 4 letters")
		return
	}
	room, err := s.store.GetRoom(s.ctx, code)
	if err == roomstore.ErrRoomNotFound {
		sess.sendError("Room not found")
		return
	}
	if err != nil {
		log.Printf("failed to get room %s: %+v", code, err)
		return
	}

	room.Lock()
	defer room.Unlock()
	if err := s.engine.Join(room, dicegame.PlayerID(sess.cid), name); err == dicegame.ErrRoomFull {
		sess.sendError("Room is full")
		return
	} else if err != nil {
		log.Printf("failed to join room %s: %+v", code, err)
		return
	}
	s.register(sess, code)
	sess.setRoomCode(code)
	state := room.Snapshot()
	s.sendRoomJoined(sess, code, state)
	s.broadcastState(code, state)
	log.Printf("%s (%s) joined room %s", name, sess.cid, code)
}

func (s *Server) handleStartGame(sess *session) {
	room := s.currentRoom(sess)
	if room == nil {
		return
	}
	room.Lock()
	defer room.Unlock()
	s.engine.Start(room)
	s.broadcastState(room.Code, room.Snapshot())
}

func (s *Server) handleRollDice(sess *session) {
	room := s.currentRoom(sess)
	if room == nil {
		return
	}
	room.Lock()
	defer room.Unlock()
	events, err := s.engine.Roll(room, dicegame.PlayerID(sess.cid))
	if err != nil {
		switch err {
		case dicegame.ErrNotYourTurn:
			sess.sendError("Not your turn")
		case dicegame.ErrAlreadyBanked:
			sess.sendError("You have already banked this round")
		}
		// ErrNotStarted is dropped without a reply, like the reference.
		return
	}
	s.broadcastEvents(room.Code, events)
	s.broadcastState(room.Code, room.Snapshot())
}

func (s *Server) handleBankNow(sess *session) {
	room := s.currentRoom(sess)
	if room == nil {
		return
	}
	room.Lock()
	defer room.Unlock()
	if err := s.engine.Bank(room, dicegame.PlayerID(sess.cid)); err != nil {
		if err == dicegame.ErrNotYourTurn {
			sess.sendError("Not your turn")
		}
		// A repeat bank is a silent no-op.
		return
	}
	s.broadcastState(room.Code, room.Snapshot())
}

func (s *Server) handleRestartGame(sess *session) {
	room := s.currentRoom(sess)
	if room == nil {
		return
	}
	room.Lock()
	defer room.Unlock()
	if err := s.engine.Restart(room, dicegame.PlayerID(sess.cid)); err != nil {
		if err == dicegame.ErrNotAuthorized {
			sess.sendError("Only the first player can restart")
		}
		return
	}
	s.broadcastState(room.Code, room.Snapshot())
}

// disconnect applies the leave as a command with the same room-level
// atomicity as everything else. It is the only mutation not triggered by an
// explicit client message.
func (s *Server) disconnect(sess *session) {
	if !sess.closed.SetToIf(false, true) {
		return
	}
	code := sess.roomCodeOrEmpty()
	if code == "" {
		return
	}
	s.unregister(sess, code)
	room, err := s.store.GetRoom(s.ctx, code)
	if err != nil {
		return
	}
	room.Lock()
	defer room.Unlock()
	removed, empty := s.engine.RemovePlayer(room, dicegame.PlayerID(sess.cid))
	if !removed {
		return
	}
	if empty {
		if err := s.store.DeleteRoom(s.ctx, code); err != nil {
			log.Printf("failed to delete empty room %s: %+v", code, err)
		}
		log.Printf("room %s deleted (last player left)", code)
		return
	}
	s.broadcastState(code, room.Snapshot())
}

// currentRoom resolves the session's room via its connection-to-room
// association. Commands from sessions that are not in a room are ignored.
func (s *Server) currentRoom(sess *session) *dicegame.Room {
	code := sess.roomCodeOrEmpty()
	if code == "" {
		return nil
	}
	room, err := s.store.GetRoom(s.ctx, code)
	if err != nil {
		return nil
	}
	return room
}

func (s *Server) sendRoomJoined(sess *session, code string, state *dicegame.State) {
	msg, err := messaging.NewMessage(messaging.MessageTypeRoomJoined, &messaging.RoomJoinedMessage{
		RoomCode: code,
		State:    state,
	})
	if err != nil {
		log.Printf("failed to encode roomJoined: %+v", err)
		return
	}
	sess.send(msg)
}

func (s *Server) broadcastState(code string, state *dicegame.State) {
	msg, err := messaging.NewMessage(messaging.MessageTypeGameState, state)
	if err != nil {
		log.Printf("failed to encode gameState: %+v", err)
		return
	}
	s.broadcast(code, msg)
}

// broadcastEvents relays engine events in order, so a dice roll is always
// seen before the pot resolution it caused.
func (s *Server) broadcastEvents(code string, events []dicegame.Event) {
	for _, ev := range events {
		var (
			msg *messaging.Message
			err error
		)
		switch ev.Type {
		case dicegame.EventTypeDiceRolled:
			msg, err = messaging.NewMessage(messaging.MessageTypeDiceRolled, &messaging.DiceRolledMessage{
				D1:  ev.Roll.D1,
				D2:  ev.Roll.D2,
				Sum: ev.Roll.Sum,
			})
		case dicegame.EventTypeLuckySeven:
			msg, err = messaging.NewMessage(messaging.MessageTypeLuckySeven, &messaging.AnnouncementMessage{Message: ev.Message})
		case dicegame.EventTypeBust:
			msg, err = messaging.NewMessage(messaging.MessageTypeBust, &messaging.AnnouncementMessage{Message: ev.Message})
		case dicegame.EventTypeDoubles:
			msg, err = messaging.NewMessage(messaging.MessageTypeDoubles, &messaging.AnnouncementMessage{Message: ev.Message})
		default:
			log.Printf("unknown engine event type: %s", ev.Type)
			continue
		}
		if err != nil {
			log.Printf("failed to encode %s: %+v", ev.Type, err)
			continue
		}
		s.broadcast(code, msg)
	}
}

func (s *Server) broadcast(code string, msg *messaging.Message) {
	s.mu.RLock()
	occupants := make([]*session, 0, len(s.sessions[code]))
	for _, sess := range s.sessions[code] {
		occupants = append(occupants, sess)
	}
	s.mu.RUnlock()
	for _, sess := range occupants {
		sess.send(msg)
	}
}

func (s *Server) register(sess *session, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	occupants, ok := s.sessions[code]
	if !ok {
		occupants = make(map[string]*session)
		s.sessions[code] = occupants
	}
	occupants[sess.cid] = sess
}

func (s *Server) unregister(sess *session, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	occupants, ok := s.sessions[code]
	if !ok {
		return
	}
	delete(occupants, sess.cid)
	if len(occupants) == 0 {
		delete(s.sessions, code)
	}
}
