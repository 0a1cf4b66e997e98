package gateway

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/tevino/abool"
	"golang.org/x/net/websocket"

	"github.com/castaneai/potluck/pkg/messaging"
)

// session is one websocket connection. The connection id doubles as the
// player id inside whichever room the session has joined.
type session struct {
	cid    string
	ws     *websocket.Conn
	closed *abool.AtomicBool

	mu       sync.Mutex
	roomCode string
}

func newSession(ws *websocket.Conn) *session {
	return &session{
		cid:    uuid.Must(uuid.NewRandom()).String(),
		ws:     ws,
		closed: abool.New(),
	}
}

func (c *session) roomCodeOrEmpty() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomCode
}

func (c *session) setRoomCode(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = code
}

// send serializes writes; websocket.JSON.Send is not safe for concurrent
// callers and broadcasts may race with direct replies.
func (c *session) send(msg *messaging.Message) {
	if c.closed.IsSet() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := websocket.JSON.Send(c.ws, msg); err != nil {
		log.Printf("failed to send %s to %s: %+v", msg.Type, c.cid, err)
	}
}

func (c *session) sendError(text string) {
	msg, err := messaging.NewMessage(messaging.MessageTypeError, &messaging.ErrorMessage{Message: text})
	if err != nil {
		log.Printf("failed to encode error message: %+v", err)
		return
	}
	c.send(msg)
}
