package gateway

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/net/websocket"

	"github.com/castaneai/potluck/pkg/dicegame"
	"github.com/castaneai/potluck/pkg/messaging"
	"github.com/castaneai/potluck/pkg/roomstore"
)

type scriptedDice struct {
	rolls []dicegame.DiceRoll
	next  int
}

func (d *scriptedDice) Roll() dicegame.DiceRoll {
	r := d.rolls[d.next]
	d.next++
	return r
}

func throw(d1, d2 int) dicegame.DiceRoll {
	return dicegame.DiceRoll{D1: d1, D2: d2, Sum: d1 + d2}
}

type testServer struct {
	*Server
	hs    *httptest.Server
	store roomstore.Store
}

func newTestServer(t *testing.T, rolls ...dicegame.DiceRoll) *testServer {
	store := roomstore.NewInMemoryStore()
	codes := roomstore.NewCodeGenerator(store, rand.NewSource(1))
	engine := dicegame.NewEngine(dicegame.DefaultRules(), &scriptedDice{rolls: rolls})
	s := NewServer(engine, store, codes)
	hs := httptest.NewServer(s.WebSocketHandler())
	t.Cleanup(func() {
		s.Shutdown()
		hs.Close()
	})
	return &testServer{Server: s, hs: hs, store: store}
}

func (ts *testServer) DialWebSocket(t *testing.T) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(ts.hs.URL, "http:", "ws:", 1)
	conn, err := websocket.Dial(wsURL, "", ts.hs.URL)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, ws *websocket.Conn, typ messaging.MessageType, body interface{}) {
	t.Helper()
	msg, err := messaging.NewMessage(typ, body)
	assert.NoError(t, err)
	assert.NoError(t, websocket.JSON.Send(ws, msg))
}

func recv(t *testing.T, ws *websocket.Conn) *messaging.Message {
	t.Helper()
	assert.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg messaging.Message
	if err := websocket.JSON.Receive(ws, &msg); err != nil {
		t.Fatalf("failed to receive message: %+v", err)
	}
	return &msg
}

// recvBody asserts the type of the next message and decodes its body.
func recvBody(t *testing.T, ws *websocket.Conn, want messaging.MessageType, body interface{}) {
	t.Helper()
	msg := recv(t, ws)
	assert.Equal(t, want, msg.Type)
	if body != nil {
		assert.NoError(t, json.Unmarshal(msg.Body, body))
	}
}

func createRoom(t *testing.T, ws *websocket.Conn, name string) string {
	t.Helper()
	send(t, ws, messaging.MessageTypeCreateRoom, &messaging.CreateRoomMessage{Name: name})
	var joined messaging.RoomJoinedMessage
	recvBody(t, ws, messaging.MessageTypeRoomJoined, &joined)
	return joined.RoomCode
}

func TestCreateAndJoinRoom(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.DialWebSocket(t)
	bob := ts.DialWebSocket(t)

	send(t, alice, messaging.MessageTypeCreateRoom, &messaging.CreateRoomMessage{Name: "Alice"})
	var joined messaging.RoomJoinedMessage
	recvBody(t, alice, messaging.MessageTypeRoomJoined, &joined)
	assert.Len(t, joined.RoomCode, 4)
	assert.Equal(t, strings.ToUpper(joined.RoomCode), joined.RoomCode)
	assert.False(t, joined.State.Started)
	assert.Len(t, joined.State.Players, 1)
	assert.Equal(t, "Alice", joined.State.Players[0].Name)

	// Join codes are case-insensitive.
	send(t, bob, messaging.MessageTypeJoinRoom, &messaging.JoinRoomMessage{
		RoomCode: strings.ToLower(joined.RoomCode),
		Name:     "Bob",
	})
	var bobJoined messaging.RoomJoinedMessage
	recvBody(t, bob, messaging.MessageTypeRoomJoined, &bobJoined)
	assert.Equal(t, joined.RoomCode, bobJoined.RoomCode)

	var state dicegame.State
	recvBody(t, bob, messaging.MessageTypeGameState, &state)
	assert.Len(t, state.Players, 2)
	assert.Equal(t, "Bob", state.Players[1].Name)

	recvBody(t, alice, messaging.MessageTypeGameState, &state)
	assert.Len(t, state.Players, 2)
}

func TestJoinRejections(t *testing.T) {
	ts := newTestServer(t)
	ws := ts.DialWebSocket(t)

	send(t, ws, messaging.MessageTypeCreateRoom, &messaging.CreateRoomMessage{Name: "  "})
	var errMsg messaging.ErrorMessage
	recvBody(t, ws, messaging.MessageTypeError, &errMsg)
	assert.Equal(t, "Name is required", errMsg.Message)

	send(t, ws, messaging.MessageTypeJoinRoom, &messaging.JoinRoomMessage{RoomCode: "TOOLONG", Name: "Alice"})
	recvBody(t, ws, messaging.MessageTypeError, &errMsg)
	assert.Equal(t, "Room code must be 4 letters", errMsg.Message)

	send(t, ws, messaging.MessageTypeJoinRoom, &messaging.JoinRoomMessage{RoomCode: "ZZZZ", Name: "Alice"})
	recvBody(t, ws, messaging.MessageTypeError, &errMsg)
	assert.Equal(t, "Room not found", errMsg.Message)
}

func TestRoomFull(t *testing.T) {
	ts := newTestServer(t)
	host := ts.DialWebSocket(t)
	code := createRoom(t, host, "host")

	for i := 0; i < 7; i++ {
		ws := ts.DialWebSocket(t)
		send(t, ws, messaging.MessageTypeJoinRoom, &messaging.JoinRoomMessage{RoomCode: code, Name: "player"})
		recvBody(t, ws, messaging.MessageTypeRoomJoined, nil)
	}

	ninth := ts.DialWebSocket(t)
	send(t, ninth, messaging.MessageTypeJoinRoom, &messaging.JoinRoomMessage{RoomCode: code, Name: "late"})
	var errMsg messaging.ErrorMessage
	recvBody(t, ninth, messaging.MessageTypeError, &errMsg)
	assert.Equal(t, "Room is full", errMsg.Message)
}

func TestFullGameFlow(t *testing.T) {
	ts := newTestServer(t, throw(3, 4), throw(2, 3))
	alice := ts.DialWebSocket(t)
	bob := ts.DialWebSocket(t)

	code := createRoom(t, alice, "Alice")
	send(t, bob, messaging.MessageTypeJoinRoom, &messaging.JoinRoomMessage{RoomCode: code, Name: "Bob"})
	recvBody(t, bob, messaging.MessageTypeRoomJoined, nil)
	recvBody(t, bob, messaging.MessageTypeGameState, nil)
	recvBody(t, alice, messaging.MessageTypeGameState, nil)

	// Any member may start, not just the host.
	send(t, bob, messaging.MessageTypeStartGame, &messaging.StartGameMessage{RoomCode: code})
	var state dicegame.State
	recvBody(t, alice, messaging.MessageTypeGameState, &state)
	assert.True(t, state.Started)
	assert.Equal(t, 0, state.CurrentPlayerIndex)
	recvBody(t, bob, messaging.MessageTypeGameState, nil)

	// Roll one: a lucky seven. Both clients see the throw before the pot.
	send(t, alice, messaging.MessageTypeRollDice, &messaging.RollDiceMessage{RoomCode: code})
	var rolled messaging.DiceRolledMessage
	recvBody(t, alice, messaging.MessageTypeDiceRolled, &rolled)
	assert.Equal(t, messaging.DiceRolledMessage{D1: 3, D2: 4, Sum: 7}, rolled)
	var lucky messaging.AnnouncementMessage
	recvBody(t, alice, messaging.MessageTypeLuckySeven, &lucky)
	assert.Equal(t, "LUCKY 7! +70 to pot!", lucky.Message)
	recvBody(t, alice, messaging.MessageTypeGameState, &state)
	assert.Equal(t, 70, state.Pot)
	assert.Equal(t, 1, state.Round)
	assert.Equal(t, 1, state.CurrentPlayerIndex)
	recvBody(t, bob, messaging.MessageTypeDiceRolled, nil)
	recvBody(t, bob, messaging.MessageTypeLuckySeven, nil)
	recvBody(t, bob, messaging.MessageTypeGameState, nil)

	// Out of turn: only the offender hears about it.
	send(t, alice, messaging.MessageTypeRollDice, &messaging.RollDiceMessage{RoomCode: code})
	var errMsg messaging.ErrorMessage
	recvBody(t, alice, messaging.MessageTypeError, &errMsg)
	assert.Equal(t, "Not your turn", errMsg.Message)

	// Roll two: plain sum.
	send(t, bob, messaging.MessageTypeRollDice, &messaging.RollDiceMessage{RoomCode: code})
	recvBody(t, bob, messaging.MessageTypeDiceRolled, nil)
	recvBody(t, bob, messaging.MessageTypeGameState, &state)
	assert.Equal(t, 75, state.Pot)
	assert.Equal(t, 0, state.CurrentPlayerIndex)
	recvBody(t, alice, messaging.MessageTypeDiceRolled, nil)
	recvBody(t, alice, messaging.MessageTypeGameState, nil)

	// Alice banks 75; the pot stays for Bob.
	send(t, alice, messaging.MessageTypeBankNow, &messaging.BankNowMessage{RoomCode: code})
	recvBody(t, alice, messaging.MessageTypeGameState, &state)
	assert.Equal(t, 75, state.Players[0].Score)
	assert.True(t, state.Players[0].HasBanked)
	assert.Equal(t, 75, state.Pot)
	assert.Equal(t, 1, state.CurrentPlayerIndex)
	recvBody(t, bob, messaging.MessageTypeGameState, nil)

	// Bob banks too; everyone has banked, so a new round begins.
	send(t, bob, messaging.MessageTypeBankNow, &messaging.BankNowMessage{RoomCode: code})
	recvBody(t, bob, messaging.MessageTypeGameState, &state)
	assert.Equal(t, 75, state.Players[1].Score)
	assert.Equal(t, 2, state.Round)
	assert.Equal(t, 0, state.Pot)
	assert.Equal(t, 0, state.RollCount)
	for _, p := range state.Players {
		assert.False(t, p.HasBanked)
	}
	recvBody(t, alice, messaging.MessageTypeGameState, nil)

	// Only the host may restart.
	send(t, bob, messaging.MessageTypeRestartGame, &messaging.RestartGameMessage{RoomCode: code})
	recvBody(t, bob, messaging.MessageTypeError, &errMsg)
	assert.Equal(t, "Only the first player can restart", errMsg.Message)

	send(t, alice, messaging.MessageTypeRestartGame, &messaging.RestartGameMessage{RoomCode: code})
	recvBody(t, alice, messaging.MessageTypeGameState, &state)
	assert.True(t, state.Started)
	assert.Equal(t, 1, state.Round)
	assert.Equal(t, 0, state.Players[0].Score)
	recvBody(t, bob, messaging.MessageTypeGameState, nil)
}

func TestDisconnectRemovesPlayer(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	alice := ts.DialWebSocket(t)
	bob := ts.DialWebSocket(t)

	code := createRoom(t, alice, "Alice")
	send(t, bob, messaging.MessageTypeJoinRoom, &messaging.JoinRoomMessage{RoomCode: code, Name: "Bob"})
	recvBody(t, bob, messaging.MessageTypeRoomJoined, nil)
	recvBody(t, bob, messaging.MessageTypeGameState, nil)
	recvBody(t, alice, messaging.MessageTypeGameState, nil)

	assert.NoError(t, bob.Close())
	var state dicegame.State
	recvBody(t, alice, messaging.MessageTypeGameState, &state)
	assert.Len(t, state.Players, 1)
	assert.Equal(t, "Alice", state.Players[0].Name)

	// The last disconnect takes the room with it.
	assert.NoError(t, alice.Close())
	assert.Eventually(t, func() bool {
		_, err := ts.store.GetRoom(ctx, code)
		return err == roomstore.ErrRoomNotFound
	}, 5*time.Second, 10*time.Millisecond)
}
