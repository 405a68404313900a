package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/diodzi/gthacks-backend/internal/rooms/registry"
)

// countStore registra as escritas de view_count para os testes de conexão
type countStore struct {
	mu   sync.Mutex
	incs int
	decs int
}

func (c *countStore) Insert(context.Context, string, string, string, string) error { return nil }
func (c *countStore) Delete(context.Context, string) error                         { return nil }

func (c *countStore) IncrementViews(context.Context, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.incs++
	return nil
}

func (c *countStore) DecrementViews(context.Context, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decs++
	return nil
}

func (c *countStore) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.incs, c.decs
}

// startHubServer sobe o hub atrás de um servidor HTTP de verdade; a sala
// vem do query param pra não depender do roteamento do pacote http
func startHubServer(t *testing.T, store registry.Store, ownerBalance int64) (*registry.Registry, string) {
	t.Helper()
	reg := registry.New(zap.NewNop(), store)
	ledger := fakeLedger{balances: map[string]int64{"owner-1": ownerBalance}}
	hub := NewHub(zap.NewNop(), reg, ledger, 1000, func(*http.Request) bool { return true })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, r.URL.Query().Get("room"))
	}))
	t.Cleanup(srv.Close)

	return reg, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialRoom(t *testing.T, base, roomID, userID, userName string) *websocket.Conn {
	t.Helper()
	u := base + "/?room=" + roomID + "&userId=" + userID + "&userName=" + userName
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	assert.NoError(t, err)
	return conn
}

func TestServe_UnknownRoomClosedWithReason(t *testing.T) {
	_, base := startHubServer(t, &countStore{}, 5000)

	conn := dialRoom(t, base, "no-such-room", "acc-1", "alice")
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()

	var closeErr *websocket.CloseError
	if assert.ErrorAs(t, err, &closeErr) {
		assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
		assert.Equal(t, "room does not exist", closeErr.Text)
	}
}

func TestServe_AbruptDisconnectRemovesMember(t *testing.T) {
	store := &countStore{}
	reg, base := startHubServer(t, store, 5000)

	roomID, err := reg.Create(context.Background(), "owner-1", "game-1", "title")
	assert.NoError(t, err)

	conn := dialRoom(t, base, roomID, "owner-1", "alice")

	assert.Eventually(t, func() bool {
		incs, _ := store.counts()
		return incs == 1
	}, 2*time.Second, 10*time.Millisecond, "join never reached the store")

	// derruba o TCP sem handshake de fechamento
	assert.NoError(t, conn.UnderlyingConn().Close())

	assert.Eventually(t, func() bool {
		_, ok := reg.Get(roomID)
		incs, decs := store.counts()
		return !ok && incs == 1 && decs == 1
	}, 2*time.Second, 10*time.Millisecond, "member was not removed after the transport died")
}

func TestServe_ChatRelayedBetweenConnections(t *testing.T) {
	store := &countStore{}
	reg, base := startHubServer(t, store, 5000)

	roomID, err := reg.Create(context.Background(), "owner-1", "game-1", "title")
	assert.NoError(t, err)

	alice := dialRoom(t, base, roomID, "owner-1", "alice")
	defer alice.Close()
	bob := dialRoom(t, base, roomID, "acc-2", "bob")
	defer bob.Close()

	assert.Eventually(t, func() bool {
		incs, _ := store.counts()
		return incs == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.NoError(t, alice.WriteJSON(Envelope{
		UserID:   "owner-1",
		UserName: "alice",
		Type:     TypeMessage,
		Message:  "go dawgs",
	}))

	_ = bob.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env Envelope
	assert.NoError(t, bob.ReadJSON(&env))
	assert.Equal(t, TypeMessage, env.Type)
	assert.Equal(t, "go dawgs", env.Message)

	// quem mandou não recebe eco
	_ = alice.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = alice.ReadMessage()
	assert.Error(t, err)
}

func TestServe_MissingUserIDClosedWithReason(t *testing.T) {
	reg, base := startHubServer(t, &countStore{}, 5000)

	roomID, err := reg.Create(context.Background(), "owner-1", "game-1", "title")
	assert.NoError(t, err)

	u := base + "/?room=" + roomID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	assert.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()

	var closeErr *websocket.CloseError
	if assert.ErrorAs(t, err, &closeErr) {
		assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
		assert.Equal(t, "userId required", closeErr.Text)
	}
}
