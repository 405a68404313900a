package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrRoomNotFound = errors.New("room not found")

// Store persiste as linhas de sala e o contador de views
type Store interface {
	Insert(ctx context.Context, id, ownerID, gameID, title string) error
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	DecrementViews(ctx context.Context, id string) error
}

// memberBuffer limita o backlog de envio por conexão; quadro é descartado
// quando o buffer enche, pra conexão lenta não travar join/leave dos outros
const memberBuffer = 32

// Member é a ponta de uma conexão dentro de uma sala.
// Out é drenado pela goroutine de escrita do WebSocket.
type Member struct {
	AccountID string
	Name      string
	Out       chan []byte
	once      sync.Once
}

func NewMember(accountID, name string) *Member {
	return &Member{
		AccountID: accountID,
		Name:      name,
		Out:       make(chan []byte, memberBuffer),
	}
}

// Close fecha o canal de saída uma única vez; o writer interpreta como
// encerramento da conexão
func (m *Member) Close() {
	m.once.Do(func() { close(m.Out) })
}

func (m *Member) deliver(b []byte) {
	select {
	case m.Out <- b:
	default: // buffer cheio: descarta em vez de bloquear a sala
	}
}

// Room é uma sala ativa com seu conjunto de conexões em memória
type Room struct {
	ID      string
	OwnerID string
	GameID  string
	Title   string

	mu      sync.RWMutex
	members map[*Member]struct{}
	closed  bool
}

// Broadcast entrega o payload a todos os membros, exceto exclude (se não nil)
func (r *Room) Broadcast(payload []byte, exclude *Member) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for m := range r.members {
		if m != exclude {
			m.deliver(payload)
		}
	}
}

// Registry é o diretório das salas ativas do processo.
// Injetado explicitamente em quem precisa; sem estado global.
type Registry struct {
	log   *zap.Logger
	store Store

	mu    sync.RWMutex
	rooms map[string]*Room
}

func New(log *zap.Logger, store Store) *Registry {
	return &Registry{
		log:   log,
		store: store,
		rooms: make(map[string]*Room),
	}
}

// Create persiste a sala e a ativa em memória
func (g *Registry) Create(ctx context.Context, ownerID, gameID, title string) (string, error) {
	id := uuid.NewString()
	if err := g.store.Insert(ctx, id, ownerID, gameID, title); err != nil {
		return "", err
	}

	room := &Room{
		ID:      id,
		OwnerID: ownerID,
		GameID:  gameID,
		Title:   title,
		members: make(map[*Member]struct{}),
	}

	g.mu.Lock()
	g.rooms[id] = room
	g.mu.Unlock()

	return id, nil
}

func (g *Registry) Get(roomID string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[roomID]
	return room, ok
}

// Join adiciona o membro à sala e incrementa o view_count persistido
func (g *Registry) Join(ctx context.Context, roomID string, m *Member) error {
	room, ok := g.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	if room.closed {
		room.mu.Unlock()
		return ErrRoomNotFound
	}
	room.members[m] = struct{}{}
	room.mu.Unlock()

	// O contador persistido é secundário; a membership em memória manda
	if err := g.store.IncrementViews(ctx, roomID); err != nil {
		g.log.Warn("increment views", zap.String("roomId", roomID), zap.Error(err))
	}
	return nil
}

// Leave remove o membro; a sala esvaziada fecha e sua linha é apagada
// (vida da sala atrelada a "tem alguém assistindo")
func (g *Registry) Leave(ctx context.Context, roomID string, m *Member) {
	room, ok := g.Get(roomID)
	if !ok {
		// sala já foi encerrada à força; só garante o fim do writer
		m.Close()
		return
	}

	room.mu.Lock()
	delete(room.members, m)
	emptied := len(room.members) == 0 && !room.closed
	if emptied {
		room.closed = true
	}
	room.mu.Unlock()

	m.Close()

	if err := g.store.DecrementViews(ctx, roomID); err != nil {
		g.log.Warn("decrement views", zap.String("roomId", roomID), zap.Error(err))
	}

	if emptied {
		g.mu.Lock()
		delete(g.rooms, roomID)
		g.mu.Unlock()

		if err := g.store.Delete(ctx, roomID); err != nil {
			g.log.Warn("delete empty room", zap.String("roomId", roomID), zap.Error(err))
		}
	}
}

// Delete encerra a sala à força: desconecta todo mundo e apaga a linha.
// Idempotente: repetir para sala inexistente só reexecuta o delete no banco.
func (g *Registry) Delete(ctx context.Context, roomID string) error {
	g.mu.Lock()
	room := g.rooms[roomID]
	delete(g.rooms, roomID)
	g.mu.Unlock()

	if room != nil {
		room.mu.Lock()
		room.closed = true
		members := make([]*Member, 0, len(room.members))
		for m := range room.members {
			members = append(members, m)
		}
		room.members = make(map[*Member]struct{})
		room.mu.Unlock()

		for _, m := range members {
			m.Close()
		}
	}

	return g.store.Delete(ctx, roomID)
}

// BroadcastAll entrega o payload a todas as salas ativas
func (g *Registry) BroadcastAll(payload []byte) {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	for _, r := range rooms {
		r.Broadcast(payload, nil)
	}
}
