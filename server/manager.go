package server

import (
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"arenagame/config"
	"arenagame/room"
	"arenagame/world"
)

const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// managedRoom ties a running room to its hub.
type managedRoom struct {
	room *room.Room
	hub  *Hub
}

// Manager owns the room registry: it routes joining players into a waiting
// room, spins up new rooms when none has space, and reaps rooms once the
// last player leaves.
type Manager struct {
	cfg *config.Config

	mu    sync.Mutex
	rooms map[string]*managedRoom
	rng   *rand.Rand
}

func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		cfg:   cfg,
		rooms: make(map[string]*managedRoom),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Join places the player in a room. The subscriber is registered with the
// room's hub before the join is posted, so no broadcast window is missed;
// a rejected attempt unregisters and moves on. Creating a fresh room is the
// fallback and cannot be rejected.
func (m *Manager) Join(playerID, name, character string, sub *subscriber) (*room.Room, *Hub, world.Welcome, error) {
	for _, mr := range m.snapshot() {
		welcome, ok := m.tryJoin(mr, playerID, name, character, sub)
		if ok {
			return mr.room, mr.hub, welcome, nil
		}
	}

	mr := m.createRoom()
	welcome, ok := m.tryJoin(mr, playerID, name, character, sub)
	if !ok {
		return nil, nil, world.Welcome{}, errors.New("join rejected by fresh room")
	}
	return mr.room, mr.hub, welcome, nil
}

func (m *Manager) tryJoin(mr *managedRoom, playerID, name, character string, sub *subscriber) (world.Welcome, bool) {
	mr.hub.register(playerID, sub)

	reply := make(chan room.JoinResult, 1)
	join := room.Join{PlayerID: playerID, Name: name, Character: character, Reply: reply}

	// The room may have been reaped between snapshot and here; treat an
	// unresponsive room as a rejection instead of hanging the handshake.
	var result room.JoinResult
	select {
	case mr.room.Inbox <- join:
		select {
		case result = <-reply:
		case <-time.After(2 * time.Second):
		}
	case <-time.After(2 * time.Second):
	}

	if !result.OK {
		mr.hub.unregister(playerID)
		return world.Welcome{}, false
	}
	return result.Welcome, true
}

func (m *Manager) createRoom() *managedRoom {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := m.newCodeLocked()
	hub := NewHub()
	r := room.New(m.cfg, hub, time.Now().UnixNano())
	r.Code = code
	r.OnEmpty = m.removeRoom

	mr := &managedRoom{room: r, hub: hub}
	m.rooms[code] = mr
	go r.Run()

	log.Printf("room %s: created", code)
	return mr
}

func (m *Manager) newCodeLocked() string {
	for {
		code := make([]byte, 5)
		for i := range code {
			code[i] = roomCodeAlphabet[m.rng.Intn(len(roomCodeAlphabet))]
		}
		if _, taken := m.rooms[string(code)]; !taken {
			return string(code)
		}
	}
}

// removeRoom is called by the room itself, on its own goroutine, when the
// last player leaves.
func (m *Manager) removeRoom(code string) {
	m.mu.Lock()
	mr, ok := m.rooms[code]
	delete(m.rooms, code)
	m.mu.Unlock()

	if ok {
		mr.room.Stop()
		log.Printf("room %s: removed", code)
	}
}

// Info collects a status snapshot from every live room. Each room answers
// on its own goroutine, so the counts are consistent per room.
func (m *Manager) Info() []room.Info {
	infos := make([]room.Info, 0)
	for _, mr := range m.snapshot() {
		reply := make(chan room.Info, 1)
		select {
		case mr.room.Inbox <- room.InfoRequest{Reply: reply}:
			infos = append(infos, <-reply)
		default:
			// Inbox full; skip rather than stall the listing.
		}
	}
	return infos
}

func (m *Manager) snapshot() []*managedRoom {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*managedRoom, 0, len(m.rooms))
	for _, mr := range m.rooms {
		out = append(out, mr)
	}
	return out
}

// Shutdown stops every room.
func (m *Manager) Shutdown() {
	for _, mr := range m.snapshot() {
		mr.room.Stop()
	}
}
