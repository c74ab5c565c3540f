package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"arenagame/config"
	"arenagame/room"
	"arenagame/world"
)

func TestHubBroadcastAndSend(t *testing.T) {
	hub := NewHub()
	a := newSubscriber(func() {})
	b := newSubscriber(func() {})
	hub.register("a", a)
	hub.register("b", b)

	hub.Broadcast(world.MustFrame("test", nil))
	hub.Send("a", world.MustFrame("direct", nil))

	if len(a.frames) != 2 {
		t.Fatalf(`a queued %d frames, want 2`, len(a.frames))
	}
	if len(b.frames) != 1 {
		t.Fatalf(`b queued %d frames, want 1`, len(b.frames))
	}

	hub.unregister("b")
	hub.Broadcast(world.MustFrame("test", nil))
	if len(b.frames) != 1 {
		t.Fatal("unregistered subscriber still receiving")
	}
}

func TestHubClosesSlowSubscriber(t *testing.T) {
	hub := NewHub()
	closed := false
	sub := newSubscriber(func() { closed = true })
	hub.register("slow", sub)

	for i := 0; i <= subscriberBuffer; i++ {
		hub.Broadcast(world.MustFrame("test", nil))
	}

	if !closed {
		t.Fatal("overflowing subscriber was not closed")
	}
}

func TestManagerRoutesIntoOneRoom(t *testing.T) {
	cfg := config.Default()
	m := NewManager(cfg)
	defer m.Shutdown()

	r1, _, w1, err := m.Join("p1", "Alice", "assault", newSubscriber(func() {}))
	if err != nil {
		t.Fatalf(`first join: %v`, err)
	}
	r2, _, _, err := m.Join("p2", "Bob", "tank", newSubscriber(func() {}))
	if err != nil {
		t.Fatalf(`second join: %v`, err)
	}

	if r1 != r2 {
		t.Fatal("two joining players should share the waiting room")
	}
	if w1.PlayerID != "p1" {
		t.Fatalf(`welcome player id = %q, want p1`, w1.PlayerID)
	}
}

func dialTestServer(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf(`dial: %v`, err)
	}
	return conn
}

func TestJoinHandshake(t *testing.T) {
	cfg := config.Default()
	s := New(cfg)
	ts := httptest.NewServer(s)
	defer ts.Close()
	defer s.manager.Shutdown()

	conn := dialTestServer(t, ts)
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	join := world.MustFrame(world.MsgJoin, world.JoinRequest{Name: "Alice", Character: "assault"})
	if err := wsjson.Write(ctx, conn, join); err != nil {
		t.Fatalf(`send join: %v`, err)
	}

	// State broadcasts may interleave; scan until the welcome arrives.
	var welcome world.Welcome
	for {
		var frame world.Frame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf(`read: %v`, err)
		}
		if frame.Type != world.MsgWelcome {
			continue
		}
		if err := frame.Decode(&welcome); err != nil {
			t.Fatalf(`decode welcome: %v`, err)
		}
		break
	}

	if welcome.PlayerID == "" {
		t.Fatal("welcome carries no player id")
	}
	if welcome.MapWidth != cfg.Game.MapWidth || welcome.TickRate != cfg.Game.TickRate {
		t.Fatalf(`welcome tunables = %+v, want the server config values`, welcome)
	}
}

func TestFirstFrameMustBeJoin(t *testing.T) {
	cfg := config.Default()
	s := New(cfg)
	ts := httptest.NewServer(s)
	defer ts.Close()
	defer s.manager.Shutdown()

	conn := dialTestServer(t, ts)
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	input := world.MustFrame(world.MsgInput, world.InputMessage{Dx: 1})
	if err := wsjson.Write(ctx, conn, input); err != nil {
		t.Fatalf(`send input: %v`, err)
	}

	var frame world.Frame
	if err := wsjson.Read(ctx, conn, &frame); err == nil {
		t.Fatal("connection should be closed before any frame is sent")
	}
}

func TestRoomsEndpoint(t *testing.T) {
	cfg := config.Default()
	s := New(cfg)
	ts := httptest.NewServer(s)
	defer ts.Close()
	defer s.manager.Shutdown()

	if _, _, _, err := s.manager.Join("p1", "Alice", "assault", newSubscriber(func() {})); err != nil {
		t.Fatalf(`join: %v`, err)
	}

	resp, err := http.Get(ts.URL + "/rooms")
	if err != nil {
		t.Fatalf(`get rooms: %v`, err)
	}
	defer resp.Body.Close()

	var infos []room.Info
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		t.Fatalf(`decode listing: %v`, err)
	}
	if len(infos) != 1 {
		t.Fatalf(`listed %d rooms, want 1`, len(infos))
	}
	if infos[0].Players != 1 || !infos[0].Joinable {
		t.Fatalf(`room info = %+v, want 1 joinable player`, infos[0])
	}
}
