package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/segmentio/ksuid"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"arenagame/config"
	"arenagame/room"
	"arenagame/world"
)

const joinTimeout = 10 * time.Second

// Server accepts websocket connections, performs the join handshake, and
// shuttles frames between each connection and its room.
type Server struct {
	cfg     *config.Config
	manager *Manager
	mux     http.ServeMux
}

func New(cfg *config.Config) *Server {
	s := &Server{
		cfg:     cfg,
		manager: NewManager(cfg),
	}
	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("/rooms", s.handleRooms)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run serves until ctx is canceled, then shuts down the listener and every
// room.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Net.Address)
	if err != nil {
		return err
	}
	log.Printf("listening on %s", listener.Addr())

	httpServer := &http.Server{
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.manager.Shutdown()
	return httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.manager.Info()); err != nil {
		log.Printf("rooms listing: %v", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.Net.OriginPatterns,
	})
	if err != nil {
		log.Printf("accept: %v", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	if err := s.serveConnection(r.Context(), conn); err != nil {
		status := websocket.CloseStatus(err)
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			return
		}
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Printf("connection: %v", err)
	}
}

// serveConnection runs one player's session: handshake, then a writer
// draining the hub queue and a reader feeding the room inbox, until either
// side fails.
func (s *Server) serveConnection(ctx context.Context, conn *websocket.Conn) error {
	joinCtx, cancelJoin := context.WithTimeout(ctx, joinTimeout)
	req, err := readJoin(joinCtx, conn)
	cancelJoin()
	if err != nil {
		conn.Close(websocket.StatusPolicyViolation, "join required")
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	playerID := ksuid.New().String()
	sub := newSubscriber(func() {
		conn.Close(websocket.StatusPolicyViolation, "too slow to keep up")
		cancel()
	})

	gameRoom, hub, welcome, err := s.manager.Join(playerID, req.Name, req.Character, sub)
	if err != nil {
		conn.Close(websocket.StatusTryAgainLater, "no room available")
		return err
	}
	defer func() {
		// A stopped room no longer drains its inbox; do not hang teardown
		// on it.
		select {
		case gameRoom.Inbox <- room.Leave{PlayerID: playerID}:
		case <-time.After(time.Second):
		}
		hub.unregister(playerID)
	}()

	go s.writeLoop(ctx, conn, sub)
	hub.Send(playerID, world.MustFrame(world.MsgWelcome, welcome))

	return s.readLoop(ctx, conn, gameRoom, playerID)
}

func readJoin(ctx context.Context, conn *websocket.Conn) (world.JoinRequest, error) {
	var frame world.Frame
	if err := wsjson.Read(ctx, conn, &frame); err != nil {
		return world.JoinRequest{}, err
	}
	if frame.Type != world.MsgJoin {
		return world.JoinRequest{}, errors.New("first frame must be a join")
	}
	var req world.JoinRequest
	if err := frame.Decode(&req); err != nil {
		return world.JoinRequest{}, err
	}
	return req, nil
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, sub *subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-sub.frames:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, frame)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// readLoop forwards client frames to the room. Input frames are rate
// limited per connection; excess ones are dropped silently since the next
// one supersedes them anyway.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, gameRoom *room.Room, playerID string) error {
	limiter := rate.NewLimiter(rate.Limit(s.cfg.Net.InputRateLimit), s.cfg.Net.InputRateBurst)

	for {
		var frame world.Frame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return err
		}
		if frame.Type == world.MsgJoin {
			continue
		}
		if frame.Type == world.MsgInput && !limiter.Allow() {
			continue
		}
		select {
		case gameRoom.Inbox <- room.ClientFrame{PlayerID: playerID, Frame: frame}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
