package client

import (
	"context"
	"fmt"
	"log"

	"arenagame/world"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Session is one connection to the arena server. Incoming frames are read
// on a background goroutine into a buffered channel; the game drains that
// channel from its own update callback, so all game-state mutation stays on
// the frame loop.
type Session struct {
	Welcome world.Welcome

	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc
	frames chan world.Frame
}

// Dial connects, joins, and waits for the server's welcome. ctx bounds the
// handshake only; the session itself lives until Close, so callers are free
// to release a dial timeout as soon as Dial returns.
func Dial(ctx context.Context, url string, join world.JoinRequest) (*Session, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		conn:   conn,
		ctx:    sessionCtx,
		cancel: cancel,
		frames: make(chan world.Frame, 1024),
	}

	joinFrame, err := world.NewFrame(world.MsgJoin, join)
	if err != nil {
		s.Close()
		return nil, err
	}
	if err := wsjson.Write(ctx, conn, joinFrame); err != nil {
		s.Close()
		return nil, err
	}

	// State broadcasts can precede the welcome; scan until it arrives.
	for {
		var frame world.Frame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			s.Close()
			return nil, fmt.Errorf("waiting for welcome: %w", err)
		}
		if frame.Type != world.MsgWelcome {
			continue
		}
		if err := frame.Decode(&s.Welcome); err != nil {
			s.Close()
			return nil, err
		}
		break
	}

	go s.readLoop()
	return s, nil
}

func (s *Session) readLoop() {
	defer close(s.frames)
	for {
		var frame world.Frame
		if err := wsjson.Read(s.ctx, s.conn, &frame); err != nil {
			if s.ctx.Err() == nil {
				log.Printf("read: %v", err)
			}
			return
		}
		select {
		case s.frames <- frame:
		default:
			// The game loop has stalled badly; dropping a frame beats
			// blocking the reader. The next state broadcast catches us up.
		}
	}
}

// Frames is the incoming message stream. Closed when the connection dies.
func (s *Session) Frames() <-chan world.Frame {
	return s.frames
}

// Send writes one frame. Called from the game loop only.
func (s *Session) Send(frame world.Frame) error {
	return wsjson.Write(s.ctx, s.conn, frame)
}

func (s *Session) Close() {
	s.cancel()
	s.conn.Close(websocket.StatusNormalClosure, "bye")
}
