// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Framebuffer geometry and the animation rate.
const (
	fbWidth  = 512
	fbHeight = 384

	tickInterval = time.Second / 25
)

// stagingBufSize fits the largest single packet the server produces: a
// full-screen 32-bit update plus a cursor pseudo-rectangle.
const stagingBufSize = 4 +
	12 + fbWidth*fbHeight*4 +
	12 + cursorWidth*cursorHeight*4 + 3*cursorHeight

// eventKind tags events delivered to the server loop.
type eventKind uint8

const (
	evRegister eventKind = iota
	evData
	evError
)

// event is one unit of work for the server loop: a new connection, bytes
// read from a client, or a read failure.
type event struct {
	kind eventKind
	c    *Client
	data []byte
	err  error
}

// Server owns the framebuffer, palette, game, listeners, and the ordered
// client list.
//
// All shared state is touched only by the loop goroutine inside Serve:
// per-connection goroutines do blocking reads and hand the bytes over as
// events, and the tick timer drives the game and the update scheduler on
// that same loop. Clients are serviced in the order they connected.
type Server struct {
	cfg    *Config
	logger Logger

	fb      *Image
	palette *Palette
	enc     *Encoder
	game    *Game
	history *History

	clients []*Client

	listener   net.Listener
	wsListener net.Listener
	wsServer   *http.Server

	limiter *RateLimiter

	events chan event
	quit   chan struct{}

	// packet is the reusable staging buffer every outgoing update is
	// composed in.
	packet []byte

	// tvNext is the next tick deadline, advanced by tickInterval while
	// the game is animating.
	tvNext time.Time
}

// NewServer builds a server from the given configuration and game assets.
func NewServer(cfg *Config, assets *Assets) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, configurationError("NewServer", "invalid configuration", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = NewSlogLogger(nil)
	}

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		fb:      NewImage(fbWidth, fbHeight),
		palette: NewBGR233Palette(),
		events:  make(chan event, 64),
		quit:    make(chan struct{}),
		packet:  make([]byte, 0, stagingBufSize),
	}
	s.enc = NewEncoder(s.fb, s.palette)

	if cfg.HistoryPath != "" {
		history, err := OpenHistory(cfg.HistoryPath)
		if err != nil {
			return nil, err
		}
		s.history = history
	}

	s.game = NewGame(s.fb, assets, cfg.StatsPath, s.history, logger)

	if cfg.AcceptRate > 0 {
		s.limiter = NewRateLimiter(rate.Limit(cfg.AcceptRate), cfg.AcceptBurst)
	}

	return s, nil
}

// Listen binds the configured listeners. The server is fatal-on-failure
// here: a machine nobody can reach is not worth running.
func (s *Server) Listen() error {
	if s.cfg.ListenAddr != "" {
		ln, err := net.Listen("tcp", s.cfg.ListenAddr)
		if err != nil {
			return networkError("Server.Listen", "failed to bind listen address", err)
		}
		s.listener = ln
		s.logger.Info("listening", Field{Key: "addr", Value: ln.Addr().String()})
	}

	if s.cfg.WebSocketAddr != "" {
		ln, err := net.Listen("tcp", s.cfg.WebSocketAddr)
		if err != nil {
			if s.listener != nil {
				s.listener.Close()
			}
			return networkError("Server.Listen", "failed to bind websocket address", err)
		}
		s.wsListener = ln
		s.wsServer = &http.Server{Handler: s.websocketHandler()}
		s.logger.Info("listening for websockets", Field{Key: "addr", Value: ln.Addr().String()})
	}

	return nil
}

// Addr returns the bound TCP listener address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// WebSocketAddr returns the bound WebSocket listener address, or nil.
func (s *Server) WebSocketAddr() net.Addr {
	if s.wsListener == nil {
		return nil
	}
	return s.wsListener.Addr()
}

// Run binds the listeners and serves until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve runs the event loop until the context is canceled. Listen must have
// been called first.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener != nil {
		go s.acceptLoop(s.listener)
	}
	if s.wsServer != nil {
		go func() {
			if err := s.wsServer.Serve(s.wsListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("websocket server failed", Field{Key: "error", Value: err})
			}
		}()
	}

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		// The tick timer runs only while something is animating; an
		// idle machine blocks on client traffic alone.
		var tickC <-chan time.Time
		if s.game.State() != GameWaiting {
			timer.Reset(time.Until(s.tvNext))
			tickC = timer.C
		}

		select {
		case <-ctx.Done():
			s.shutdown()
			return nil

		case ev := <-s.events:
			s.handleEvent(ev)

		case <-tickC:
			tickC = nil
			if err := s.tick(); err != nil {
				s.shutdown()
				return err
			}
		}

		if tickC != nil && !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}
}

// handleEvent dispatches one event on the loop goroutine.
func (s *Server) handleEvent(ev event) {
	switch ev.kind {
	case evRegister:
		s.clients = append(s.clients, ev.c)

	case evData:
		if ev.c.closed {
			return
		}
		if err := s.clientData(ev.c, ev.data); err != nil {
			ev.c.logger.Warn("dropping client", Field{Key: "error", Value: err})
			s.drop(ev.c)
		}

	case evError:
		if ev.c.closed {
			return
		}
		if errors.Is(ev.err, io.EOF) {
			ev.c.logger.Info("client hung up")
		} else {
			ev.c.logger.Warn("read failed", Field{Key: "error", Value: ev.err})
		}
		s.drop(ev.c)
	}
}

// tick advances the game one step and updates every client with an
// outstanding incremental request. The deadline advances first so slow
// encodes eat into the next frame rather than stretching every frame.
func (s *Server) tick() error {
	s.tvNext = time.Now().Add(tickInterval)

	if err := s.game.Step(); err != nil {
		return err
	}

	var failed []*Client
	for _, c := range s.clients {
		if !c.ready {
			continue
		}
		if err := s.sendUpdate(c, 0, 0, fbWidth, fbHeight, true); err != nil {
			c.logger.Warn("dropping client", Field{Key: "error", Value: err})
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		s.drop(c)
	}

	return nil
}

// startPlay forwards a play signal to the game and, when it takes, makes
// the first animation tick due immediately.
func (s *Server) startPlay() {
	if s.game.StartPlay() {
		s.tvNext = time.Now()
	}
}

// drop disposes of one client: close the socket, forget the state. The
// reader goroutine unblocks with an error event that drop ignores via the
// closed flag.
func (s *Server) drop(c *Client) {
	if c.closed {
		return
	}
	c.closed = true
	c.logger.Info("client disconnected", Field{Key: "bytes_sent", Value: c.bytesSent})
	c.conn.Close()
	for i, cc := range s.clients {
		if cc == c {
			s.clients = append(s.clients[:i], s.clients[i+1:]...)
			break
		}
	}
}

// acceptLoop accepts connections on l until the listener closes.
func (s *Server) acceptLoop(l net.Listener) {
	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-s.quit:
			default:
				s.logger.Error("accept failed", Field{Key: "error", Value: err})
			}
			return
		}

		if s.limiter != nil && !s.limiter.Allow(addrIP(conn.RemoteAddr())) {
			s.logger.Warn("connection rate limited",
				Field{Key: "remote", Value: conn.RemoteAddr().String()})
			conn.Close()
			continue
		}

		s.startConn(conn)
	}
}

// startConn sends the protocol banner, registers the client with the loop,
// and starts its reader goroutine. A connection that cannot even take the
// banner is discarded before any state is allocated.
func (s *Server) startConn(conn net.Conn) {
	if _, err := conn.Write(protocolVersion); err != nil {
		conn.Close()
		return
	}

	c := newClient(conn, s.logger)
	c.logger.Info("client connected")

	select {
	case s.events <- event{kind: evRegister, c: c}:
	case <-s.quit:
		conn.Close()
		return
	}

	go s.readLoop(c)
}

// readLoop is the only code that reads a client's socket. It forwards raw
// bytes to the loop goroutine and exits on the first read failure.
func (s *Server) readLoop(c *Client) {
	buf := make([]byte, 512)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case s.events <- event{kind: evData, c: c, data: data}:
			case <-s.quit:
				return
			}
		}
		if err != nil {
			select {
			case s.events <- event{kind: evError, c: c, err: err}:
			case <-s.quit:
			}
			return
		}
	}
}

// shutdown closes the listeners and every client.
func (s *Server) shutdown() {
	close(s.quit)

	if s.listener != nil {
		s.listener.Close()
	}
	if s.wsServer != nil {
		s.wsServer.Close()
	}

	for _, c := range s.clients {
		c.closed = true
		c.conn.Close()
	}
	s.clients = nil

	if s.history != nil {
		if err := s.history.Close(); err != nil {
			s.logger.Error("failed to close history", Field{Key: "error", Value: err})
		}
	}
}
