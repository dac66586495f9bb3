package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// ReliableListener accepts TCP connections and hands each to onAccept.
// The reliable channel is a raw length-prefixed stream, not an HTTP
// upgrade target, so there is no WebSocket handshake here.
type ReliableListener struct {
	logger   zerolog.Logger
	listener net.Listener
	wg       sync.WaitGroup
}

func NewReliableListener(logger zerolog.Logger) *ReliableListener {
	return &ReliableListener{logger: logger}
}

func (s *ReliableListener) Start(ctx context.Context, addr string, onAccept func(context.Context, net.Conn)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("transport: listen %s: %w", addr, err)
	}
	s.listener = ln
	s.logger.Info().Str("addr", addr).Msg("reliable listener started")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx, onAccept)
	}()
	return nil
}

func (s *ReliableListener) acceptLoop(ctx context.Context, onAccept func(context.Context, net.Conn)) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Msg("accept error")
			return
		}
		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			onAccept(ctx, c)
		}(conn)
	}
}

func (s *ReliableListener) Stop() {
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
}

// DialReliable opens the client's reliable connection to the server.
func DialReliable(addr string) (net.Conn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	return conn, nil
}
