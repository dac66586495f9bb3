// Package server wires internal/transport, internal/session,
// internal/replicator, and internal/reconciler into the two runnable
// roles REPLICATOR_ROLE selects between. It is the host-facing
// composition layer — everything below it is usable independently of
// this wiring.
package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"odin-replicator/internal/config"
	"odin-replicator/internal/metrics"
	"odin-replicator/internal/replicator"
	"odin-replicator/internal/scene"
	"odin-replicator/internal/session"
	"odin-replicator/internal/snapshot"
	"odin-replicator/internal/transport"
	"odin-replicator/internal/wire"
)

// Server runs the authoritative side: accepts reliable connections,
// handshakes each client, and drives the tick loop.
type Server struct {
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *metrics.Registry
	codec   wire.CodecConfig
	tables  session.PrecacheTables

	store *snapshot.Store
	hub   *session.Hub
	repl  *replicator.Replicator

	reliable   *transport.ReliableListener
	unreliable *transport.UnreliableConn

	frame    uint32
	tickStop chan struct{}
}

func NewServer(cfg *config.Config, logger zerolog.Logger, metricsRegistry *metrics.Registry, sceneAdapter scene.Adapter) *Server {
	codec := wire.DefaultCodecConfig
	store := snapshot.NewStore()
	hub := session.NewHub(metricsRegistry)
	return &Server{
		cfg:     cfg,
		logger:  logger.With().Str("role", "server").Logger(),
		metrics: metricsRegistry,
		codec:   codec,
		tables: session.PrecacheTables{
			Sounds:     cfg.PrecacheSounds,
			Models:     cfg.PrecacheModels,
			Animations: cfg.PrecacheAnimations,
			Particles:  cfg.PrecacheParticles,
		},
		store:    store,
		hub:      hub,
		repl:     replicator.New(store, hub, sceneAdapter, codec, cfg.MaxDatagramBytes, logger.With().Str("component", "replicator").Logger(), metricsRegistry),
		tickStop: make(chan struct{}),
	}
}

func (s *Server) Start(ctx context.Context) error {
	reliableAddr := fmt.Sprintf("%s:%d", s.cfg.ReliableHost, s.cfg.ReliablePort)
	s.reliable = transport.NewReliableListener(s.logger)
	if err := s.reliable.Start(ctx, reliableAddr, s.onAccept); err != nil {
		return fmt.Errorf("server: start reliable listener: %w", err)
	}

	unreliableAddr := fmt.Sprintf("%s:%d", s.cfg.UnreliableHost, s.cfg.UnreliablePort)
	u, err := transport.ListenUnreliable(unreliableAddr)
	if err != nil {
		return fmt.Errorf("server: listen unreliable: %w", err)
	}
	s.unreliable = u

	go s.tickLoop(ctx)
	return nil
}

func (s *Server) Stop() {
	close(s.tickStop)
	if s.reliable != nil {
		s.reliable.Stop()
	}
	if s.unreliable != nil {
		_ = s.unreliable.Close()
	}
}

func (s *Server) onAccept(ctx context.Context, conn net.Conn) {
	if s.hub.Count() >= s.cfg.MaxClients {
		s.logger.Warn().Msg("rejecting connection: max clients reached")
		_ = conn.Close()
		return
	}

	limiter := session.NewClientLimiter(s.cfg.InputRateLimitPerSec, s.cfg.InputRateBurst)
	client := s.hub.Register(conn, limiter)
	s.logger.Info().Uint64("client", client.ID).Str("remote", conn.RemoteAddr().String()).Msg("client connected")

	snap := s.store.Latest()
	if snap == nil {
		snap = &snapshot.Snapshot{Frame: s.frame}
	}
	payload := session.BuildInitPacket(uint8(client.ID), s.tables, snap, client.Cursor.InGameObjectID, s.codec, nil)
	if err := transport.WriteReliableFrame(conn, payload); err != nil {
		s.logger.Warn().Err(err).Uint64("client", client.ID).Msg("bootstrap write failed")
		s.hub.Unregister(client)
		return
	}
	client.Cursor.ReadyForGame = true

	reader := transport.NewReliableReader(conn)
	for {
		if _, err := reader.ReadFrame(); err != nil {
			s.logger.Info().Uint64("client", client.ID).Err(err).Msg("client disconnected")
			s.hub.Unregister(client)
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (s *Server) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.tickStop:
			return
		case <-ticker.C:
			s.unreliable.Poll(s.handleDatagram)
			start := time.Now()
			s.frame = (s.frame + 1) & (snapshot.FrameMask - 1)
			s.repl.Tick(s.frame, nil, s.unreliable)
			if s.metrics != nil {
				s.metrics.TickDuration.Observe(time.Since(start).Seconds())
			}
		}
	}
}

// playerInputHeaderLen covers PLAYER_INPUT's type, player_index,
// input_sequence (u32) and last_acked_frame (u24); position/orientation
// follow but are game-specific and not read here (§4.G).
const playerInputHeaderLen = 1 + 1 + 4 + 3

func (s *Server) handleDatagram(addr net.Addr, payload []byte) {
	if len(payload) < 1 {
		return
	}
	switch payload[0] {
	case session.PacketUDPHere:
		// Anonymous liveness/NAT-punch probe (1 byte, type only, §4.G step
		// 2): it carries no player_index, so it cannot bind an address by
		// itself. Binding happens on the first PLAYER_INPUT below.
	case session.PacketPlayerInput:
		if len(payload) < playerInputHeaderLen {
			return
		}
		playerIndex := payload[1]
		client, ok := s.hub.ByID(uint64(playerIndex))
		if !ok {
			return
		}
		if !client.Limiter.AllowInput() {
			return
		}
		s.hub.BindUnreliableAddr(client, addr)

		seq := uint32(payload[2]) | uint32(payload[3])<<8 | uint32(payload[4])<<16 | uint32(payload[5])<<24
		client.Cursor.AdvanceInput(seq)

		frame := uint32(payload[6]) | uint32(payload[7])<<8 | uint32(payload[8])<<16
		client.Cursor.AdvanceAck(frame)

		// Position/orientation (3*f32 each) follow the header; interpreting
		// them is game-specific and lives above this package.
	}
}
