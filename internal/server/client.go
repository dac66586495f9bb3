package server

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"odin-replicator/internal/config"
	"odin-replicator/internal/metrics"
	"odin-replicator/internal/reconciler"
	"odin-replicator/internal/scene"
	"odin-replicator/internal/session"
	"odin-replicator/internal/snapshot"
	"odin-replicator/internal/transport"
	"odin-replicator/internal/wire"
)

// Client runs the receiving side: bootstraps over the reliable
// connection, then exchanges unreliable snapshot/ack traffic and
// reconciles every received datagram into the local scene.
type Client struct {
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *metrics.Registry
	scene   scene.Adapter
	codec   wire.CodecConfig

	conn          net.Conn
	unreliable    *transport.UnreliableConn
	serverAddr    net.Addr
	playerIndex   uint8
	lastFrame     uint32
	inputSequence uint32

	recon *reconciler.Reconciler
	stop  chan struct{}
}

func NewClient(cfg *config.Config, logger zerolog.Logger, metricsRegistry *metrics.Registry, sceneAdapter scene.Adapter) *Client {
	return &Client{
		cfg:     cfg,
		logger:  logger.With().Str("role", "client").Logger(),
		metrics: metricsRegistry,
		scene:   sceneAdapter,
		codec:   wire.DefaultCodecConfig,
		stop:    make(chan struct{}),
	}
}

func (c *Client) Start(ctx context.Context) error {
	conn, err := transport.DialReliable(c.cfg.ServerReliableAddr)
	if err != nil {
		return fmt.Errorf("client: dial reliable: %w", err)
	}
	c.conn = conn

	reader := transport.NewReliableReader(conn)
	payload, err := reader.ReadFrame()
	if err != nil {
		return fmt.Errorf("client: read bootstrap frame: %w", err)
	}
	init, err := session.ParseInitPacket(payload, 0, c.codec)
	if err != nil {
		return fmt.Errorf("client: parse bootstrap: %w", err)
	}
	c.playerIndex = init.PlayerIndex
	c.lastFrame = init.Frame

	c.recon = reconciler.New(c.scene, c.codec, reconciler.Precache{
		Sounds:     init.Tables.Sounds,
		Models:     init.Tables.Models,
		Animations: init.Tables.Animations,
		Particles:  init.Tables.Particles,
	}, c.cfg.SmoothingWindow, float32(c.cfg.SmoothingEpsilon), c.logger.With().Str("component", "reconciler").Logger(), c.metrics)
	c.recon.ApplyInitialDeltas(init.Frame, init.Deltas)

	u, err := transport.ListenUnreliable(fmt.Sprintf("%s:0", c.cfg.UnreliableHost))
	if err != nil {
		return fmt.Errorf("client: listen unreliable: %w", err)
	}
	c.unreliable = u

	serverAddr, err := net.ResolveUDPAddr("udp", c.cfg.ServerUnreliableAddr)
	if err != nil {
		return fmt.Errorf("client: resolve server unreliable addr: %w", err)
	}
	c.serverAddr = serverAddr

	go c.readLoop(ctx)
	go c.tickLoop(ctx)
	return nil
}

func (c *Client) Stop() {
	close(c.stop)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	if c.unreliable != nil {
		_ = c.unreliable.Close()
	}
}

// readLoop drains reliable frames purely to detect server disconnects;
// no further reliable messages are defined past bootstrap.
func (c *Client) readLoop(ctx context.Context) {
	reader := transport.NewReliableReader(c.conn)
	for {
		if _, err := reader.ReadFrame(); err != nil {
			c.logger.Info().Err(err).Msg("server connection closed")
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (c *Client) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.TickRate)
	defer ticker.Stop()
	dt := c.cfg.TickRate.Seconds()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case <-ticker.C:
			c.sendHere()
			c.sendInput()
			c.unreliable.Poll(c.handleDatagram)
			c.recon.Tick(dt)
		}
	}
}

// sendHere sends the anonymous 1-byte UDP-HERE liveness probe (§4.G step
// 2, §6): type only, no player_index or ack. It carries no identifying
// data, so it cannot bind this client's address on the server; that
// happens on the first PLAYER_INPUT instead (sendInput).
func (c *Client) sendHere() {
	buf := []byte{session.PacketUDPHere}
	if err := c.unreliable.Send(c.serverAddr, buf); err != nil {
		c.logger.Debug().Err(err).Msg("udp_here send failed")
	}
}

// sendInput sends a PLAYER_INPUT packet: type, player_index,
// input_sequence (u32), last_acked_frame (u24), position, orientation
// (§4.G). Position/orientation are application-specific and left zeroed
// here; a host embedding this package supplies its own player transform.
func (c *Client) sendInput() {
	c.inputSequence++
	buf := make([]byte, 0, 33)
	buf = append(buf, session.PacketPlayerInput, c.playerIndex)
	buf = append(buf, byte(c.inputSequence), byte(c.inputSequence>>8), byte(c.inputSequence>>16), byte(c.inputSequence>>24))
	buf = append(buf, byte(c.lastFrame), byte(c.lastFrame>>8), byte(c.lastFrame>>16))
	buf = append(buf, make([]byte, 24)...) // position (3*f32) + orientation (3*f32), zeroed
	if err := c.unreliable.Send(c.serverAddr, buf); err != nil {
		c.logger.Debug().Err(err).Msg("player_input send failed")
	}
}

func (c *Client) handleDatagram(addr net.Addr, payload []byte) {
	if len(payload) < 1 || payload[0] != session.PacketSnapshot {
		return
	}
	frame, err := c.recon.ApplyDatagram(payload[1:])
	if err != nil {
		c.logger.Debug().Err(err).Msg("decode error, dropping datagram")
		return
	}
	if snapshot.FrameAfter(frame, c.lastFrame) {
		c.lastFrame = frame
	}
}
