package session

import (
	"net"
	"sync"

	"odin-replicator/internal/metrics"
	"odin-replicator/internal/snapshot"
)

// Client bundles everything the server tracks for one connected player:
// its reliable stream, its unreliable peer address (taken from the
// source of each accepted PLAYER_INPUT datagram), its replication
// cursor, and its input rate limiter.
type Client struct {
	ID             uint64
	ReliableConn   net.Conn
	UnreliableAddr net.Addr
	Cursor         *ClientCursor
	Limiter        *ClientLimiter
}

// Hub is the server's single-threaded client registry, deliberately
// unsharded: the tick loop visits every client once per frame anyway, so
// sharding buys nothing and only a simple map is needed. The map itself
// is guarded by mu because client registration happens on accept-loop
// goroutines while lookups happen from the single tick goroutine.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint64]*Client
	nextID  uint64
	metrics *metrics.Registry
}

func NewHub(metricsRegistry *metrics.Registry) *Hub {
	return &Hub{
		clients: make(map[uint64]*Client),
		metrics: metricsRegistry,
	}
}

// Register assigns the next player index (0-based, stable for the life
// of the connection) and adds the client to the registry.
func (h *Hub) Register(conn net.Conn, limiter *ClientLimiter) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++

	c := &Client{
		ID:           id,
		ReliableConn: conn,
		Cursor:       NewClientCursor(uint8(id)),
		Limiter:      limiter,
	}
	h.clients[id] = c
	if h.metrics != nil {
		h.metrics.ActiveClients.Set(float64(len(h.clients)))
	}
	return c
}

// Unregister removes c from the registry and closes its reliable
// connection, so callers only need to track the conn until Register.
func (h *Hub) Unregister(c *Client) {
	if c == nil {
		return
	}
	h.mu.Lock()
	delete(h.clients, c.ID)
	if h.metrics != nil {
		h.metrics.ActiveClients.Set(float64(len(h.clients)))
	}
	h.mu.Unlock()
	if c.ReliableConn != nil {
		_ = c.ReliableConn.Close()
	}
}

// BindUnreliableAddr associates a client with the address an inbound
// datagram arrived from, replacing any earlier one, so snapshots are sent
// to the client's latest address without a handshake over UDP itself.
func (h *Hub) BindUnreliableAddr(c *Client, addr net.Addr) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.UnreliableAddr = addr
}

// Range visits every registered client. The callback must not call back
// into Register/Unregister.
func (h *Hub) Range(fn func(*Client)) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		fn(c)
	}
}

// ByID looks up a client by its registry id (== player index).
func (h *Hub) ByID(id uint64) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	return c, ok
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MinAckedFrame returns the minimum LastAckedFrame across all clients
// that have acked at least one frame, used as the snapshot store's GC
// watermark (§4.E). If no client has acked yet, ok is false and the
// store must not be GC'd.
func (h *Hub) MinAckedFrame() (frame uint32, ok bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	first := true
	for _, c := range h.clients {
		if !c.Cursor.HasAcked {
			continue
		}
		if first || snapshot.FrameBefore(c.Cursor.LastAckedFrame, frame) {
			frame = c.Cursor.LastAckedFrame
			first = false
		}
	}
	return frame, !first
}
