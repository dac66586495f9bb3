package session

// Unreliable (UDP) packet type tags, §4.G/§6. The first byte of every
// unreliable datagram is one of these.
const (
	PacketUDPHere     byte = 0 // client -> server: "I'm still here", carries no input
	PacketPlayerInput byte = 1 // client -> server: input sample for this tick
	PacketSnapshot    byte = 2 // server -> client: per-frame object deltas
)

// Reliable (TCP) packet type tags.
const (
	PacketInitiatingAck byte = 0 // client -> server: bootstrap acknowledgement; not sent by this module (the init packet itself carries no type byte)
)
