package session

import "golang.org/x/time/rate"

// ClientLimiter token-buckets a single client's PLAYER_INPUT packets,
// scoped per already-identified client rather than per-IP, since a client
// here is a long-lived game session, not an anonymous connection attempt.
// UDP_HERE probes carry no player index and are not limited.
type ClientLimiter struct {
	input *rate.Limiter
}

// NewClientLimiter builds a limiter allowing ratePerSec sustained packets
// with the given burst allowance.
func NewClientLimiter(ratePerSec float64, burst int) *ClientLimiter {
	return &ClientLimiter{
		input: rate.NewLimiter(rate.Limit(ratePerSec), burst),
	}
}

// AllowInput reports whether the next PLAYER_INPUT packet from this
// client should be processed. Packets beyond the budget are
// dropped silently (§7: excess input is not an error, just discarded).
func (l *ClientLimiter) AllowInput() bool {
	return l.input.Allow()
}
