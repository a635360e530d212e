package dhcpclient

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

const (
	// initialRetransmitInterval is the first retransmit window (§4.3).
	initialRetransmitInterval = 4 * time.Second
	// maxRetransmitInterval caps the doubling retransmit backoff.
	maxRetransmitInterval = 64 * time.Second

	// initialNakBackoff is the first NAK backoff value.
	initialNakBackoff = 1 * time.Second
	// maxNakBackoff caps the doubling NAK backoff.
	maxNakBackoff = 60 * time.Second
)

// jitter draws a uniform value in [-1, +1] seconds from a cryptographically
// strong source, per §4.3's retransmission jitter rule.
func jitter() time.Duration {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	// Map the 64-bit draw onto [-1000, 1000] milliseconds.
	v := binary.BigEndian.Uint64(buf[:])
	ms := int64(v%2001) - 1000
	return time.Duration(ms) * time.Millisecond
}

// NextRetransmitBounded doubles cur up to max, or returns initial when cur
// is zero (first attempt). Per-interface retransmit tuning (config.If's
// InitialInterval/MaxInterval) overrides the package defaults through this
// entry point; NextRetransmit below is the fixed-bound convenience used by
// the invariant tests in §8.
func NextRetransmitBounded(cur, initial, max time.Duration) time.Duration {
	if cur <= 0 {
		return initial
	}
	next := cur * 2
	if next > max {
		next = max
	}
	return next
}

// NextRetransmit doubles cur up to maxRetransmitInterval, or returns the
// initial interval when cur is zero (first attempt). Callers arm the timer
// for the returned interval plus jitter().
func NextRetransmit(cur time.Duration) time.Duration {
	return NextRetransmitBounded(cur, initialRetransmitInterval, maxRetransmitInterval)
}

// ArmedRetransmit returns the interval NextRetransmit(cur) plus jitter,
// never negative.
func ArmedRetransmit(cur time.Duration) time.Duration {
	next := NextRetransmit(cur)
	armed := next + jitter()
	if armed < 0 {
		armed = 0
	}
	return armed
}

// NextNakBackoff advances the NAK backoff sequence: 0 → 1s, then doubling to
// the 60s cap. Passing 0 (no prior NAK since the last successful bind)
// yields the initial value.
func NextNakBackoff(cur time.Duration) time.Duration {
	if cur <= 0 {
		return initialNakBackoff
	}
	next := cur * 2
	if next > maxNakBackoff {
		next = maxNakBackoff
	}
	return next
}
