// Package playerid generates the per-connection player IDs the engine
// uses as stable player identities for a connection's lifetime.
package playerid

import (
	"crypto/rand"
	"time"
)

// Crockford's base32 alphabet, lowercased
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// New returns a sortable 16-character ID: 8 characters of millisecond
// timestamp followed by 8 random characters. Collisions within the same
// millisecond would need matching random tails, which is good enough for
// room-scoped identities.
func New() string {
	buf := make([]byte, 16)

	now := uint64(time.Now().UnixMilli())
	for i := 7; i >= 0; i-- {
		buf[i] = alphabet[now&0x1f]
		now >>= 5
	}

	var random [8]byte
	if _, err := rand.Read(random[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to
		// the timestamp bits rather than panicking mid-connection.
		copy(random[:], buf[:8])
	}
	for i, b := range random {
		buf[8+i] = alphabet[int(b)&0x1f]
	}

	return string(buf)
}
