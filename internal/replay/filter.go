package replay

import "bytes"

// Dedupe wraps send with back-to-back duplicate suppression: a packet
// whose (instant, payload) pair is identical to the one delivered
// immediately before it is dropped. Non-adjacent repeats still pass.
// The returned SendFunc is not safe for concurrent use, matching the
// single-threaded delivery contract of the player.
func Dedupe(send SendFunc) SendFunc {
	var (
		seen        bool
		lastInstant float64
		lastPayload []byte
	)
	return func(instant float64, payload []byte) {
		if seen && instant == lastInstant && bytes.Equal(payload, lastPayload) {
			return
		}
		seen = true
		lastInstant = instant
		lastPayload = append(lastPayload[:0], payload...)
		send(instant, payload)
	}
}
