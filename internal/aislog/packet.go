// Package aislog reads and writes recorded AIS sentence logs.
//
// Two on-disk encodings are supported: a framed binary format (the .ais
// extension) and a line-oriented text format produced by older capture
// scripts. Both normalise into the same ordered Packet sequence.
package aislog

import "time"

// FileExtension is the extension for framed binary AIS logs.
const FileExtension = ".ais"

// Packet is one timestamped sentence as captured off the wire. Packets
// are immutable once constructed and keep the payload exactly as
// recorded, including any trailing line endings.
type Packet struct {
	TimestampSec  uint32
	TimestampUsec uint32
	Payload       []byte
}

// Instant returns the capture time as floating-point seconds since the
// Unix epoch. It exists for scheduling arithmetic only; never compare
// instants for equality.
func (p Packet) Instant() float64 {
	return float64(p.TimestampSec) + float64(p.TimestampUsec)/1e6
}

// Time returns the capture time as a time.Time in UTC.
func (p Packet) Time() time.Time {
	return time.Unix(int64(p.TimestampSec), int64(p.TimestampUsec)*1000).UTC()
}
