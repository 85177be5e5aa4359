// Package nmea implements the small slice of NMEA 0183 and ITU-R M.1371
// needed to work with AIS position reports: sentence checksums, the
// six-bit payload armoring, and MMSI extraction.
package nmea

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SentenceStart marks the beginning of an encapsulated AIS sentence.
const SentenceStart = '!'

// mmsiBits is the number of leading payload bits required to recover the
// source MMSI: 6 bits message type, 2 bits repeat indicator, 30 bits MMSI.
const mmsiBits = 38

// Checksum computes the NMEA checksum of a sentence body (the text
// between the leading '!' or '$' and the '*' separator).
func Checksum(body string) byte {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return sum
}

// VerifyChecksum reports whether the sentence carries a checksum and it
// matches the sentence body. Sentences without a '*' suffix fail.
func VerifyChecksum(sentence string) bool {
	if len(sentence) < 4 || (sentence[0] != '!' && sentence[0] != '$') {
		return false
	}
	star := strings.LastIndexByte(sentence, '*')
	if star < 0 || star+3 > len(sentence) {
		return false
	}
	want, err := strconv.ParseUint(sentence[star+1:star+3], 16, 8)
	if err != nil {
		return false
	}
	return Checksum(sentence[1:star]) == byte(want)
}

// MMSI extracts the source vessel identifier from a single AIVDM/AIVDO
// sentence. Only the first fragment of a message carries the MMSI, so
// continuation fragments return false, as does anything that is not a
// well-formed VDM/VDO sentence.
func MMSI(sentence string) (uint32, bool) {
	sentence = strings.TrimSpace(sentence)
	if len(sentence) == 0 || sentence[0] != SentenceStart {
		return 0, false
	}
	fields := strings.Split(sentence[1:], ",")
	if len(fields) < 6 {
		return 0, false
	}
	if tag := fields[0]; !strings.HasSuffix(tag, "VDM") && !strings.HasSuffix(tag, "VDO") {
		return 0, false
	}
	// Fragment number: MMSI lives in the first fragment only.
	if fields[2] != "1" {
		return 0, false
	}
	payload := fields[5]
	if len(payload)*6 < mmsiBits {
		return 0, false
	}
	var acc uint64
	for i := 0; i < 7; i++ {
		v, ok := sixbit(payload[i])
		if !ok {
			return 0, false
		}
		acc = acc<<6 | uint64(v)
	}
	// acc holds bits 0..41; the MMSI occupies bits 8..37.
	return uint32(acc >> (42 - mmsiBits) & 0x3FFFFFFF), true
}

// sixbit decodes one character of armored AIS payload.
func sixbit(c byte) (byte, bool) {
	if c < 48 || c > 119 || (c > 87 && c < 96) {
		return 0, false
	}
	v := c - 48
	if v > 40 {
		v -= 8
	}
	return v, true
}

// armor encodes one six-bit value as an armored payload character.
func armor(v byte) byte {
	if v < 40 {
		return v + 48
	}
	return v + 56
}

// bitBuffer accumulates big-endian bit fields for payload encoding.
type bitBuffer struct {
	bits []bool
}

func (b *bitBuffer) append(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		b.bits = append(b.bits, v>>uint(i)&1 == 1)
	}
}

// payload armors the accumulated bits. The caller is responsible for
// keeping the bit count a multiple of six.
func (b *bitBuffer) payload() string {
	out := make([]byte, 0, len(b.bits)/6)
	for i := 0; i+6 <= len(b.bits); i += 6 {
		var v byte
		for j := 0; j < 6; j++ {
			v <<= 1
			if b.bits[i+j] {
				v |= 1
			}
		}
		out = append(out, armor(v))
	}
	return string(out)
}

// PositionReport describes the fields of a synthetic class A position
// report (message type 1) for test-log generation.
type PositionReport struct {
	MMSI      uint32
	Lat       float64 // degrees, north positive
	Lon       float64 // degrees, east positive
	SpeedKn   float64 // speed over ground in knots
	CourseDeg float64 // course over ground in degrees
	Second    int     // UTC second of the fix, 0-59
}

// EncodePositionReport builds a complete single-fragment AIVDM sentence
// for the given report, including the armored payload and checksum.
func EncodePositionReport(r PositionReport) string {
	var b bitBuffer
	b.append(1, 6) // message type 1
	b.append(0, 2) // repeat indicator
	b.append(r.MMSI, 30)
	b.append(0, 4)   // navigation status: under way using engine
	b.append(128, 8) // rate of turn: not available
	b.append(tenth(r.SpeedKn, 1022), 10)
	b.append(0, 1) // position accuracy
	b.append(coord(r.Lon, 28), 28)
	b.append(coord(r.Lat, 27), 27)
	b.append(tenth(r.CourseDeg, 3599), 12)
	b.append(511, 9) // true heading: not available
	b.append(uint32(r.Second), 6)
	b.append(0, 2)  // maneuver indicator
	b.append(0, 3)  // spare
	b.append(0, 1)  // RAIM
	b.append(0, 19) // radio status
	body := fmt.Sprintf("AIVDM,1,1,,A,%s,0", b.payload())
	return fmt.Sprintf("!%s*%02X", body, Checksum(body))
}

// tenth scales a value to tenths, clamped to the field's maximum.
func tenth(v float64, max uint32) uint32 {
	if v < 0 {
		return 0
	}
	scaled := uint32(math.Round(v * 10))
	if scaled > max {
		return max
	}
	return scaled
}

// coord encodes a signed coordinate in 1/10000 minute units as a
// two's-complement field of the given width.
func coord(deg float64, width int) uint32 {
	scaled := int32(math.Round(deg * 600000))
	return uint32(scaled) & (1<<uint(width) - 1)
}
