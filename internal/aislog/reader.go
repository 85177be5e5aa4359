package aislog

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/banshee-data/vessel.report/internal/monitoring"
	"github.com/banshee-data/vessel.report/internal/nmea"
)

// Format selects the on-disk encoding of a log file.
type Format int

const (
	// FormatAuto picks the format from the file extension.
	FormatAuto Format = iota
	// FormatBinary is the framed binary encoding (.ais).
	FormatBinary
	// FormatText is the line-oriented text encoding.
	FormatText
	// FormatPCAP reads AIS-over-UDP packet captures. Only available in
	// builds with the pcap tag; otherwise ReadFile returns an error.
	FormatPCAP
)

// headerSize is the fixed frame header of the binary format: three
// little-endian uint32 fields (seconds, microseconds, payload length).
const headerSize = 12

// textSentinel marks candidate record lines in the text format.
const textSentinel = "AIS"

// textLine extracts the whole-second timestamp and the message body
// from a candidate text line.
var textLine = regexp.MustCompile(`^AIS[:,]?\s*(\d+)\s+(.+)$`)

// ParseFormat maps a format flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "binary", "bin":
		return FormatBinary, nil
	case "text", "txt":
		return FormatText, nil
	case "pcap":
		return FormatPCAP, nil
	}
	return FormatAuto, fmt.Errorf("unknown log format %q", s)
}

// DetectFormat guesses the encoding from the file extension. Anything
// that is not .ais or .pcap is treated as text, which matches how the
// capture scripts name their output.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case FileExtension, ".bin":
		return FormatBinary
	case ".pcap", ".pcapng":
		return FormatPCAP
	}
	return FormatText
}

// ReadFile loads an entire log into an ordered packet sequence. A
// missing or unreadable file is the only hard failure; malformed
// content inside the file is skipped or truncated, never fatal.
func ReadFile(path string, format Format) ([]Packet, error) {
	if format == FormatAuto {
		format = DetectFormat(path)
	}
	if format == FormatPCAP {
		return readPCAP(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read log %s: %w", path, err)
	}
	switch format {
	case FormatBinary:
		return ParseBinary(data), nil
	case FormatText:
		return ParseText(data), nil
	}
	return nil, fmt.Errorf("unsupported log format %d", format)
}

// ParseBinary scans framed records from offset zero. A remainder
// shorter than a full header is a clean end of stream. A header whose
// declared payload overruns the buffer ends the scan with a warning;
// the partial trailing frame is dropped.
func ParseBinary(data []byte) []Packet {
	var packets []Packet
	for off := 0; off+headerSize <= len(data); {
		sec := binary.LittleEndian.Uint32(data[off:])
		usec := binary.LittleEndian.Uint32(data[off+4:])
		length := binary.LittleEndian.Uint32(data[off+8:])
		off += headerSize
		if uint64(off)+uint64(length) > uint64(len(data)) {
			monitoring.Logf("dropping truncated trailing frame at offset %d (declared %d bytes, %d remain)",
				off-headerSize, length, len(data)-off)
			break
		}
		payload := make([]byte, length)
		copy(payload, data[off:off+int(length)])
		packets = append(packets, Packet{TimestampSec: sec, TimestampUsec: usec, Payload: payload})
		off += int(length)
	}
	return packets
}

// ParseText scans line-oriented records. Only lines starting with the
// AIS sentinel and matching the timestamp pattern yield packets, and
// only when the extracted body is an encapsulated sentence. Everything
// else is expected chatter in these files and skipped silently. Text
// records carry whole seconds only, so TimestampUsec is always zero.
func ParseText(data []byte) []Packet {
	var packets []Packet
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, textSentinel) {
			continue
		}
		m := textLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		sec, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			continue
		}
		body := strings.TrimSpace(m[2])
		if len(body) == 0 || body[0] != nmea.SentenceStart {
			continue
		}
		packets = append(packets, Packet{TimestampSec: uint32(sec), Payload: []byte(body)})
	}
	return packets
}
