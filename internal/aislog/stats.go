package aislog

import (
	"bytes"
	"time"

	"github.com/banshee-data/vessel.report/internal/monitoring"
	"github.com/banshee-data/vessel.report/internal/nmea"
)

// Stats holds descriptive aggregates over a packet sequence. It is a
// pure summary: nothing here consults playback rate or wall-clock state.
type Stats struct {
	Packets  int
	Vessels  int
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// Summarize computes aggregates over packets in one pass. The distinct
// vessel count considers only encapsulated sentences whose MMSI can be
// recovered; everything else is counted as a packet but not a vessel.
func Summarize(packets []Packet) Stats {
	s := Stats{Packets: len(packets)}
	if len(packets) == 0 {
		return s
	}

	vessels := make(map[uint32]struct{})
	for _, p := range packets {
		payload := bytes.TrimSpace(p.Payload)
		if len(payload) == 0 || payload[0] != nmea.SentenceStart {
			continue
		}
		if mmsi, ok := nmea.MMSI(string(payload)); ok {
			vessels[mmsi] = struct{}{}
		}
	}
	s.Vessels = len(vessels)
	s.Start = packets[0].Time()
	s.End = packets[len(packets)-1].Time()
	s.Duration = s.End.Sub(s.Start)
	return s
}

// Log writes the summary through the package logger. Time-based fields
// are omitted for an empty log.
func (s Stats) Log() {
	monitoring.Logf("packets: %d", s.Packets)
	if s.Packets == 0 {
		return
	}
	monitoring.Logf("vessels: %d", s.Vessels)
	monitoring.Logf("start:   %s", s.Start.Format("2006-01-02 15:04:05 MST"))
	monitoring.Logf("end:     %s", s.End.Format("2006-01-02 15:04:05 MST"))
	monitoring.Logf("duration: %.1f seconds (%.2f hours)", s.Duration.Seconds(), s.Duration.Hours())
}
