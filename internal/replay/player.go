// Package replay drives wall-clock-synchronised playback of a recorded
// packet sequence.
//
// The player polls rather than arming one timer per packet: simulated
// time is a pure function of elapsed wall-clock time and the rate
// multiplier, so a burst of packets with near-identical timestamps is
// drained in a single tick instead of being serialised through
// per-packet waits, and scheduling delays are absorbed as catch-up
// rather than accumulated drift.
package replay

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/vessel.report/internal/aislog"
	"github.com/banshee-data/vessel.report/internal/monitoring"
	"github.com/banshee-data/vessel.report/internal/nmea"
	"github.com/banshee-data/vessel.report/internal/timeutil"
)

const (
	// DefaultTick is the wall-clock poll interval. It bounds the longest
	// single suspension of the loop regardless of rate or gap size.
	DefaultTick = 50 * time.Millisecond

	// DefaultHeartbeat is the progress-report cadence in simulated time.
	DefaultHeartbeat = 5 * time.Second
)

// SendFunc delivers one eligible packet. It runs inline in the poll
// loop, so it must not block for unbounded time; slow sinks belong
// behind a queue supplied by the caller.
type SendFunc func(instant float64, payload []byte)

// Config carries playback parameters. Zero values fall back to
// defaults; only Rate and Send are mandatory.
type Config struct {
	// Rate is the playback-speed multiplier. 2.0 plays twice as fast as
	// recorded. Must be greater than zero.
	Rate float64

	// Send receives each packet whose payload is an encapsulated
	// sentence, in file order.
	Send SendFunc

	// Clock supplies wall-clock time. Defaults to the real clock.
	Clock timeutil.Clock

	// Tick is the poll interval. Defaults to DefaultTick.
	Tick time.Duration

	// Heartbeat is the progress-report cadence in simulated seconds.
	// Defaults to DefaultHeartbeat.
	Heartbeat time.Duration

	// Logf receives heartbeat and lifecycle lines. Defaults to the
	// monitoring package logger.
	Logf func(format string, v ...interface{})
}

// Player replays one packet sequence. A Player is single-use: Play
// consumes the sequence and the cursor never rewinds.
type Player struct {
	packets   []aislog.Packet
	rate      float64
	send      SendFunc
	clock     timeutil.Clock
	tick      time.Duration
	heartbeat float64 // simulated seconds
	logf      func(format string, v ...interface{})
}

// NewPlayer validates cfg and builds a Player over packets. Packets are
// replayed in slice order; out-of-order timestamps are not corrected,
// they are simply delivered as soon as the simulated clock has passed
// them.
func NewPlayer(packets []aislog.Packet, cfg Config) (*Player, error) {
	if cfg.Rate <= 0 {
		return nil, fmt.Errorf("playback rate must be positive, got %g", cfg.Rate)
	}
	if cfg.Send == nil {
		return nil, fmt.Errorf("send callback is required")
	}
	p := &Player{
		packets:   packets,
		rate:      cfg.Rate,
		send:      cfg.Send,
		clock:     cfg.Clock,
		tick:      cfg.Tick,
		heartbeat: cfg.Heartbeat.Seconds(),
		logf:      cfg.Logf,
	}
	if p.clock == nil {
		p.clock = timeutil.RealClock{}
	}
	if p.tick <= 0 {
		p.tick = DefaultTick
	}
	if p.heartbeat <= 0 {
		p.heartbeat = DefaultHeartbeat.Seconds()
	}
	if p.logf == nil {
		p.logf = monitoring.Logf
	}
	return p, nil
}

// Play replays the sequence, returning when the last packet has been
// delivered or ctx is cancelled between ticks. The total wall-clock
// duration of a full run is (end-start)/rate to within one tick.
func (p *Player) Play(ctx context.Context) error {
	n := len(p.packets)
	if n == 0 {
		p.logf("no packets to play")
		return nil
	}

	start := p.packets[0].Instant()
	end := p.packets[n-1].Instant()
	total := end - start

	wallStart := p.clock.Now()
	lastBeat := start
	sent := 0

	for i := 0; i < n; {
		select {
		case <-ctx.Done():
			p.logf("playback stopped after %d/%d packets: %v", i, n, ctx.Err())
			return ctx.Err()
		default:
		}

		// Clamped so a backward wall-clock jump can never replay into
		// the past.
		elapsed := p.clock.Since(wallStart).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		sim := start + elapsed*p.rate

		if sim-lastBeat >= p.heartbeat {
			p.emitHeartbeat(sim, start, end, total)
			lastBeat = sim
		}

		// Drain everything that is due. Several packets land in the
		// same tick when the rate is high or the loop was delayed.
		for i < n && p.packets[i].Instant() <= sim {
			pkt := p.packets[i]
			if payload := bytes.TrimSpace(pkt.Payload); len(payload) > 0 && payload[0] == nmea.SentenceStart {
				p.send(pkt.Instant(), pkt.Payload)
				sent++
			}
			i++
		}

		if i < n {
			p.clock.Sleep(p.tick)
		}
	}

	p.logf("playback complete: %d of %d packets sent in %s",
		sent, n, p.clock.Since(wallStart).Round(time.Millisecond))
	return nil
}

// emitHeartbeat logs the simulated timestamp, clamped completion
// percentage and remaining wall-clock time at the current rate.
func (p *Player) emitHeartbeat(sim, start, end, total float64) {
	percent := 100.0
	if total > 0 {
		percent = (sim - start) / total * 100
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
	}
	remaining := (end - sim) / p.rate
	if remaining < 0 {
		remaining = 0
	}
	stamp := time.Unix(int64(sim), 0).UTC().Format("2006-01-02 15:04:05")
	p.logf("replaying %s  %5.1f%%  %s remaining", stamp, percent, formatHMS(remaining))
}

// formatHMS renders whole seconds as H:MM:SS.
func formatHMS(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%d:%02d:%02d", s/3600, s%3600/60, s%60)
}
