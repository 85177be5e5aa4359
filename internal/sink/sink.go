// Package sink delivers replayed sentences to downstream consumers and
// adapts the player's send callback to destination-qualified publishes.
package sink

import (
	"strconv"
	"strings"
	"sync"

	"github.com/banshee-data/vessel.report/internal/archive"
	"github.com/banshee-data/vessel.report/internal/monitoring"
	"github.com/banshee-data/vessel.report/internal/nmea"
)

// Sink is a messaging endpoint. Deliver must be non-blocking from the
// caller's perspective; implementations queue or fail fast.
type Sink interface {
	// Deliver publishes payload to the named destination.
	Deliver(destination string, payload []byte) error

	// Connected reports whether the sink currently has a live
	// connection. Dispatch is skipped while disconnected.
	Connected() bool

	// Close releases the sink's resources.
	Close() error
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// Sink receives the publishes. Required.
	Sink Sink

	// SubjectPrefix is prepended to the vessel MMSI to form the
	// destination, e.g. "ais" publishes to "ais.265547250".
	SubjectPrefix string

	// Archive, when set, also records every delivered sentence.
	Archive *archive.Archive

	// Logf defaults to the monitoring package logger.
	Logf func(format string, v ...interface{})
}

// Dispatcher translates delivered packets into per-vessel publishes.
// Every failure mode here is local: a sentence without a recoverable
// MMSI, a disconnected sink or a delivery error is logged (or counted)
// and the replay moves on.
type Dispatcher struct {
	sink    Sink
	prefix  string
	archive *archive.Archive
	logf    func(format string, v ...interface{})

	mu      sync.Mutex
	sent    int
	skipped int
	failed  int
}

// NewDispatcher builds a Dispatcher from cfg.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	d := &Dispatcher{
		sink:    cfg.Sink,
		prefix:  cfg.SubjectPrefix,
		archive: cfg.Archive,
		logf:    cfg.Logf,
	}
	if d.prefix == "" {
		d.prefix = "ais"
	}
	if d.logf == nil {
		d.logf = monitoring.Logf
	}
	return d
}

// Send satisfies replay.SendFunc.
func (d *Dispatcher) Send(instant float64, payload []byte) {
	sentence := strings.TrimSpace(string(payload))
	mmsi, ok := nmea.MMSI(sentence)
	if !ok {
		d.count(&d.skipped)
		return
	}

	if d.archive != nil {
		if err := d.archive.Record(instant, mmsi, sentence); err != nil {
			d.logf("archive write failed for %d: %v", mmsi, err)
		}
	}

	if !d.sink.Connected() {
		d.count(&d.skipped)
		return
	}
	destination := d.prefix + "." + strconv.FormatUint(uint64(mmsi), 10)
	if err := d.sink.Deliver(destination, []byte(sentence)); err != nil {
		d.count(&d.failed)
		d.logf("delivery to %s failed: %v", destination, err)
		return
	}
	d.count(&d.sent)
}

func (d *Dispatcher) count(c *int) {
	d.mu.Lock()
	*c++
	d.mu.Unlock()
}

// Counts returns how many sentences were sent, skipped and failed.
func (d *Dispatcher) Counts() (sent, skipped, failed int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sent, d.skipped, d.failed
}

// LogStats writes a one-line dispatch summary.
func (d *Dispatcher) LogStats() {
	sent, skipped, failed := d.Counts()
	d.logf("dispatch: %d sent, %d skipped, %d failed", sent, skipped, failed)
}
