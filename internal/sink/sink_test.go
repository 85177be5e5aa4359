package sink

import (
	"errors"
	"testing"

	"github.com/banshee-data/vessel.report/internal/nmea"
)

// fakeSink records deliveries and can simulate disconnects and errors.
type fakeSink struct {
	deliveries map[string][]string
	connected  bool
	err        error
}

func newFakeSink() *fakeSink {
	return &fakeSink{deliveries: make(map[string][]string), connected: true}
}

func (f *fakeSink) Deliver(destination string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.deliveries[destination] = append(f.deliveries[destination], string(payload))
	return nil
}

func (f *fakeSink) Connected() bool { return f.connected }
func (f *fakeSink) Close() error    { return nil }

func sentence(mmsi uint32) string {
	return nmea.EncodePositionReport(nmea.PositionReport{MMSI: mmsi, Lat: 57.7, Lon: 11.9})
}

func TestDispatcherRoutesByMMSI(t *testing.T) {
	fs := newFakeSink()
	d := NewDispatcher(DispatcherConfig{Sink: fs, SubjectPrefix: "ais", Logf: func(string, ...interface{}) {}})

	d.Send(1000, []byte(sentence(265500001)))
	d.Send(1001, []byte(sentence(265500002)))
	d.Send(1002, []byte(sentence(265500001)))

	if got := len(fs.deliveries["ais.265500001"]); got != 2 {
		t.Errorf("ais.265500001 received %d sentences, want 2", got)
	}
	if got := len(fs.deliveries["ais.265500002"]); got != 1 {
		t.Errorf("ais.265500002 received %d sentences, want 1", got)
	}
	sent, skipped, failed := d.Counts()
	if sent != 3 || skipped != 0 || failed != 0 {
		t.Errorf("counts = %d/%d/%d, want 3/0/0", sent, skipped, failed)
	}
}

func TestDispatcherSkipsUnidentifiedSentences(t *testing.T) {
	fs := newFakeSink()
	d := NewDispatcher(DispatcherConfig{Sink: fs, Logf: func(string, ...interface{}) {}})

	d.Send(1000, []byte("!AIVDM,garbage"))
	d.Send(1001, []byte("not a sentence at all"))

	if len(fs.deliveries) != 0 {
		t.Errorf("unexpected deliveries: %v", fs.deliveries)
	}
	if _, skipped, _ := d.Counts(); skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
}

func TestDispatcherSkipsWhileDisconnected(t *testing.T) {
	fs := newFakeSink()
	fs.connected = false
	d := NewDispatcher(DispatcherConfig{Sink: fs, Logf: func(string, ...interface{}) {}})

	d.Send(1000, []byte(sentence(265500001)))

	if len(fs.deliveries) != 0 {
		t.Errorf("delivered while disconnected: %v", fs.deliveries)
	}
	if _, skipped, _ := d.Counts(); skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
}

func TestDispatcherContinuesPastDeliveryErrors(t *testing.T) {
	fs := newFakeSink()
	fs.err = errors.New("broker unavailable")
	var logged int
	d := NewDispatcher(DispatcherConfig{Sink: fs, Logf: func(string, ...interface{}) { logged++ }})

	d.Send(1000, []byte(sentence(265500001)))

	fs.err = nil
	d.Send(1001, []byte(sentence(265500001)))

	sent, _, failed := d.Counts()
	if sent != 1 || failed != 1 {
		t.Errorf("sent/failed = %d/%d, want 1/1", sent, failed)
	}
	if logged == 0 {
		t.Error("delivery error was not logged")
	}
}

func TestDispatcherDefaultPrefix(t *testing.T) {
	fs := newFakeSink()
	d := NewDispatcher(DispatcherConfig{Sink: fs, Logf: func(string, ...interface{}) {}})

	d.Send(1000, []byte(sentence(265500001)))

	if _, ok := fs.deliveries["ais.265500001"]; !ok {
		t.Errorf("default prefix not applied: %v", fs.deliveries)
	}
}
