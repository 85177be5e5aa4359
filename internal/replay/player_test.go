package replay

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/vessel.report/internal/aislog"
	"github.com/banshee-data/vessel.report/internal/timeutil"
)

func sentencePacket(instant float64, body string) aislog.Packet {
	sec := uint32(instant)
	usec := uint32((instant - float64(sec)) * 1e6)
	return aislog.Packet{TimestampSec: sec, TimestampUsec: usec, Payload: []byte(body)}
}

type delivery struct {
	instant float64
	payload string
}

// run plays packets to completion on a fake clock and returns the
// deliveries, the log lines and the total simulated wall time slept.
func run(t *testing.T, packets []aislog.Packet, rate float64) ([]delivery, []string, time.Duration) {
	t.Helper()
	var sent []delivery
	var lines []string
	clock := timeutil.NewFakeClock(time.Unix(5000, 0))
	player, err := NewPlayer(packets, Config{
		Rate:  rate,
		Send:  func(instant float64, payload []byte) { sent = append(sent, delivery{instant, string(payload)}) },
		Clock: clock,
		Logf:  func(format string, v ...interface{}) { lines = append(lines, fmt.Sprintf(format, v...)) },
	})
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	if err := player.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	return sent, lines, clock.Slept()
}

func TestPlayDeliversInOrderAtScaledDuration(t *testing.T) {
	packets := []aislog.Packet{
		sentencePacket(1000.0, "!AIVDM,a"),
		sentencePacket(1000.5, "!AIVDM,b"),
		sentencePacket(1002.0, "!AIVDM,c"),
	}

	sent, _, slept := run(t, packets, 1.0)
	if len(sent) != 3 {
		t.Fatalf("delivered %d packets, want 3", len(sent))
	}
	for i, want := range []string{"!AIVDM,a", "!AIVDM,b", "!AIVDM,c"} {
		if sent[i].payload != want {
			t.Errorf("delivery %d = %q, want %q", i, sent[i].payload, want)
		}
	}
	// Total wall time is (end-start)/rate to within one tick.
	want := 2 * time.Second
	if slept < want || slept > want+DefaultTick {
		t.Errorf("slept %v, want within one tick above %v", slept, want)
	}
}

func TestPlayRateScalesWallTimeNotOrder(t *testing.T) {
	packets := []aislog.Packet{
		sentencePacket(1000, "!AIVDM,a"),
		sentencePacket(1004, "!AIVDM,b"),
		sentencePacket(1008, "!AIVDM,c"),
	}

	sentSlow, _, sleptSlow := run(t, packets, 1.0)
	sentFast, _, sleptFast := run(t, packets, 4.0)

	if len(sentSlow) != len(sentFast) {
		t.Fatalf("rate changed delivery count: %d vs %d", len(sentSlow), len(sentFast))
	}
	for i := range sentSlow {
		if sentSlow[i] != sentFast[i] {
			t.Errorf("delivery %d differs across rates: %+v vs %+v", i, sentSlow[i], sentFast[i])
		}
	}
	if sleptSlow < 8*time.Second || sleptSlow > 8*time.Second+DefaultTick {
		t.Errorf("rate 1 slept %v, want ~8s", sleptSlow)
	}
	if sleptFast < 2*time.Second || sleptFast > 2*time.Second+DefaultTick {
		t.Errorf("rate 4 slept %v, want ~2s", sleptFast)
	}
}

func TestPlayDrainsBurstsInOneTick(t *testing.T) {
	// Identical timestamps must not serialise through per-packet waits.
	packets := []aislog.Packet{
		sentencePacket(1000, "!AIVDM,a"),
		sentencePacket(1000, "!AIVDM,b"),
		sentencePacket(1000, "!AIVDM,c"),
	}
	sent, _, slept := run(t, packets, 1.0)
	if len(sent) != 3 {
		t.Fatalf("delivered %d packets, want 3", len(sent))
	}
	if slept != 0 {
		t.Errorf("burst at start instant should not sleep, slept %v", slept)
	}
}

func TestPlayFiltersNonSentencePayloads(t *testing.T) {
	packets := []aislog.Packet{
		sentencePacket(1000, "!AIVDM,keep"),
		sentencePacket(1000, "$GPGGA,drop"),
		sentencePacket(1000, "  !AIVDO,trimmed-keep"),
		sentencePacket(1000, ""),
	}
	sent, _, _ := run(t, packets, 1.0)
	if len(sent) != 2 {
		t.Fatalf("delivered %d packets, want 2", len(sent))
	}
	if sent[0].payload != "!AIVDM,keep" || sent[1].payload != "  !AIVDO,trimmed-keep" {
		t.Errorf("unexpected deliveries: %+v", sent)
	}
}

func TestPlayOutOfOrderTimestampsKeepFileOrder(t *testing.T) {
	packets := []aislog.Packet{
		sentencePacket(1000, "!AIVDM,first"),
		sentencePacket(999, "!AIVDM,late"),
		sentencePacket(1001, "!AIVDM,last"),
	}
	sent, _, _ := run(t, packets, 1.0)
	want := []string{"!AIVDM,first", "!AIVDM,late", "!AIVDM,last"}
	if len(sent) != len(want) {
		t.Fatalf("delivered %d packets, want %d", len(sent), len(want))
	}
	for i := range want {
		if sent[i].payload != want[i] {
			t.Errorf("delivery %d = %q, want %q", i, sent[i].payload, want[i])
		}
	}
}

func TestPlayEmptySequence(t *testing.T) {
	sent, lines, slept := run(t, nil, 1.0)
	if len(sent) != 0 || slept != 0 {
		t.Errorf("empty playback delivered %d packets, slept %v", len(sent), slept)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], "no packets to play") {
		t.Errorf("log = %v", lines)
	}
}

func TestPlaySinglePacket(t *testing.T) {
	sent, _, slept := run(t, []aislog.Packet{sentencePacket(1000, "!AIVDM,only")}, 1.0)
	if len(sent) != 1 {
		t.Fatalf("delivered %d packets, want 1", len(sent))
	}
	if slept != 0 {
		t.Errorf("single packet should deliver immediately, slept %v", slept)
	}
}

var heartbeatRe = regexp.MustCompile(`replaying .*?\s+(\d+(?:\.\d+)?)%\s+(\d+:\d{2}:\d{2}) remaining`)

func TestPlayHeartbeatsMonotonic(t *testing.T) {
	packets := []aislog.Packet{
		sentencePacket(1000, "!AIVDM,a"),
		sentencePacket(1030, "!AIVDM,b"),
	}
	_, lines, _ := run(t, packets, 10.0)

	var percents []float64
	for _, line := range lines {
		m := heartbeatRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		p, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			t.Fatalf("bad percent in %q: %v", line, err)
		}
		percents = append(percents, p)
	}
	if len(percents) == 0 {
		t.Fatal("no heartbeats emitted over a 30 simulated-second span")
	}
	prev := -1.0
	for i, p := range percents {
		if p < 0 || p > 100 {
			t.Errorf("heartbeat %d percent out of range: %v", i, p)
		}
		if p < prev {
			t.Errorf("heartbeat %d percent decreased: %v -> %v", i, prev, p)
		}
		prev = p
	}
}

func TestPlayCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sent int
	player, err := NewPlayer([]aislog.Packet{sentencePacket(1000, "!AIVDM,a")}, Config{
		Rate:  1.0,
		Send:  func(float64, []byte) { sent++ },
		Clock: timeutil.NewFakeClock(time.Unix(5000, 0)),
		Logf:  func(string, ...interface{}) {},
	})
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	if err := player.Play(ctx); err != context.Canceled {
		t.Errorf("Play = %v, want context.Canceled", err)
	}
	if sent != 0 {
		t.Errorf("delivered %d packets after cancellation", sent)
	}
}

func TestNewPlayerRejectsBadConfig(t *testing.T) {
	send := func(float64, []byte) {}
	if _, err := NewPlayer(nil, Config{Rate: 0, Send: send}); err == nil {
		t.Error("expected error for zero rate")
	}
	if _, err := NewPlayer(nil, Config{Rate: -1, Send: send}); err == nil {
		t.Error("expected error for negative rate")
	}
	if _, err := NewPlayer(nil, Config{Rate: 1}); err == nil {
		t.Error("expected error for missing send callback")
	}
}

func TestPlayRealClockApproximateDuration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping real-clock timing test in short mode")
	}
	packets := []aislog.Packet{
		sentencePacket(1000.0, "!AIVDM,a"),
		sentencePacket(1000.4, "!AIVDM,b"),
	}
	var sent int
	player, err := NewPlayer(packets, Config{
		Rate: 2.0,
		Send: func(float64, []byte) { sent++ },
		Logf: func(string, ...interface{}) {},
	})
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	begin := time.Now()
	if err := player.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	elapsed := time.Since(begin)
	if sent != 2 {
		t.Errorf("delivered %d packets, want 2", sent)
	}
	// 0.4 simulated seconds at rate 2 is 200ms of wall time.
	if elapsed < 150*time.Millisecond || elapsed > time.Second {
		t.Errorf("playback took %v, want roughly 200ms", elapsed)
	}
}
