// Command ais-replay replays a recorded AIS log at its original
// relative timing, forwarding each sentence to a messaging sink keyed
// by the sending vessel's MMSI.
//
// Usage:
//
//	go run ./cmd/ais-replay -file harbour.ais [flags]
//
// Flags:
//
//	-file      Path to the recorded log (required)
//	-format    Log format: auto, binary, text or pcap (default: auto)
//	-rate      Playback-speed multiplier, 2 plays twice as fast (default: 1)
//	-stats     Print log statistics and exit without playing
//	-nats      NATS server URL to publish to
//	-udp       UDP address to forward raw sentences to
//	-subject   Destination subject prefix (default: ais)
//	-archive   SQLite file to archive delivered sentences into
//	-dedupe    Suppress back-to-back duplicate sentences
//	-config    Optional JSON tuning file
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/banshee-data/vessel.report/internal/aislog"
	"github.com/banshee-data/vessel.report/internal/archive"
	"github.com/banshee-data/vessel.report/internal/config"
	"github.com/banshee-data/vessel.report/internal/replay"
	"github.com/banshee-data/vessel.report/internal/sink"
	"github.com/banshee-data/vessel.report/internal/version"
)

func main() {
	var (
		file        = flag.String("file", "", "Path to the recorded log (required)")
		format      = flag.String("format", "auto", "Log format: auto, binary, text or pcap")
		rate        = flag.Float64("rate", 1.0, "Playback-speed multiplier")
		statsOnly   = flag.Bool("stats", false, "Print log statistics and exit")
		natsURL     = flag.String("nats", "", "NATS server URL to publish to")
		udpAddr     = flag.String("udp", "", "UDP address to forward raw sentences to")
		subject     = flag.String("subject", "", "Destination subject prefix")
		archivePath = flag.String("archive", "", "SQLite file to archive delivered sentences into")
		dedupe      = flag.Bool("dedupe", false, "Suppress back-to-back duplicate sentences")
		configPath  = flag.String("config", "", "Optional JSON tuning file")
	)
	flag.Parse()

	if *file == "" {
		log.Fatal("Error: -file flag is required")
	}
	if *rate <= 0 {
		log.Fatalf("Error: -rate must be positive, got %g", *rate)
	}

	logFormat, err := aislog.ParseFormat(*format)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	tuning := config.Empty()
	if *configPath != "" {
		tuning, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	runID := uuid.NewString()
	log.Printf("ais-replay %s (%s), run %s", version.Version, version.GitSHA, runID)

	packets, err := aislog.ReadFile(*file, logFormat)
	if err != nil {
		log.Fatalf("Failed to load log: %v", err)
	}
	log.Printf("loaded %d packets from %s", len(packets), *file)

	if *statsOnly {
		aislog.Summarize(packets).Log()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dst, err := buildSink(ctx, *natsURL, *udpAddr, tuning)
	if err != nil {
		log.Fatalf("Failed to set up sink: %v", err)
	}
	defer dst.Close()

	var store *archive.Archive
	if *archivePath != "" {
		store, err = archive.Open(*archivePath, runID)
		if err != nil {
			log.Fatalf("Failed to open archive: %v", err)
		}
		defer store.Close()
	}

	prefix := *subject
	if prefix == "" {
		prefix = tuning.GetSubjectPrefix()
	}
	dispatcher := sink.NewDispatcher(sink.DispatcherConfig{
		Sink:          dst,
		SubjectPrefix: prefix,
		Archive:       store,
	})

	send := replay.SendFunc(dispatcher.Send)
	if *dedupe || tuning.GetDedupe() {
		send = replay.Dedupe(send)
	}

	player, err := replay.NewPlayer(packets, replay.Config{
		Rate:      *rate,
		Send:      send,
		Tick:      tuning.GetTickInterval(),
		Heartbeat: tuning.GetHeartbeat(),
	})
	if err != nil {
		log.Fatalf("Failed to create player: %v", err)
	}

	err = player.Play(ctx)
	dispatcher.LogStats()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Playback failed: %v", err)
	}
}

// buildSink picks the delivery sink from the flags: NATS when a URL is
// given, UDP forwarding when an address is given, otherwise sentences
// are echoed to the process log.
func buildSink(ctx context.Context, natsURL, udpAddr string, tuning *config.ReplayConfig) (sink.Sink, error) {
	if natsURL != "" {
		return sink.NewNATSSink(natsURL)
	}
	if udpAddr != "" {
		s, err := sink.NewUDPSink(udpAddr, tuning.GetForwardBuffer(), 0, log.Printf)
		if err != nil {
			return nil, err
		}
		s.Start(ctx)
		return s, nil
	}
	log.Printf("no sink configured, echoing sentences to the log")
	return echoSink{}, nil
}

// echoSink prints deliveries instead of publishing them. Useful for
// dry runs and demos.
type echoSink struct{}

func (echoSink) Deliver(destination string, payload []byte) error {
	log.Printf("%s  %s", destination, payload)
	return nil
}

func (echoSink) Connected() bool { return true }
func (echoSink) Close() error    { return nil }
