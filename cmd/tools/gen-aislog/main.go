// Command gen-aislog generates sample .ais recordings for testing replay.
package main

import (
	"flag"
	"log"
	"math/rand"

	"github.com/banshee-data/vessel.report/internal/aislog"
	"github.com/banshee-data/vessel.report/internal/nmea"
)

func main() {
	output := flag.String("o", "sample.ais", "output path")
	count := flag.Int("n", 100, "number of packets")
	vessels := flag.Int("vessels", 5, "number of distinct vessels")
	start := flag.Int64("start", 1700000000, "epoch seconds of the first packet")
	intervalMs := flag.Int("interval", 1000, "milliseconds between packets")
	flag.Parse()

	w, err := aislog.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create log: %v", err)
	}
	defer w.Close()

	rng := rand.New(rand.NewSource(42))
	fleet := make([]nmea.PositionReport, *vessels)
	for i := range fleet {
		fleet[i] = nmea.PositionReport{
			MMSI:      uint32(265500000 + i),
			Lat:       57.6 + rng.Float64()*0.2,
			Lon:       11.7 + rng.Float64()*0.3,
			SpeedKn:   rng.Float64() * 20,
			CourseDeg: rng.Float64() * 360,
		}
	}

	for i := 0; i < *count; i++ {
		v := &fleet[i%len(fleet)]
		v.Lat += (rng.Float64() - 0.5) * 0.001
		v.Lon += (rng.Float64() - 0.5) * 0.001
		v.Second = int(*start+int64(i)) % 60

		sec := uint32(*start) + uint32(i**intervalMs/1000)
		usec := uint32(i**intervalMs%1000) * 1000
		pkt := aislog.Packet{
			TimestampSec:  sec,
			TimestampUsec: usec,
			Payload:       []byte(nmea.EncodePositionReport(*v)),
		}
		if err := w.Write(pkt); err != nil {
			log.Fatalf("Failed to write packet %d: %v", i, err)
		}
		if (i+1)%100 == 0 {
			log.Printf("%d/%d packets", i+1, *count)
		}
	}
	log.Printf("✓ Created: %s (%d packets)", *output, w.Count())
}
