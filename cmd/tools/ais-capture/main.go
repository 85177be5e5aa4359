// Command ais-capture records live AIS-over-UDP traffic into a framed
// .ais log suitable for ais-replay.
//
// Usage:
//
//	go run ./cmd/tools/ais-capture -listen :10110 -o harbour.ais
package main

import (
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/vessel.report/internal/aislog"
)

func main() {
	listen := flag.String("listen", ":10110", "UDP listen address")
	output := flag.String("o", "capture.ais", "output path")
	logInterval := flag.Duration("log-interval", time.Minute, "progress log interval")
	flag.Parse()

	addr, err := net.ResolveUDPAddr("udp", *listen)
	if err != nil {
		log.Fatalf("Failed to resolve listen address: %v", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", *listen, err)
	}
	defer conn.Close()

	w, err := aislog.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create log: %v", err)
	}
	defer w.Close()

	log.Printf("capturing %s -> %s", *listen, *output)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 64*1024)
		lastLog := time.Now()
		for {
			conn.SetReadDeadline(time.Now().Add(time.Second))
			n, _, err := conn.ReadFromUDP(buf)
			if err != nil {
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					select {
					case <-stop:
						return
					default:
						continue
					}
				}
				log.Printf("read error: %v", err)
				return
			}
			now := time.Now()
			payload := make([]byte, n)
			copy(payload, buf[:n])
			pkt := aislog.Packet{
				TimestampSec:  uint32(now.Unix()),
				TimestampUsec: uint32(now.Nanosecond() / 1000),
				Payload:       payload,
			}
			if err := w.Write(pkt); err != nil {
				log.Printf("write error: %v", err)
				return
			}
			if now.Sub(lastLog) >= *logInterval {
				log.Printf("%d packets captured", w.Count())
				lastLog = now
			}
		}
	}()

	<-sigCh
	log.Printf("shutting down...")
	close(stop)
	<-done
	log.Printf("✓ Captured %d packets to %s", w.Count(), *output)
}
