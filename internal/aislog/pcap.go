//go:build pcap
// +build pcap

package aislog

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/banshee-data/vessel.report/internal/monitoring"
)

// readPCAP loads AIS-over-UDP datagrams from a packet capture. Each UDP
// payload becomes one Packet stamped with the capture time, so pcap
// sources keep microsecond resolution. A datagram may carry several
// newline-separated sentences; it is kept whole here and split, if at
// all, by the consumer.
// This function is only available when building with the 'pcap' build tag.
func readPCAP(path string) ([]Packet, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PCAP file %s: %w", path, err)
	}
	defer handle.Close()

	if err := handle.SetBPFFilter("udp"); err != nil {
		return nil, fmt.Errorf("failed to set BPF filter: %w", err)
	}

	var packets []Packet
	skipped := 0
	source := gopacket.NewPacketSource(handle, handle.LinkType())
	for packet := range source.Packets() {
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			skipped++
			continue
		}
		udp, ok := udpLayer.(*layers.UDP)
		if !ok || len(udp.Payload) == 0 {
			skipped++
			continue
		}
		ts := packet.Metadata().Timestamp
		payload := make([]byte, len(udp.Payload))
		copy(payload, udp.Payload)
		packets = append(packets, Packet{
			TimestampSec:  uint32(ts.Unix()),
			TimestampUsec: uint32(ts.Nanosecond() / 1000),
			Payload:       payload,
		})
	}
	if skipped > 0 {
		monitoring.Logf("pcap: skipped %d non-UDP or empty packets", skipped)
	}
	return packets, nil
}
