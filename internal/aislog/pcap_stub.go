//go:build !pcap
// +build !pcap

package aislog

import "fmt"

// readPCAP is a stub implementation when PCAP support is disabled
// Build with -tags=pcap to enable PCAP file reading
func readPCAP(path string) ([]Packet, error) {
	return nil, fmt.Errorf("PCAP support not enabled: rebuild with -tags=pcap to read %s", path)
}
