package sink

import (
	"context"
	"fmt"
	"net"
	"time"
)

// UDPSink forwards sentences as UDP datagrams through a bounded channel
// so that a slow or unreachable destination never stalls the replay
// loop. Datagrams that cannot be queued are dropped and counted; UDP
// carries no destination subjects, so Deliver ignores that argument.
type UDPSink struct {
	conn        *net.UDPConn
	channel     chan []byte
	logInterval time.Duration
	address     string
	logf        func(format string, v ...interface{})
}

// NewUDPSink dials the given address. Start must be called before the
// sink will drain its queue.
func NewUDPSink(address string, buffer int, logInterval time.Duration, logf func(format string, v ...interface{})) (*UDPSink, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve forward address: %w", err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to create forward connection: %w", err)
	}
	if buffer <= 0 {
		buffer = 1000
	}
	if logInterval <= 0 {
		logInterval = time.Minute
	}
	return &UDPSink{
		conn:        conn,
		channel:     make(chan []byte, buffer),
		logInterval: logInterval,
		address:     address,
		logf:        logf,
	}, nil
}

// Start begins the forwarding goroutine. Write errors are counted and
// reported at the log interval rather than per datagram.
func (s *UDPSink) Start(ctx context.Context) {
	go func() {
		droppedCount := 0
		var lastError error
		ticker := time.NewTicker(s.logInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case datagram, ok := <-s.channel:
				if !ok {
					return
				}
				if _, err := s.conn.Write(datagram); err != nil {
					droppedCount++
					lastError = err
				}
			case <-ticker.C:
				if droppedCount > 0 && lastError != nil {
					s.logf("dropped %d forwarded datagrams due to errors (latest: %v)", droppedCount, lastError)
					droppedCount = 0
					lastError = nil
				}
			}
		}
	}()

	s.logf("forwarding sentences to udp://%s", s.address)
}

// Deliver queues one datagram without blocking. A full queue drops the
// datagram.
func (s *UDPSink) Deliver(_ string, payload []byte) error {
	datagram := make([]byte, 0, len(payload)+2)
	datagram = append(datagram, payload...)
	datagram = append(datagram, '\r', '\n')

	select {
	case s.channel <- datagram:
		return nil
	default:
		return fmt.Errorf("forward queue full, dropping datagram")
	}
}

// Connected always reports true once dialed; UDP has no session state.
func (s *UDPSink) Connected() bool {
	return s.conn != nil
}

// Close stops the queue and closes the socket.
func (s *UDPSink) Close() error {
	close(s.channel)
	return s.conn.Close()
}
