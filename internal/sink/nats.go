package sink

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSSink publishes sentences to NATS subjects. Publishes are buffered
// by the client, so Deliver does not wait on the network.
type NATSSink struct {
	conn *nats.Conn
}

// NewNATSSink connects to the NATS server at url. The connection
// reconnects indefinitely; while it is down, Connected reports false
// and the dispatcher skips rather than blocks.
func NewNATSSink(url string) (*NATSSink, error) {
	nc, err := nats.Connect(url,
		nats.Name("ais-replay"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSSink{conn: nc}, nil
}

// Deliver publishes payload to the given subject.
func (s *NATSSink) Deliver(subject string, payload []byte) error {
	return s.conn.Publish(subject, payload)
}

// Connected reports whether the NATS connection is currently live.
func (s *NATSSink) Connected() bool {
	return s.conn.IsConnected()
}

// Close flushes pending publishes and closes the connection.
func (s *NATSSink) Close() error {
	if err := s.conn.Flush(); err != nil {
		s.conn.Close()
		return err
	}
	s.conn.Close()
	return nil
}
