// Package events publishes coordination alerts to external observers
// over NATS. Publishing is optional and best-effort: the analysis path
// never blocks or fails because an observer is down.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Publisher emits alert events for privileged observers
type Publisher interface {
	Publish(subject string, event interface{}) error
	Close()
}

// NATSPublisher publishes events to a NATS subject
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to the NATS server
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to nats: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

// Publish marshals the event and publishes it
func (p *NATSPublisher) Publish(subject string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close drains the connection
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}
