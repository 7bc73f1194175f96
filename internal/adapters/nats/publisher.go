package natsadapter

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Plan lifecycle subjects.
const (
	SubjectPlanCompleted = "wayplan.plan.completed"
	SubjectPlanFallback  = "wayplan.plan.fallback"
	SubjectPlanFailed    = "wayplan.plan.failed"

	// SubjectPlanAll is the wildcard the WebSocket relay subscribes to.
	SubjectPlanAll = "wayplan.plan.>"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS, enables JetStream, and ensures the plan
// event stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      "WAYPLAN_PLANS",
		Subjects:  []string{"wayplan.plan.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist, try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishPlanCompleted(ctx context.Context, payload []byte) error {
	_, err := p.js.Publish(SubjectPlanCompleted, payload, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishPlanFallback(ctx context.Context, payload []byte) error {
	_, err := p.js.Publish(SubjectPlanFallback, payload, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishPlanFailed(ctx context.Context, payload []byte) error {
	_, err := p.js.Publish(SubjectPlanFailed, payload, nats.Context(ctx))
	return err
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
