package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/diadiem/internal/core/domain"
)

const (
	streamSearch     = "DIRECTORY_SEARCH"
	streamBusiness   = "DIRECTORY_BUSINESS"
	subjectSearch    = "directory.search.performed"
	subjectBusiness  = "directory.business.updated"
	businessWildcard = subjectBusiness + ".>"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := ensureStreams(js); err != nil {
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, js: js}, nil
}

func ensureStreams(js nats.JetStreamContext) error {
	streams := []nats.StreamConfig{
		{
			Name:      streamSearch,
			Subjects:  []string{subjectSearch},
			Retention: nats.LimitsPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      streamBusiness,
			Subjects:  []string{businessWildcard},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

// PublishSearchPerformed records one provider query for analytics.
func (p *Publisher) PublishSearchPerformed(ctx context.Context, ev *domain.SearchEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subjectSearch, data, nats.Context(ctx))
	return err
}

// PublishBusinessUpdated announces that a business listing changed.
func (p *Publisher) PublishBusinessUpdated(ctx context.Context, businessID int64) error {
	id := strconv.FormatInt(businessID, 10)
	_, err := p.js.Publish(BusinessSubject(businessID), []byte(id), nats.Context(ctx))
	return err
}

// BusinessSubject is the per-business update subject.
func BusinessSubject(businessID int64) string {
	return subjectBusiness + "." + strconv.FormatInt(businessID, 10)
}

// Ping reports whether the connection is usable.
func (p *Publisher) Ping() error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats: %s", p.conn.Status())
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection with reconnects enabled.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
