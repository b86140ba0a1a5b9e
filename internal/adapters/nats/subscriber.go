package natsadapter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
	subs    []*nats.Subscription
}

// NewSubscriber creates a subscriber. durable names the consumer so that
// replicas of one service share deliveries.
func NewSubscriber(url, durable string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js, durable: durable}, nil
}

// SubscribeBusinessUpdated delivers every business update. Messages are
// redelivered up to three times if handler fails.
func (s *Subscriber) SubscribeBusinessUpdated(ctx context.Context, handler func(ctx context.Context, businessID int64) error) error {
	sub, err := s.js.Subscribe(businessWildcard, func(msg *nats.Msg) {
		id, err := ParseBusinessSubject(msg.Subject)
		if err != nil {
			// Unparseable subjects will never succeed.
			_ = msg.Term()
			return
		}
		if err := handler(ctx, id); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(s.durable+"-business-updated"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
		nats.DeliverNew(),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// ParseBusinessSubject extracts the business ID from a per-business subject.
func ParseBusinessSubject(subject string) (int64, error) {
	rest, ok := strings.CutPrefix(subject, subjectBusiness+".")
	if !ok {
		return 0, fmt.Errorf("unexpected subject %q", subject)
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("subject %q: %w", subject, err)
	}
	return id, nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
