// Package notify delivers storefront events (new orders, contact requests,
// delivery requests) to the shop staff and to downstream consumers.
// Delivery is best effort: callers get a bool and never an error.
package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/TARS911/dongfeng-minitraktor-sub001/metrics"
)

const (
	EventOrderCreated      = "order.created"
	EventContactCreated    = "contact.created"
	EventDeliveryRequested = "delivery.requested"
)

type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Event struct {
	Id         string    `json:"id"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Fields     []Field   `json:"-"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(typ, title string, payload any) Event {
	return Event{
		Id:         uuid.NewString(),
		Type:       typ,
		Title:      title,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// With appends a labelled line; empty values are skipped.
func (e Event) With(label, value string) Event {
	if value == "" {
		return e
	}
	e.Fields = append(e.Fields, Field{Label: label, Value: value})
	return e
}

// Notifier is what the services depend on.
type Notifier interface {
	Notify(ctx context.Context, e Event) bool
}

// Sender is one delivery channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, e Event) error
}

// Dispatcher fans an event out to every configured sender concurrently.
type Dispatcher struct {
	senders []Sender
	metrics *metrics.ServerMetrics
}

func NewDispatcher(m *metrics.ServerMetrics, senders ...Sender) *Dispatcher {
	return &Dispatcher{senders: senders, metrics: m}
}

// Notify reports whether every sender accepted the event. With no senders
// configured there is nothing to fail and it returns true.
func (d *Dispatcher) Notify(ctx context.Context, e Event) bool {
	var g errgroup.Group
	for _, s := range d.senders {
		s := s
		g.Go(func() error {
			err := s.Send(ctx, e)
			d.metrics.ObserveNotification(s.Name(), err == nil)
			if err != nil {
				slog.Warn("notification failed", "channel", s.Name(), "event", e.Type, "event_id", e.Id, "err", err)
			}
			return err
		})
	}
	return g.Wait() == nil
}

// Close releases senders holding connections.
func (d *Dispatcher) Close() error {
	var errs []error
	for _, s := range d.senders {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// Noop accepts every event and does nothing with it.
type Noop struct{}

func (Noop) Notify(context.Context, Event) bool { return true }
