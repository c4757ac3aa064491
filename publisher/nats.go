package publisher

import (
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"
)

// Event is the payload broadcast after a successful schedule mutation, so
// other editor sessions know the trip's timetable view is stale.
type Event struct {
	TripID string `json:"tripId"`
	Op     string `json:"op"`
}

// Metrics is the small surface the publisher reports into; a nil Metrics
// disables reporting.
type Metrics interface {
	EventPublishedInc()
	EventPublishErrInc()
	EventsSetConnected(connected bool)
}

// NATSPublisher publishes mutation events to a single subject. Publishing
// is best-effort: a failure is counted and logged but never fails the
// mutation that triggered it.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
	metrics Metrics
}

func NewNATSPublisher(url, subject string, m Metrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("gtfs-timetable"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.EventsSetConnected(false)
			}
			log.Printf("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.EventsSetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.EventsSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.EventsSetConnected(true)
	}
	return &NATSPublisher{nc: nc, subject: subject, metrics: m}, nil
}

// PublishMutation is safe on a nil publisher, which is how the server runs
// when events are not configured.
func (p *NATSPublisher) PublishMutation(tripID, op string) {
	if p == nil || p.nc == nil {
		return
	}
	data, err := json.Marshal(Event{TripID: tripID, Op: op})
	if err != nil {
		return
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		if p.metrics != nil {
			p.metrics.EventPublishErrInc()
		}
		log.Printf("nats publish error: %v", err)
		return
	}
	if p.metrics != nil {
		p.metrics.EventPublishedInc()
	}
}

func (p *NATSPublisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	_ = p.nc.Drain()
	p.nc.Close()
}
