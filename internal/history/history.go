package history

import (
	"context"
	"errors"
	"io"
	"time"
)

// EventType defines the kind of lifecycle operation recorded.
type EventType string

const (
	EventStart   EventType = "start"
	EventStop    EventType = "stop"
	EventRestart EventType = "restart"
	EventKillAll EventType = "kill_all"
)

// Outcome of the recorded operation.
type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeFailed Outcome = "failed"
)

// Event is one completed lifecycle operation on the gateway service.
// PID is the listener observed at the end of the operation, 0 when none.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Port       int       `json:"port"`
	PID        int       `json:"pid"`
	Outcome    Outcome   `json:"outcome"`
	Message    string    `json:"message"`
}

// Sink is a destination for history events.
// Implementations must be safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}

// Reader is implemented by sinks that can be queried back.
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// ErrNotQueryable is returned by Recent when no configured sink is a Reader.
var ErrNotQueryable = errors.New("history sink does not support queries")

// Recent reads from s, or from the first Reader inside a Multi.
func Recent(ctx context.Context, s Sink, limit int) ([]Event, error) {
	switch v := s.(type) {
	case Reader:
		return v.Recent(ctx, limit)
	case Multi:
		for _, inner := range v {
			if r, ok := inner.(Reader); ok {
				return r.Recent(ctx, limit)
			}
		}
	}
	return nil, ErrNotQueryable
}

// TableName is the relational table every SQL sink writes to.
const TableName = "service_history"

// Close releases the sink if it holds resources.
func Close(s Sink) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Multi fans an event out to several sinks. All sinks are tried; errors are joined.
type Multi []Sink

func (m Multi) Send(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Send(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := Close(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
