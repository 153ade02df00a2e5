// Package service provides the Send/Observe façade over the set of
// running gateway workers: Send(ctx, msg) routes msg to the worker
// owning its dialect, and Observe(ctx, dialect, filter) exposes a
// cancellable, filtered view of that worker's event stream.
package service

import (
	"context"
	"fmt"

	"github.com/opennetty/opennetty/internal/gateway"
	"github.com/opennetty/opennetty/internal/protocol"
)

// ErrNoGatewayForDialect is returned by Send/Observe when no worker
// has been registered for the requested dialect.
var ErrNoGatewayForDialect = fmt.Errorf("no gateway registered for dialect")

// Service is the façade over every running gateway.Worker, keyed by
// the dialect it serves.
type Service struct {
	workers map[protocol.Dialect]*gateway.Worker
}

// New builds a Service over workers, one per dialect it serves.
func New(workers map[protocol.Dialect]*gateway.Worker) *Service {
	return &Service{workers: workers}
}

// Send submits msg to the worker serving msg.Dialect and blocks until
// the transaction completes or ctx is cancelled, returning the
// accumulated dimension-read values on success.
func (s *Service) Send(ctx context.Context, msg protocol.Message) ([]string, error) {
	w, ok := s.workers[msg.Dialect]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoGatewayForDialect, msg.Dialect)
	}
	t := gateway.NewTransaction(ctx, msg)
	if err := w.Submit(t); err != nil {
		return nil, err
	}
	select {
	case res := <-t.Done():
		return res.Values, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Filter decides whether a Message should be delivered to an Observe
// subscriber.
type Filter func(protocol.Message) bool

// Observe returns a channel of Messages from the worker serving
// dialect, filtered by filter (nil accepts everything). The channel
// closes when ctx is cancelled.
func (s *Service) Observe(ctx context.Context, dialect protocol.Dialect, filter Filter) (<-chan protocol.Message, error) {
	w, ok := s.workers[dialect]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoGatewayForDialect, dialect)
	}
	out := make(chan protocol.Message, 32)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-w.Events():
				if !ok {
					return
				}
				if filter != nil && !filter(msg) {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
