// Package coordinator subscribes to every gateway's inbound event
// stream, resolves each message to a registered endpoint, classifies
// it into the semantic event taxonomy, and republishes it on a single
// broadcast channel. It holds no mutable per-endpoint state — callers
// needing last-known values keep their own cache.
package coordinator

import (
	"context"
	"sync"

	"github.com/opennetty/opennetty/internal/endpoint"
	"github.com/opennetty/opennetty/internal/logging"
	"github.com/opennetty/opennetty/internal/protocol"
	"github.com/opennetty/opennetty/internal/service"
)

// Coordinator routes classified inbound events from a fixed set of
// dialects to a single broadcast channel.
type Coordinator struct {
	svc      *service.Service
	idx      *endpoint.Index
	dialects []protocol.Dialect
	logger   logging.Logger

	out chan Event
}

// New builds a Coordinator over svc, resolving endpoints via idx and
// subscribing to one gateway per dialect in dialects.
func New(svc *service.Service, idx *endpoint.Index, dialects []protocol.Dialect, logger logging.Logger) *Coordinator {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Coordinator{
		svc:      svc,
		idx:      idx,
		dialects: dialects,
		logger:   logger.With("coordinator"),
		out:      make(chan Event, 256),
	}
}

// Events returns the Coordinator's broadcast channel of classified
// events. The publisher never blocks: once full, the oldest queued
// event is dropped to make room for the newest one.
func (c *Coordinator) Events() <-chan Event {
	return c.out
}

// Run subscribes to every configured dialect and forwards classified
// events until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, d := range c.dialects {
		msgs, err := c.svc.Observe(ctx, d, nil)
		if err != nil {
			c.logger.Error("observe failed for dialect %s: %v", d, err)
			continue
		}
		wg.Add(1)
		go func(d protocol.Dialect, msgs <-chan protocol.Message) {
			defer wg.Done()
			c.forward(d, msgs)
		}(d, msgs)
	}
	wg.Wait()
	return nil
}

func (c *Coordinator) forward(dialect protocol.Dialect, msgs <-chan protocol.Message) {
	for msg := range msgs {
		if msg.Address == nil {
			decoded, err := msg.WithDecodedAddress()
			if err != nil {
				c.logger.Warn("dropping message with undecodable address on %s: %v", dialect, err)
				continue
			}
			msg = decoded
		}
		ep, ok := c.idx.Lookup(dialect, msg.Address)
		if !ok {
			// No registered endpoint: skip the semantic event, the raw
			// frame is still observable through the service façade.
			continue
		}
		event, ok := classify(msg)
		if !ok {
			continue
		}
		event.EndpointName = ep.Name
		c.publish(event)
	}
}

func (c *Coordinator) publish(event Event) {
	select {
	case c.out <- event:
		return
	default:
	}
	select {
	case <-c.out:
	default:
	}
	select {
	case c.out <- event:
	default:
	}
}
