// Package gateway implements one dispatch worker per configured
// gateway: it owns the gateway's Event and Command sessions, runs the
// FIFO dispatch protocol against the Command session with a
// gateway-typed retry policy, and republishes every inbound Message
// from the Event session to subscribers.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/opennetty/opennetty/internal/logging"
	"github.com/opennetty/opennetty/internal/protocol"
	"github.com/opennetty/opennetty/internal/session"
	"github.com/opennetty/opennetty/internal/transport"
)

// Dialer opens a fresh transport.Connection for a gateway; supplied by
// the runtime so Worker stays agnostic of TCP vs serial descriptors.
type Dialer func(ctx context.Context) (transport.Connection, error)

// Config is everything a Worker needs to run one gateway.
type Config struct {
	Name        string
	Dialect     protocol.Dialect
	Dial        Dialer
	Credentials session.Credentials
	Policy      Policy
	QueueSize   int // bounded outgoing queue depth; 0 defaults to 64
	Registry    prometheus.Registerer

	// ScenarioSession opens a third, read-only Scenario session
	// alongside Event, for gateway models (scenario-dedicated
	// BTicino/Legrand control points) that only emit scenario
	// notifications on that session type. Its traffic is republished
	// on the same Events() stream as the Event session's.
	ScenarioSession bool
}

// Worker runs a gateway's Event+Command sessions and dispatch loop.
// Create with New, start with Run (blocks until ctx is cancelled),
// submit work with Submit.
type Worker struct {
	cfg    Config
	logger logging.Logger
	queue  chan *Transaction
	events chan protocol.Message

	metrics *metrics

	mu      sync.Mutex
	cmdSess *session.Session
	cmdMsgs <-chan protocol.Message
	evtSess *session.Session
	scnSess *session.Session
	closed  bool
}

// New builds a Worker for cfg. Run must be called to start dispatch.
func New(cfg Config, logger logging.Logger) *Worker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Worker{
		cfg:     cfg,
		logger:  logger.With("gateway:" + cfg.Name),
		queue:   make(chan *Transaction, cfg.QueueSize),
		events:  make(chan protocol.Message, 256),
		metrics: newMetrics(cfg.Registry, cfg.Name),
	}
}

// Events returns the gateway's published inbound-message stream. The
// publisher never blocks: once the channel's buffer is full the
// oldest unread message is dropped to make room for the newest one.
func (w *Worker) Events() <-chan protocol.Message {
	return w.events
}

// Submit enqueues t for dispatch, blocking while the outgoing queue is
// full until space frees up or t's context is cancelled. It returns
// ErrWorkerClosed if the worker has already closed; a Submit that is
// already blocked is not released by the worker closing.
func (w *Worker) Submit(t *Transaction) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrWorkerClosed
	}
	select {
	case w.queue <- t:
		return nil
	case <-t.ctx.Done():
		return t.ctx.Err()
	}
}

// Run opens both sessions and runs the dispatch and event-forwarding
// loops until ctx is cancelled, then closes the Event session before
// the Command session (so no new dispatch work starts draining while
// the read side is still alive) and returns once both have stopped.
func (w *Worker) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		w.runEventLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		w.runDispatchLoop(ctx)
	}()
	if w.cfg.ScenarioSession {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.runScenarioLoop(ctx)
		}()
	}

	wg.Wait()
	return w.closeSessions()
}

func (w *Worker) closeSessions() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true

	var err error
	if w.evtSess != nil {
		if closeErr := w.evtSess.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("closing event session: %w", closeErr))
		}
	}
	if w.scnSess != nil {
		if closeErr := w.scnSess.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("closing scenario session: %w", closeErr))
		}
	}
	if w.cmdSess != nil {
		if closeErr := w.cmdSess.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("closing command session: %w", closeErr))
		}
	}
	return err
}

func (w *Worker) runEventLoop(ctx context.Context) {
	var attempt int
	for ctx.Err() == nil {
		sess, err := w.openSession(ctx, session.Event)
		if err != nil {
			w.logger.Error("event session open failed: %v", err)
			attempt++
			w.sleep(ctx, w.cfg.Policy.openBackoffFor(attempt))
			continue
		}
		attempt = 0
		w.mu.Lock()
		w.evtSess = sess
		w.mu.Unlock()

		w.logger.Info("event session ready")
		for msg := range sess.Messages(ctx) {
			w.publish(msg)
		}
		if ctx.Err() != nil {
			return
		}
		w.logger.Warn("event session lost, reopening")
	}
}

// runScenarioLoop mirrors runEventLoop for gateways that additionally
// expose a dedicated Scenario session; its traffic is republished on
// the same Events() channel, since classification (not session origin)
// determines whether a message becomes a scenario event.
func (w *Worker) runScenarioLoop(ctx context.Context) {
	var attempt int
	for ctx.Err() == nil {
		sess, err := w.openSession(ctx, session.Scenario)
		if err != nil {
			w.logger.Error("scenario session open failed: %v", err)
			attempt++
			w.sleep(ctx, w.cfg.Policy.openBackoffFor(attempt))
			continue
		}
		attempt = 0
		w.mu.Lock()
		w.scnSess = sess
		w.mu.Unlock()

		w.logger.Info("scenario session ready")
		for msg := range sess.Messages(ctx) {
			w.publish(msg)
		}
		if ctx.Err() != nil {
			return
		}
		w.logger.Warn("scenario session lost, reopening")
	}
}

func (w *Worker) publish(msg protocol.Message) {
	select {
	case w.events <- msg:
		return
	default:
	}
	// Buffer full: drop the oldest queued message to make room, per
	// the drop-oldest slow-consumer policy.
	select {
	case <-w.events:
	default:
	}
	select {
	case w.events <- msg:
	default:
	}
}

func (w *Worker) runDispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain(ErrWorkerClosed)
			return
		case t := <-w.queue:
			w.dispatch(ctx, t)
		}
	}
}

func (w *Worker) drain(err error) {
	for {
		select {
		case t := <-w.queue:
			t.complete(Result{Err: err})
		default:
			return
		}
	}
}

// dispatch runs the request/response protocol for t, retrying per
// w.cfg.Policy until it succeeds, hits a terminal failure, or exhausts
// its attempt budget.
func (w *Worker) dispatch(ctx context.Context, t *Transaction) {
	w.metrics.requestsTotal.Inc()
	policy := w.cfg.Policy

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			w.metrics.retriesTotal.Inc()
			w.sleep(ctx, policy.backoffFor(attempt))
		}
		if ctx.Err() != nil {
			t.complete(Result{Err: ctx.Err()})
			return
		}

		values, err := w.attempt(ctx, t, policy.RequestTimeout)
		if err == nil {
			t.complete(Result{Values: values})
			return
		}
		lastErr = err
		if !retryable(err) {
			w.metrics.failuresTotal.WithLabelValues(kindLabel(err)).Inc()
			t.complete(Result{Err: err})
			return
		}
		w.logger.Warn("transaction %s attempt %d/%d failed: %v", t.ID, attempt, policy.MaxAttempts, err)
	}

	w.metrics.failuresTotal.WithLabelValues(kindLabel(lastErr)).Inc()
	t.complete(Result{Err: fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, policy.MaxAttempts, lastErr)})
}

func kindLabel(err error) string {
	switch {
	case errors.Is(err, ErrGatewayBusy):
		return "busy"
	case errors.Is(err, ErrTransactionTimeout):
		return "timeout"
	case errors.Is(err, ErrGatewayRejected):
		return "rejected"
	default:
		return "transport"
	}
}

// attempt writes the request and collects response frames until ACK,
// NACK, Busy, or the request timeout.
func (w *Worker) attempt(ctx context.Context, t *Transaction, timeout time.Duration) ([]string, error) {
	sess, msgs, err := w.commandSession(ctx)
	if err != nil {
		return nil, err
	}

	reqFrame, err := protocol.Encode(t.Request)
	if err != nil {
		return nil, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := sess.Send(attemptCtx, reqFrame); err != nil {
		w.invalidateCommandSession()
		return nil, err
	}

	var values []string
	for {
		msg, err := w.receiveOnCommandSession(attemptCtx, msgs)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, ErrTransactionTimeout
			}
			w.invalidateCommandSession()
			return nil, err
		}
		switch msg.Kind {
		case protocol.KindAck:
			return values, nil
		case protocol.KindNack:
			return nil, ErrGatewayRejected
		case protocol.KindBusy:
			return nil, ErrGatewayBusy
		case protocol.KindDimensionRead:
			values = append(values, msg.Values...)
		case protocol.KindBusCommand, protocol.KindUnknownCommand:
			// A StatusRequest's answer arrives as the current-state
			// BusCommand itself, ACKed afterward; record its symbolic
			// name (or raw WHAT if unresolved) as a reply value.
			if msg.CommandName != "" {
				values = append(values, msg.CommandName)
			} else {
				values = append(values, msg.Command)
			}
		default:
			// Pass-through/unrelated traffic observed on the command
			// session while awaiting our own terminator; ignore it.
		}
	}
}

// receiveOnCommandSession reads the next Message off msgs, the single
// long-lived stream opened for the current Command session — the
// dispatch loop never calls Session.Messages more than once per
// session, since Connection.Receive is not safe for concurrent
// readers.
func (w *Worker) receiveOnCommandSession(ctx context.Context, msgs <-chan protocol.Message) (protocol.Message, error) {
	select {
	case msg, ok := <-msgs:
		if !ok {
			return protocol.Message{}, transport.ErrClosed
		}
		return msg, nil
	case <-ctx.Done():
		return protocol.Message{}, ctx.Err()
	}
}

func (w *Worker) invalidateCommandSession() {
	w.mu.Lock()
	sess := w.cmdSess
	w.cmdSess = nil
	w.cmdMsgs = nil
	w.mu.Unlock()
	if sess != nil {
		_ = sess.Close()
	}
}

// commandSession returns the current Command session and its message
// stream, opening (or reopening) one if needed.
func (w *Worker) commandSession(ctx context.Context) (*session.Session, <-chan protocol.Message, error) {
	w.mu.Lock()
	sess, msgs := w.cmdSess, w.cmdMsgs
	w.mu.Unlock()
	if sess != nil && sess.State() == session.Ready {
		return sess, msgs, nil
	}

	var attempt int
	for {
		attempt++
		sess, err := w.openSession(ctx, session.Command)
		if err == nil {
			msgs := sess.Messages(ctx)
			w.mu.Lock()
			w.cmdSess = sess
			w.cmdMsgs = msgs
			w.mu.Unlock()
			return sess, msgs, nil
		}
		w.metrics.reopensTotal.Inc()
		w.logger.Error("command session open failed (attempt %d): %v", attempt, err)
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		w.sleep(ctx, w.cfg.Policy.openBackoffFor(attempt))
	}
}

func (w *Worker) openSession(ctx context.Context, kind session.Type) (*session.Session, error) {
	openCtx, cancel := context.WithTimeout(ctx, w.cfg.Policy.SessionOpenTimeout)
	defer cancel()

	conn, err := w.cfg.Dial(openCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transport.ErrTransport, err)
	}
	return session.Open(openCtx, conn, w.cfg.Dialect, kind, w.cfg.Credentials, w.logger)
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
