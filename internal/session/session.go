// Package session implements the OpenWebNet session state machine: the
// negotiation handshake, the open-password and OPEN-SHA authentication
// schemes, and the lazy inbound Message stream produced once a session
// reaches Ready. It sits on top of internal/transport, terminating one
// byte-level connection into one logical session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/opennetty/opennetty/internal/frame"
	"github.com/opennetty/opennetty/internal/logging"
	"github.com/opennetty/opennetty/internal/protocol"
	"github.com/opennetty/opennetty/internal/transport"
)

// Type identifies which of the three logical OpenWebNet sessions a
// Session negotiates.
type Type int

const (
	Command Type = iota
	Event
	Scenario
)

func (t Type) String() string {
	switch t {
	case Command:
		return "Command"
	case Event:
		return "Event"
	case Scenario:
		return "Scenario"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// negotiationWhat is the WHAT code carried by the *99*N## negotiation
// frame for each session Type.
func (t Type) negotiationWhat() string {
	switch t {
	case Command:
		return "0"
	case Event:
		return "1"
	case Scenario:
		return "9"
	default:
		return "0"
	}
}

// State is the Session's position in its state machine.
type State int

const (
	Created State = iota
	AwaitingAck
	Authenticating
	Ready
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case AwaitingAck:
		return "AwaitingAck"
	case Authenticating:
		return "Authenticating"
	case Ready:
		return "Ready"
	case Closing:
		return "Closing"
	case Closed:
		return "Closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrAuthenticationFailed is returned by Open when either side of the
// handshake rejects the other's credentials.
var ErrAuthenticationFailed = errors.New("authentication failed")

// ErrNegotiationRejected is returned by Open when the gateway NACKs
// the session-type negotiation frame outright.
var ErrNegotiationRejected = errors.New("session negotiation rejected")

// ErrClosed is returned by Send when the session is not Ready (still
// handshaking, closing or closed).
var ErrClosed = errors.New("session closed")

// Credentials carries the shared secrets for both authentication
// schemes; a Session only consults the field its challenge requires.
type Credentials struct {
	// OpenPassword is the pre-shared decimal secret used by the
	// open-password (SCS) scheme.
	OpenPassword string
	// HMACKey is the shared key for the OPEN-SHA HMAC scheme.
	HMACKey string
}

// Session owns exactly one transport.Connection and, once Ready,
// guarantees a single logical OpenWebNet session of Type.
type Session struct {
	conn    transport.Connection
	dialect protocol.Dialect
	kind    Type
	logger  logging.Logger

	mu    sync.Mutex
	state State

	closeOnce sync.Once
}

// Open performs the negotiation handshake (and, if challenged, the
// authentication exchange) over conn, blocking until the session
// reaches Ready or the handshake fails. ctx bounds the entire
// handshake, not just one round-trip.
func Open(ctx context.Context, conn transport.Connection, dialect protocol.Dialect, kind Type, creds Credentials, logger logging.Logger) (*Session, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	s := &Session{conn: conn, dialect: dialect, kind: kind, logger: logger.With("session"), state: Created}

	if err := s.negotiate(ctx, creds); err != nil {
		_ = conn.Close()
		s.setState(Closed)
		return nil, err
	}
	return s, nil
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) negotiationFrame() frame.Frame {
	return frame.New(frame.NewField("99"), frame.NewField(s.kind.negotiationWhat()))
}

func (s *Session) negotiate(ctx context.Context, creds Credentials) error {
	s.setState(AwaitingAck)
	if err := s.conn.Send(ctx, s.negotiationFrame()); err != nil {
		return err
	}

	reply, err := s.conn.Receive(ctx)
	if err != nil {
		return err
	}

	switch {
	case reply.Equal(frame.Ack):
		s.setState(Ready)
		s.logger.Info("%s session ready on first negotiation", s.kind)
		return nil
	case reply.Equal(frame.Nack):
		return ErrNegotiationRejected
	}

	s.setState(Authenticating)
	if err := s.authenticate(ctx, reply, creds); err != nil {
		return err
	}

	// Authentication succeeded; the gateway expects the negotiation
	// frame to be resent and requires a plain ACK this time.
	if err := s.conn.Send(ctx, s.negotiationFrame()); err != nil {
		return err
	}
	final, err := s.conn.Receive(ctx)
	if err != nil {
		return err
	}
	if !final.Equal(frame.Ack) {
		return ErrNegotiationRejected
	}
	s.setState(Ready)
	s.logger.Info("%s session ready after authentication", s.kind)
	return nil
}

// authenticate dispatches to the open-password or OPEN-SHA scheme
// based on the challenge frame's shape: a two-field challenge ("98",
// nonce) is open-password; a three-field challenge ("98", algorithm,
// Ra) is OPEN-SHA.
func (s *Session) authenticate(ctx context.Context, challenge frame.Frame, creds Credentials) error {
	if len(challenge.Fields) == 0 || challenge.Fields[0].Value != "98" {
		return fmt.Errorf("%w: unrecognized challenge shape", ErrAuthenticationFailed)
	}
	switch len(challenge.Fields) {
	case 2:
		return s.authenticateOpenPassword(ctx, challenge.Fields[1].Value, creds.OpenPassword)
	case 3:
		return s.authenticateHMAC(ctx, challenge.Fields[1].Value, challenge.Fields[2].Value, creds.HMACKey)
	default:
		return fmt.Errorf("%w: unrecognized challenge shape", ErrAuthenticationFailed)
	}
}

func (s *Session) authenticateOpenPassword(ctx context.Context, nonce, password string) error {
	response := scrambleOpenPassword(password, nonce)
	if err := s.conn.Send(ctx, frame.New(frame.NewField("#"+response))); err != nil {
		return err
	}
	reply, err := s.conn.Receive(ctx)
	if err != nil {
		return err
	}
	if reply.Equal(frame.Nack) {
		return ErrAuthenticationFailed
	}
	if !reply.Equal(frame.Ack) {
		return fmt.Errorf("%w: unexpected reply to open-password response", ErrAuthenticationFailed)
	}
	return nil
}

func (s *Session) authenticateHMAC(ctx context.Context, algorithm, serverNonce, key string) error {
	scheme, ok := hmacSchemeByCode(algorithm)
	if !ok {
		return fmt.Errorf("%w: unknown HMAC algorithm code %q", ErrAuthenticationFailed, algorithm)
	}
	clientNonce, err := randomNibbleDecimal(scheme.nonceNibbles)
	if err != nil {
		return err
	}
	clientHash := scheme.digest(serverNonce, clientNonce, key)

	if err := s.conn.Send(ctx, frame.New(frame.NewField("98"), frame.NewField(clientNonce), frame.NewField(clientHash))); err != nil {
		return err
	}

	reply, err := s.conn.Receive(ctx)
	if err != nil {
		return err
	}
	if reply.Equal(frame.Nack) {
		return ErrAuthenticationFailed
	}
	if len(reply.Fields) != 2 || reply.Fields[0].Value != "98" {
		return fmt.Errorf("%w: unexpected reply to HMAC response", ErrAuthenticationFailed)
	}
	expected := scheme.digest(clientNonce, serverNonce, key)
	if reply.Fields[1].Value != expected {
		return fmt.Errorf("%w: gateway hash mismatch", ErrAuthenticationFailed)
	}
	return nil
}

// Send writes a frame on this session's connection.
func (s *Session) Send(ctx context.Context, f frame.Frame) error {
	if s.State() != Ready {
		return fmt.Errorf("%w: session not ready", ErrClosed)
	}
	return s.conn.Send(ctx, f)
}

// Messages returns a channel of decoded Messages from the underlying
// Connection; the channel closes when the session closes or the
// connection fails. The single goroutine feeding the channel is the
// session's only reader of the Connection, matching the single-
// producer stream semantics.
func (s *Session) Messages(ctx context.Context) <-chan protocol.Message {
	out := make(chan protocol.Message, 32)
	go func() {
		defer close(out)
		for {
			f, err := s.conn.Receive(ctx)
			if err != nil {
				s.logger.Warn("%s session receive failed, closing: %v", s.kind, err)
				_ = s.Close()
				return
			}
			msg, err := protocol.Classify(s.dialect, f)
			if err != nil {
				s.logger.Warn("%s session dropped unclassifiable frame: %v", s.kind, err)
				continue
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Close idempotently transitions the session to Closed and releases
// its Connection.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.setState(Closing)
		err = s.conn.Close()
		s.setState(Closed)
	})
	return err
}
