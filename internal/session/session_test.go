package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennetty/opennetty/internal/frame"
	"github.com/opennetty/opennetty/internal/protocol"
	"github.com/opennetty/opennetty/internal/session"
)

// fakeConnection is a scripted transport.Connection: Receive replays a
// fixed sequence of frames, Send records what was written so tests can
// assert on the exact handshake traffic.
type fakeConnection struct {
	inbound []frame.Frame
	sent    []frame.Frame
	closed  bool
}

func (c *fakeConnection) Send(_ context.Context, f frame.Frame) error {
	c.sent = append(c.sent, f)
	return nil
}

func (c *fakeConnection) Receive(ctx context.Context) (frame.Frame, error) {
	if len(c.inbound) == 0 {
		<-ctx.Done()
		return frame.Frame{}, ctx.Err()
	}
	f := c.inbound[0]
	c.inbound = c.inbound[1:]
	return f, nil
}

func (c *fakeConnection) Close() error {
	c.closed = true
	return nil
}

func TestOpenPlainAckReachesReady(t *testing.T) {
	conn := &fakeConnection{inbound: []frame.Frame{frame.Ack}}
	s, err := session.Open(context.Background(), conn, protocol.Scs, session.Command, session.Credentials{}, nil)
	require.NoError(t, err)
	assert.Equal(t, session.Ready, s.State())
	require.Len(t, conn.sent, 1)
	assert.Equal(t, "*99*0##", conn.sent[0].String())
}

func TestOpenOpenPasswordChallengeSucceeds(t *testing.T) {
	challenge := frame.New(frame.NewField("98"), frame.NewField("123456"))
	conn := &fakeConnection{inbound: []frame.Frame{challenge, frame.Ack, frame.Ack}}
	creds := session.Credentials{OpenPassword: "12345"}

	s, err := session.Open(context.Background(), conn, protocol.Scs, session.Event, creds, nil)
	require.NoError(t, err)
	assert.Equal(t, session.Ready, s.State())

	require.Len(t, conn.sent, 3)
	assert.Equal(t, "99", conn.sent[0].Fields[0].Value)
	assert.Equal(t, byte('#'), conn.sent[1].Fields[0].Value[0])
	assert.Equal(t, "99", conn.sent[2].Fields[0].Value)
}

func TestOpenOpenPasswordChallengeNackFails(t *testing.T) {
	challenge := frame.New(frame.NewField("98"), frame.NewField("1"))
	conn := &fakeConnection{inbound: []frame.Frame{challenge, frame.Nack}}
	creds := session.Credentials{OpenPassword: "1"}

	_, err := session.Open(context.Background(), conn, protocol.Scs, session.Command, creds, nil)
	assert.ErrorIs(t, err, session.ErrAuthenticationFailed)
	assert.True(t, conn.closed)
}

func TestOpenNegotiationNackIsRejected(t *testing.T) {
	conn := &fakeConnection{inbound: []frame.Frame{frame.Nack}}
	_, err := session.Open(context.Background(), conn, protocol.Scs, session.Command, session.Credentials{}, nil)
	assert.ErrorIs(t, err, session.ErrNegotiationRejected)
}

func TestMessagesStreamDecodesFramesUntilCancel(t *testing.T) {
	conn := &fakeConnection{inbound: []frame.Frame{frame.Ack}}
	s, err := session.Open(context.Background(), conn, protocol.Scs, session.Event, session.Credentials{}, nil)
	require.NoError(t, err)

	lighting := frame.New(frame.NewField("1"), frame.NewField("1"), frame.NewField("11"))
	conn.inbound = []frame.Frame{lighting}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	msgs := s.Messages(ctx)
	got := <-msgs
	assert.Equal(t, protocol.KindBusCommand, got.Kind)
	assert.Equal(t, protocol.CommandLightingOn, got.CommandName)
}
