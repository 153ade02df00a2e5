package gateway_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennetty/opennetty/internal/frame"
	"github.com/opennetty/opennetty/internal/gateway"
	"github.com/opennetty/opennetty/internal/protocol"
	"github.com/opennetty/opennetty/internal/transport"
)

// mockGateway answers every *99*N## negotiation with ACK, then runs
// respond against every subsequent frame it receives.
type mockGateway struct {
	conn    net.Conn
	respond func(f frame.Frame) []frame.Frame
}

func (g *mockGateway) serve(t *testing.T) {
	tc := transport.NewConnection(g.conn, nil)
	ctx := context.Background()
	for {
		f, err := tc.Receive(ctx)
		if err != nil {
			return
		}
		if len(f.Fields) >= 1 && f.Fields[0].Value == "99" {
			if err := tc.Send(ctx, frame.Ack); err != nil {
				return
			}
			continue
		}
		for _, reply := range g.respond(f) {
			if err := tc.Send(ctx, reply); err != nil {
				return
			}
		}
	}
}

func newMockDialer(t *testing.T, respond func(f frame.Frame) []frame.Frame) gateway.Dialer {
	return func(ctx context.Context) (transport.Connection, error) {
		client, server := net.Pipe()
		mock := &mockGateway{conn: server, respond: respond}
		go mock.serve(t)
		return transport.NewConnection(client, nil), nil
	}
}

func lightingOnMessage(t *testing.T) protocol.Message {
	addr, err := protocol.NewSCSAddress(1, 1)
	require.NoError(t, err)
	msg, err := protocol.NewBusCommandMessage(protocol.Scs, addr, protocol.CommandLightingOn)
	require.NoError(t, err)
	return msg
}

func TestWorkerDispatchSucceedsOnFirstAck(t *testing.T) {
	dialer := newMockDialer(t, func(f frame.Frame) []frame.Frame {
		return []frame.Frame{frame.Ack}
	})
	w := gateway.New(gateway.Config{
		Name: "scs-1", Dialect: protocol.Scs, Dial: dialer,
		Policy: gateway.PolicyFor(protocol.Scs),
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan struct{})
	go func() { w.Run(ctx); close(runDone) }()

	tx := gateway.NewTransaction(context.Background(), lightingOnMessage(t))
	require.NoError(t, w.Submit(tx))

	select {
	case res := <-tx.Done():
		assert.NoError(t, res.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("transaction never completed")
	}

	cancel()
	<-runDone
}

func TestWorkerRetriesThroughBusyThenSucceeds(t *testing.T) {
	var calls int
	dialer := newMockDialer(t, func(f frame.Frame) []frame.Frame {
		calls++
		if calls < 2 {
			return []frame.Frame{frame.Busy}
		}
		return []frame.Frame{frame.Ack}
	})
	w := gateway.New(gateway.Config{
		Name: "scs-2", Dialect: protocol.Scs, Dial: dialer,
		Policy: gateway.PolicyFor(protocol.Scs),
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan struct{})
	go func() { w.Run(ctx); close(runDone) }()

	tx := gateway.NewTransaction(context.Background(), lightingOnMessage(t))
	require.NoError(t, w.Submit(tx))

	select {
	case res := <-tx.Done():
		assert.NoError(t, res.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("transaction never completed")
	}

	cancel()
	<-runDone
}

func TestWorkerSurfacesGatewayRejectedAsTerminal(t *testing.T) {
	dialer := newMockDialer(t, func(f frame.Frame) []frame.Frame {
		return []frame.Frame{frame.Nack}
	})
	w := gateway.New(gateway.Config{
		Name: "scs-3", Dialect: protocol.Scs, Dial: dialer,
		Policy: gateway.PolicyFor(protocol.Scs),
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan struct{})
	go func() { w.Run(ctx); close(runDone) }()

	tx := gateway.NewTransaction(context.Background(), lightingOnMessage(t))
	require.NoError(t, w.Submit(tx))

	select {
	case res := <-tx.Done():
		assert.ErrorIs(t, res.Err, gateway.ErrGatewayRejected)
	case <-time.After(2 * time.Second):
		t.Fatal("transaction never completed")
	}

	cancel()
	<-runDone
}
