package runtime_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opennetty/opennetty/internal/config"
	"github.com/opennetty/opennetty/internal/frame"
	"github.com/opennetty/opennetty/internal/runtime"
	"github.com/opennetty/opennetty/internal/transport"
)

// serveAckingGateway accepts one connection on ln and ACKs every frame
// it receives, until ln is closed.
func serveAckingGateway(t *testing.T, ln net.Listener) {
	t.Helper()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				tc := transport.NewConnection(conn, nil)
				bg := context.Background()
				for {
					if _, err := tc.Receive(bg); err != nil {
						return
					}
					if err := tc.Send(bg, frame.Ack); err != nil {
						return
					}
				}
			}(conn)
		}
	}()
}

func TestRuntimeStartsAndClosesGateway(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	serveAckingGateway(t, ln)

	cfg := &config.File{
		Gateways: []config.GatewayConfig{
			{Name: "scs-gw", Dialect: "scs", Address: ln.Addr().String()},
		},
		Endpoints: []config.EndpointConfig{
			{Name: "kitchen-light", Dialect: "scs", SCSArea: 1, SCSPoint: 3, DeviceBrand: "BTicino", DeviceModel: "F429", Unit: 1},
		},
	}

	rt, err := runtime.New(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("runtime did not shut down after context cancellation")
	}
}

func TestNewRejectsGatewayWithNoTransportDescriptor(t *testing.T) {
	cfg := &config.File{
		Gateways: []config.GatewayConfig{{Name: "broken", Dialect: "scs"}},
	}
	_, err := runtime.New(cfg, nil)
	require.Error(t, err)
}
