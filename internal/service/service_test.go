package service_test

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
	"github.com/opennetty/opennetty/internal/service"
	"github.com/opennetty/opennetty/internal/transport"
)

func echoDialer() gateway.Dialer {
	return func(ctx context.Context) (transport.Connection, error) {
		client, server := net.Pipe()
		go func() {
			tc := transport.NewConnection(server, nil)
			bg := context.Background()
			for {
				f, err := tc.Receive(bg)
				if err != nil {
					return
				}
				if len(f.Fields) >= 1 && f.Fields[0].Value == "99" {
					_ = tc.Send(bg, frame.Ack)
					continue
				}
				_ = tc.Send(bg, frame.Ack)
			}
		}()
		return transport.NewConnection(client, nil), nil
	}
}

func TestServiceSendRoutesToDialectWorker(t *testing.T) {
	w := gateway.New(gateway.Config{
		Name: "scs", Dialect: protocol.Scs, Dial: echoDialer(),
		Policy: gateway.PolicyFor(protocol.Scs),
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	svc := service.New(map[protocol.Dialect]*gateway.Worker{protocol.Scs: w})

	addr, err := protocol.NewSCSAddress(1, 1)
	require.NoError(t, err)
	msg, err := protocol.NewBusCommandMessage(protocol.Scs, addr, protocol.CommandLightingOn)
	require.NoError(t, err)

	sendCtx, sendCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer sendCancel()
	_, err = svc.Send(sendCtx, msg)
	assert.NoError(t, err)
}

func TestServiceSendUnknownDialectFails(t *testing.T) {
	svc := service.New(map[protocol.Dialect]*gateway.Worker{})
	addr, err := protocol.NewSCSAddress(1, 1)
	require.NoError(t, err)
	msg, err := protocol.NewBusCommandMessage(protocol.Scs, addr, protocol.CommandLightingOn)
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), msg)
	assert.ErrorIs(t, err, service.ErrNoGatewayForDialect)
}
