package coordinator_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennetty/opennetty/internal/coordinator"
	"github.com/opennetty/opennetty/internal/endpoint"
	"github.com/opennetty/opennetty/internal/frame"
	"github.com/opennetty/opennetty/internal/gateway"
	"github.com/opennetty/opennetty/internal/protocol"
	"github.com/opennetty/opennetty/internal/service"
	"github.com/opennetty/opennetty/internal/transport"
)

// scriptedDialer acks negotiation and replays scripted frames on the
// Event session as soon as it opens.
func scriptedDialer(t *testing.T, eventFrames []frame.Frame) gateway.Dialer {
	t.Helper()
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
				if len(f.Fields) >= 2 && f.Fields[0].Value == "99" {
					isEvent := f.Fields[1].Value == "1"
					_ = tc.Send(bg, frame.Ack)
					if isEvent {
						for _, ef := range eventFrames {
							_ = tc.Send(bg, ef)
						}
					}
					continue
				}
				_ = tc.Send(bg, frame.Ack)
			}
		}()
		return transport.NewConnection(client, nil), nil
	}
}

func TestCoordinatorPublishesSwitchStateForRegisteredEndpoint(t *testing.T) {
	addr, err := protocol.NewSCSAddress(1, 1)
	require.NoError(t, err)
	onFrame, err := protocol.Encode(mustMessage(t, protocol.NewBusCommandMessage(protocol.Scs, addr, protocol.CommandLightingOn)))
	require.NoError(t, err)

	w := gateway.New(gateway.Config{
		Name: "scs", Dialect: protocol.Scs, Dial: scriptedDialer(t, []frame.Frame{onFrame}),
		Policy: gateway.PolicyFor(protocol.Scs),
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	svc := service.New(map[protocol.Dialect]*gateway.Worker{protocol.Scs: w})

	idx, err := endpoint.NewIndex([]endpoint.Endpoint{
		{Name: "kitchen-light", Dialect: protocol.Scs, Address: addr, DeviceBrand: "BTicino", DeviceModel: "F411/2", Unit: 1},
	})
	require.NoError(t, err)

	c := coordinator.New(svc, idx, []protocol.Dialect{protocol.Scs}, nil)
	go c.Run(ctx)

	select {
	case ev := <-c.Events():
		assert.Equal(t, coordinator.SwitchStateReported, ev.Kind)
		assert.Equal(t, "kitchen-light", ev.EndpointName)
		assert.True(t, ev.On)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for coordinator event")
	}
}

func mustMessage(t *testing.T, msg protocol.Message, err error) protocol.Message {
	t.Helper()
	require.NoError(t, err)
	return msg
}
