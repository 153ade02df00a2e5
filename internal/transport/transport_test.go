package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennetty/opennetty/internal/frame"
	"github.com/opennetty/opennetty/internal/logging"
)

func TestGenericConnectionSendReceiveRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	c := newGenericConnection(client, logging.Nop{})
	s := newGenericConnection(server, logging.Nop{})

	f := frame.New(frame.NewField("1"), frame.NewField("1"), frame.NewField("11"))

	done := make(chan error, 1)
	go func() { done <- c.Send(context.Background(), f) }()

	got, err := s.Receive(context.Background())
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.True(t, got.Equal(f))
}

func TestGenericConnectionReceiveHonorsContextCancel(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	s := newGenericConnection(server, logging.Nop{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.Receive(ctx)
	assert.Error(t, err)
}

func TestGenericConnectionCloseIsIdempotent(t *testing.T) {
	client, _ := net.Pipe()
	c := newGenericConnection(client, logging.Nop{})
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
