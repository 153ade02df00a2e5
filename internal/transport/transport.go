// Package transport provides a Connection over either a TCP socket or
// a local serial port, with frame-atomic reads built on
// internal/frame.Extractor.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/opennetty/opennetty/internal/frame"
	"github.com/opennetty/opennetty/internal/logging"
)

// ErrClosed is returned by Receive once the underlying transport has
// reached EOF or been closed.
var ErrClosed = errors.New("transport closed")

// ErrTransport wraps every other I/O failure from Connection methods.
var ErrTransport = errors.New("transport error")

// readChunkSize is how much is read from the OS handle per Read call
// before handing bytes to the frame extractor.
const readChunkSize = 512

// Connection is a half-duplex byte transport carrying one logical
// OpenWebNet conversation. A Connection is owned exclusively by its
// Session; concurrent Send calls are not safe (Session enforces
// this), but one concurrent Send and one concurrent Receive from
// different goroutines are fine.
type Connection interface {
	// Send serializes and writes exactly one frame.
	Send(ctx context.Context, f frame.Frame) error
	// Receive returns the next complete frame, blocking until one
	// arrives, the deadline in ctx fires, or the connection closes.
	Receive(ctx context.Context) (frame.Frame, error)
	// Close releases the OS handle. Idempotent.
	Close() error
}

// rawConn is satisfied by both net.Conn and go.bug.st/serial.Port.
type rawConn interface {
	io.ReadWriteCloser
}

// genericConnection implements Connection over any rawConn, factoring
// out the framing logic shared by the TCP and serial variants.
type genericConnection struct {
	conn      rawConn
	extractor *frame.Extractor
	logger    logging.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewConnection wraps an arbitrary io.ReadWriteCloser as a Connection,
// applying the same frame-atomic buffering as the TCP and serial
// variants. Used directly by in-process transports (e.g. a test
// harness driving both ends of a net.Pipe).
func NewConnection(conn io.ReadWriteCloser, logger logging.Logger) Connection {
	return newGenericConnection(conn, logger)
}

func newGenericConnection(conn rawConn, logger logging.Logger) *genericConnection {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &genericConnection{conn: conn, extractor: frame.NewExtractor(), logger: logger.With("transport")}
}

func (c *genericConnection) Send(ctx context.Context, f frame.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := frame.Serialize(f)
	c.logger.Debug("TX: %s", out)
	if deadline, ok := ctx.Deadline(); ok {
		if dc, ok := any(c.conn).(interface{ SetWriteDeadline(time.Time) error }); ok {
			_ = dc.SetWriteDeadline(deadline)
		}
	}
	if _, err := c.conn.Write(out); err != nil {
		return fmt.Errorf("%w: write: %v", ErrTransport, err)
	}
	return nil
}

func (c *genericConnection) Receive(ctx context.Context) (frame.Frame, error) {
	for {
		f, ok, err := c.extractor.Next()
		if err != nil {
			c.logger.Warn("resync after malformed frame: %v", err)
			continue
		}
		if ok {
			c.logger.Debug("RX: %s", f.String())
			return f, nil
		}

		if err := ctx.Err(); err != nil {
			return frame.Frame{}, err
		}
		if dc, ok := any(c.conn).(interface{ SetReadDeadline(time.Time) error }); ok {
			// A ctx without a deadline yields the zero time, which clears
			// any read deadline left by an earlier call.
			deadline, _ := ctx.Deadline()
			_ = dc.SetReadDeadline(deadline)
		}

		buf := make([]byte, readChunkSize)
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.extractor.Feed(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return frame.Frame{}, ErrClosed
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return frame.Frame{}, fmt.Errorf("%w: read timeout: %v", ErrTransport, err)
			}
			return frame.Frame{}, fmt.Errorf("%w: read: %v", ErrTransport, err)
		}
	}
}

func (c *genericConnection) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
