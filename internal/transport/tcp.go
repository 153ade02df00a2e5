package transport

import (
	"context"
	"fmt"
	"net"

	"github.com/opennetty/opennetty/internal/logging"
)

// DialTCP opens a TCP Connection to addr (host:port), the transport
// used by BTicino MH20x/F454 gateways and the MyHomeServer emulator.
func DialTCP(ctx context.Context, addr string, logger logging.Logger) (Connection, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrTransport, addr, err)
	}
	return newGenericConnection(conn, logger), nil
}
