package ports

import (
	"context"
	"net"
)

// Dialer opens stream connections. *net.Dialer satisfies this interface.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}
