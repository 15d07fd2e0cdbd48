package domain

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Default endpoint values used by the simulation host.
const (
	DefaultHost = "localhost"
	DefaultPort = 10000
)

// Endpoint identifies the remote simulation host.
// An Endpoint is treated as immutable once a connection attempt starts.
type Endpoint struct {
	Host string
	Port int
}

// DefaultEndpoint returns localhost:10000.
func DefaultEndpoint() Endpoint {
	return Endpoint{Host: DefaultHost, Port: DefaultPort}
}

// ParseEndpoint parses "host:port". A bare host gets the default port.
func ParseEndpoint(s string) (Endpoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Endpoint{}, fmt.Errorf("%w: empty endpoint", ErrInvalidEndpoint)
	}
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		// No port present.
		ep := Endpoint{Host: strings.Trim(s, "[]"), Port: DefaultPort}
		return ep, ep.Validate()
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: port %q", ErrInvalidEndpoint, portStr)
	}
	ep := Endpoint{Host: host, Port: port}
	return ep, ep.Validate()
}

// Validate checks that the host is set and the port is in range.
func (e Endpoint) Validate() error {
	if strings.TrimSpace(e.Host) == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidEndpoint)
	}
	if e.Port < 1 || e.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidEndpoint, e.Port)
	}
	return nil
}

// Address returns the dialable "host:port" form.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// String implements fmt.Stringer.
func (e Endpoint) String() string {
	return e.Address()
}
