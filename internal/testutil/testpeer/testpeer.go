// Package testpeer provides a loopback TCP peer that stands in for the
// simulation host in tests.
package testpeer

import (
	"bufio"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/helios-robotics/simlink/internal/domain"
)

// Peer accepts connections on 127.0.0.1 and records every newline-delimited
// line it receives.
type Peer struct {
	ln    net.Listener
	lines chan string
	conns chan net.Conn

	mu       sync.Mutex
	current  net.Conn
	accepted int
	wg       sync.WaitGroup
}

// Start listens on an ephemeral port. The peer is closed by t.Cleanup.
func Start(t testing.TB) *Peer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	p := &Peer{
		ln:    ln,
		lines: make(chan string, 256),
		conns: make(chan net.Conn, 16),
	}
	p.wg.Add(1)
	go p.acceptLoop()
	t.Cleanup(p.Close)
	return p
}

func (p *Peer) acceptLoop() {
	defer p.wg.Done()
	for {
		conn, err := p.ln.Accept()
		if err != nil {
			return
		}
		p.mu.Lock()
		p.current = conn
		p.accepted++
		p.mu.Unlock()
		p.conns <- conn

		p.wg.Add(1)
		go func(c net.Conn) {
			defer p.wg.Done()
			sc := bufio.NewScanner(c)
			for sc.Scan() {
				p.lines <- sc.Text()
			}
		}(conn)
	}
}

// Endpoint returns the endpoint the peer listens on.
func (p *Peer) Endpoint() domain.Endpoint {
	addr := p.ln.Addr().(*net.TCPAddr)
	return domain.Endpoint{Host: "127.0.0.1", Port: addr.Port}
}

// Accepted returns the number of connections accepted so far.
func (p *Peer) Accepted() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accepted
}

// WaitConn returns the next accepted connection.
func (p *Peer) WaitConn(t testing.TB, timeout time.Duration) net.Conn {
	t.Helper()
	select {
	case c := <-p.conns:
		return c
	case <-time.After(timeout):
		t.Fatalf("no connection accepted within %v", timeout)
		return nil
	}
}

// NextLine returns the next line received from any connection.
func (p *Peer) NextLine(t testing.TB, timeout time.Duration) string {
	t.Helper()
	select {
	case l := <-p.lines:
		return l
	case <-time.After(timeout):
		t.Fatalf("no line received within %v", timeout)
		return ""
	}
}

// ExpectSilence fails if any line arrives within d.
func (p *Peer) ExpectSilence(t testing.TB, d time.Duration) {
	t.Helper()
	select {
	case l := <-p.lines:
		t.Fatalf("unexpected line received: %q", l)
	case <-time.After(d):
	}
}

// Write sends raw bytes on the most recently accepted connection.
func (p *Peer) Write(t testing.TB, s string) {
	t.Helper()
	p.mu.Lock()
	c := p.current
	p.mu.Unlock()
	if c == nil {
		t.Fatal("no connection to write to")
	}
	if _, err := c.Write([]byte(s)); err != nil {
		t.Fatalf("peer write: %v", err)
	}
}

// CloseConn closes the most recently accepted connection.
func (p *Peer) CloseConn() {
	p.mu.Lock()
	c := p.current
	p.current = nil
	p.mu.Unlock()
	if c != nil {
		_ = c.Close()
	}
}

// Close stops accepting and closes the current connection.
func (p *Peer) Close() {
	_ = p.ln.Close()
	p.CloseConn()
}
