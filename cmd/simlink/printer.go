package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/helios-robotics/simlink/pkg/simlink"
)

// printer writes status events and replies as lines. It is safe for
// concurrent use.
type printer struct {
	mu    sync.Mutex
	w     io.Writer
	color bool

	// verbose also prints state_changed events.
	verbose bool
}

func newPrinter(w io.Writer, color bool) *printer {
	return &printer{w: w, color: color}
}

func (p *printer) event(ev simlink.StatusEvent) {
	if ev.Type == simlink.EventStateChanged && !p.verbose {
		return
	}
	line := ev.String()
	if p.color {
		if c, ok := eventColors[ev.Type]; ok {
			line = c.Sprint(line)
		}
	}
	p.printf("%s %s\n", ev.Time.Format("15:04:05.000"), line)
}

func (p *printer) printAll(events []simlink.StatusEvent) {
	for _, ev := range events {
		p.event(ev)
	}
}

func (p *printer) errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if p.color {
		msg = text.FgRed.Sprint(msg)
	}
	p.printf("error: %s\n", msg)
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

var eventColors = map[simlink.EventType]text.Color{
	simlink.EventConnected:      text.FgGreen,
	simlink.EventDisconnected:   text.FgYellow,
	simlink.EventConnectFailed:  text.FgRed,
	simlink.EventConnectionLost: text.FgRed,
	simlink.EventSendFailed:     text.FgRed,
	simlink.EventUnparsed:       text.FgMagenta,
	simlink.EventReceived:       text.FgCyan,
}

// Write lets tables render through the printer.
func (p *printer) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.w.Write(b)
}
