package app

import (
	"io"

	"github.com/helios-robotics/simlink/internal/codec"
	"github.com/helios-robotics/simlink/internal/domain"
	"github.com/helios-robotics/simlink/internal/ports"
)

// Receiver reads frames from the simulation host and forwards them to the
// status sink. It never touches connection state; the manager decides what
// to do with the error Run returns.
type Receiver struct {
	frames codec.FrameReader
	sink   ports.StatusSink
	logger ports.Logger
}

// NewReceiver creates a receiver reading r with the given framing.
func NewReceiver(r io.Reader, framing codec.Framing, maxFrameBytes int, sink ports.StatusSink, logger ports.Logger) *Receiver {
	if sink == nil {
		sink = discardSink{}
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Receiver{
		frames: codec.NewFrameReader(r, framing, maxFrameBytes),
		sink:   sink,
		logger: logger,
	}
}

// Run blocks reading frames until the stream ends. It returns io.EOF when
// the peer closed the connection and the read error otherwise. Closing the
// underlying connection from another goroutine makes Run return promptly.
func (r *Receiver) Run() error {
	for {
		frame, err := r.frames.ReadFrame()
		if err != nil {
			return err
		}
		r.handle(frame)
	}
}

// handle decodes one frame. Malformed frames are reported and dropped.
func (r *Receiver) handle(frame []byte) {
	env, err := codec.Decode(frame)
	if err != nil {
		r.logger.Debug("unparsed frame",
			ports.Int("bytes", len(frame)),
			ports.Err(err),
		)
		ev := domain.NewStatusEvent(domain.EventUnparsed, "Received: "+string(frame)).WithErr(err)
		ev.Raw = frame
		r.sink.Publish(ev)
		return
	}

	if !env.Kind.Known() {
		r.logger.Debug("unknown envelope kind", ports.String("kind", string(env.Kind)))
	}
	ev := domain.NewStatusEvent(domain.EventReceived, "Received: "+string(frame))
	ev.Envelope = &env
	ev.Raw = frame
	r.sink.Publish(ev)
}
