package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/helios-robotics/simlink/internal/domain"
)

// Framing selects how envelopes are delimited on the stream.
type Framing string

const (
	FramingNewline Framing = "newline"
	FramingRaw     Framing = "raw"
)

const (
	// DefaultMaxFrameBytes bounds a single newline-delimited frame.
	DefaultMaxFrameBytes = 1 << 20

	// rawReadSize is the read size for raw framing; one read is one message.
	rawReadSize = 4096
)

// ParseFraming parses a framing name. The empty string selects FramingNewline.
func ParseFraming(s string) (Framing, error) {
	switch Framing(strings.ToLower(strings.TrimSpace(s))) {
	case "", FramingNewline:
		return FramingNewline, nil
	case FramingRaw:
		return FramingRaw, nil
	default:
		return "", fmt.Errorf("%w: unknown framing %q", domain.ErrInvalidConfig, s)
	}
}

// Frame returns payload with the delimiter for this framing appended.
// The input slice is never modified.
func (f Framing) Frame(payload []byte) []byte {
	if f == FramingRaw {
		return payload
	}
	out := make([]byte, len(payload)+1)
	copy(out, payload)
	out[len(payload)] = '\n'
	return out
}

// FrameReader yields one inbound frame per call.
type FrameReader interface {
	// ReadFrame blocks until a frame is available. It returns io.EOF when the
	// peer closed the stream and any other error when the read failed.
	ReadFrame() ([]byte, error)
}

// NewFrameReader wraps r with the reader for the given framing.
// A non-positive maxBytes selects DefaultMaxFrameBytes.
func NewFrameReader(r io.Reader, f Framing, maxBytes int) FrameReader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFrameBytes
	}
	if f == FramingRaw {
		return &rawReader{r: r, buf: make([]byte, rawReadSize)}
	}
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024), max: maxBytes}
}

// lineReader splits the stream on '\n'.
type lineReader struct {
	r   *bufio.Reader
	max int
	err error
}

func (l *lineReader) ReadFrame() ([]byte, error) {
	for {
		if l.err != nil {
			return nil, l.err
		}
		line, err := l.readLine()
		if err != nil {
			// Deliver a final undelimited frame before reporting the error.
			l.err = err
			if len(line) == 0 {
				return nil, err
			}
		}
		line = bytes.TrimRight(line, "\r\n")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		return line, nil
	}
}

func (l *lineReader) readLine() ([]byte, error) {
	var line []byte
	for {
		chunk, err := l.r.ReadSlice('\n')
		if len(line)+len(chunk) > l.max+1 {
			return nil, fmt.Errorf("%w: exceeds %d bytes", domain.ErrFrameTooLarge, l.max)
		}
		line = append(line, chunk...)
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, err
	}
}

// rawReader treats each successful read as one frame.
type rawReader struct {
	r   io.Reader
	buf []byte
	err error
}

func (r *rawReader) ReadFrame() ([]byte, error) {
	for {
		if r.err != nil {
			return nil, r.err
		}
		n, err := r.r.Read(r.buf)
		if err != nil {
			r.err = err
		}
		if n > 0 {
			frame := make([]byte, n)
			copy(frame, r.buf[:n])
			if len(bytes.TrimSpace(frame)) == 0 {
				continue
			}
			return frame, nil
		}
	}
}
