// Package codec converts envelopes to and from their JSON wire form and
// splits the inbound byte stream into frames.
//
// The envelope codec itself assumes no framing: one Encode produces one
// JSON document. Framing is applied by the connection layer with a
// [Framing] mode:
//
//   - [FramingNewline] (default): each document is followed by '\n' and the
//     reader splits on '\n', so coalesced or split TCP segments never merge
//     or cut messages.
//   - [FramingRaw]: no delimiter; one read is one message. This matches
//     peers that predate newline framing and is only correct when the
//     transport happens to preserve write boundaries.
package codec
