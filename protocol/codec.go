package protocol

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single encoded payload.
const MaxFrameSize = 64 * 1024

var ErrFrameTooLarge = errors.New("frame too large")

// Conn is a bidirectional payload stream. ReadPayload returns an error
// matching ErrUnknownType or ErrMalformed for a well-framed but invalid
// payload; any other error means the stream is unusable.
type Conn interface {
	ReadPayload() (Payload, error)
	WritePayload(p Payload) error
	Close() error
}

// IsProtocolError reports whether err is recoverable by dropping the
// offending payload.
func IsProtocolError(err error) bool {
	return errors.Is(err, ErrUnknownType) || errors.Is(err, ErrMalformed)
}

// Marshal encodes a payload as JSON.
func Marshal(p Payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

// Unmarshal decodes and validates a JSON payload. The payload is returned
// alongside validation errors so callers can report who sent it.
func Unmarshal(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("decode payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// WriteFrame writes p as a 4-byte big-endian length followed by its JSON
// encoding.
func WriteFrame(w io.Writer, p Payload) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}
	if len(data) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(data))
	}

	frame := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[4:], data)

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed payload from r.
func ReadFrame(r io.Reader) (Payload, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Payload{}, err
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > MaxFrameSize {
		return Payload{}, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return Payload{}, fmt.Errorf("read frame body: %w", err)
	}

	return Unmarshal(data)
}
