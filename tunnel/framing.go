package tunnel

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	frameHeaderSize = 4

	// MaxFrameSize bounds the payload of a single frame.
	MaxFrameSize = 16 << 20
)

// Frames are a 4 byte big-endian payload length followed by the payload.
func writeFrame(w io.Writer, payload []byte) error {
	if len(payload) == 0 {
		return &TransportError{Op: "writing frame", Err: errors.New("empty frame")}
	}
	if len(payload) > MaxFrameSize {
		return &TransportError{Op: "writing frame", Err: fmt.Errorf("frame of %d bytes exceeds limit of %d", len(payload), MaxFrameSize)}
	}

	frame := make([]byte, frameHeaderSize+len(payload))
	binary.BigEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[frameHeaderSize:], payload)

	if _, err := w.Write(frame); err != nil {
		return &TransportError{Op: "writing frame", Err: err}
	}
	return nil
}

func readFrame(r io.Reader) ([]byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		// io.ReadFull reports io.EOF only when no byte was read.
		if errors.Is(err, io.EOF) {
			return nil, ErrEndOfStream
		}
		return nil, &TransportError{Op: "reading frame header", Err: err}
	}

	size := binary.BigEndian.Uint32(header[:])
	if size == 0 {
		return nil, &TransportError{Op: "reading frame header", Err: errors.New("empty frame")}
	}
	if size > MaxFrameSize {
		return nil, &TransportError{Op: "reading frame header", Err: fmt.Errorf("frame of %d bytes exceeds limit of %d", size, MaxFrameSize)}
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, &TransportError{Op: "reading frame payload", Err: err}
	}
	return payload, nil
}
