package link

import (
	"encoding/binary"
	"fmt"
	"io"
)

// writeFrame wraps payload in the outbound frame header and writes it in
// a single call so partial frames never hit the wire.
func writeFrame(w io.Writer, payload []byte) error {
	if len(payload) > maxFrameLen {
		return fmt.Errorf("payload too large: %d bytes", len(payload))
	}
	frame := make([]byte, 3+len(payload))
	frame[0] = frameOutbound
	binary.LittleEndian.PutUint16(frame[1:3], uint16(len(payload)))
	copy(frame[3:], payload)
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// readFrame reads one inbound frame and returns its payload.
func readFrame(r io.Reader) ([]byte, error) {
	head := make([]byte, 3)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("reading frame header: %w", err)
	}
	if head[0] != frameInbound {
		return nil, fmt.Errorf("unexpected frame marker 0x%02x", head[0])
	}
	size := binary.LittleEndian.Uint16(head[1:3])
	if size > maxFrameLen {
		return nil, fmt.Errorf("frame too large: %d bytes", size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("reading frame payload: %w", err)
	}
	return payload, nil
}
