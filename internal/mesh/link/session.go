package link

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/dwhitmore/meshgate-core/internal/mesh"
)

// Session drives one device connection. Commands are strictly
// sequential; the mutex keeps a stray caller from interleaving frames.
type Session struct {
	mu   sync.Mutex
	conn deadlineConn
}

// NewSession wraps an established connection.
func NewSession(conn deadlineConn) *Session {
	return &Session{conn: conn}
}

var _ mesh.Session = (*Session)(nil)

// GetSlot reads one channel slot from the device table.
func (s *Session) GetSlot(ctx context.Context, index int) (*mesh.Event, error) {
	resp, err := s.exchange(ctx, []byte{cmdGetChannel, byte(index)}, respChannelInfo, respErr)
	if err != nil {
		return nil, err
	}
	if resp[0] == respErr {
		return errorEvent(resp), nil
	}
	slot, err := parseChannelInfo(resp)
	if err != nil {
		return nil, err
	}
	return &mesh.Event{Kind: mesh.EventOk, Slot: slot}, nil
}

// SetChannel writes a channel into a slot. The secret is the first 16
// bytes of SHA-256 over the name, the same derivation the firmware uses,
// so any node creating the channel by name lands on identical material.
func (s *Session) SetChannel(ctx context.Context, index int, name string) (*mesh.Event, error) {
	if len(name) > channelNameLen {
		return nil, fmt.Errorf("channel name %q exceeds %d bytes", name, channelNameLen)
	}
	digest := sha256.Sum256([]byte(name))

	payload := make([]byte, 2+channelNameLen+channelSecretLen)
	payload[0] = cmdSetChannel
	payload[1] = byte(index)
	copy(payload[2:2+channelNameLen], name)
	copy(payload[2+channelNameLen:], digest[:channelSecretLen])

	resp, err := s.exchange(ctx, payload, respOk, respErr)
	if err != nil {
		return nil, err
	}
	if resp[0] == respErr {
		return errorEvent(resp), nil
	}
	return &mesh.Event{Kind: mesh.EventOk}, nil
}

// SendToSlot transmits a plain text message on a channel slot and waits
// for the device's send acknowledgement.
func (s *Session) SendToSlot(ctx context.Context, index int, text string) (*mesh.Event, error) {
	var buf bytes.Buffer
	buf.WriteByte(cmdSendChannelTxtMsg)
	buf.WriteByte(0) // plain text
	buf.WriteByte(byte(index))
	ts := make([]byte, 4)
	binary.LittleEndian.PutUint32(ts, uint32(time.Now().Unix()))
	buf.Write(ts)
	buf.WriteString(text)

	resp, err := s.exchange(ctx, buf.Bytes(), respSent, respOk, respErr)
	if err != nil {
		return nil, err
	}
	if resp[0] == respErr {
		return errorEvent(resp), nil
	}
	return &mesh.Event{Kind: mesh.EventOk}, nil
}

// AppStart performs the identity handshake: the app-start exchange
// yields the node's self info, a device query adds model and firmware.
func (s *Session) AppStart(ctx context.Context) (*mesh.Event, error) {
	payload := append([]byte{cmdAppStart, 0x01, 0, 0, 0, 0, 0, 0}, "meshgate"...)
	resp, err := s.exchange(ctx, payload, respSelfInfo)
	if err != nil {
		return nil, err
	}
	info := parseSelfInfo(resp)

	qresp, err := s.exchange(ctx, []byte{cmdDeviceQuery, 0x01}, respDeviceInfo, respErr)
	if err != nil {
		return nil, err
	}
	if qresp[0] != respErr {
		applyDeviceQuery(info, qresp)
	}
	return &mesh.Event{Kind: mesh.EventOk, Info: info}, nil
}

// Contacts syncs the device's contact list: one request, then a stream
// of contact frames terminated by an end marker.
func (s *Session) Contacts(ctx context.Context) (*mesh.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.applyDeadline(ctx); err != nil {
		return nil, err
	}
	if err := writeFrame(s.conn, []byte{cmdGetContacts}); err != nil {
		return nil, s.wrapTimeout(ctx, err)
	}

	var contacts []mesh.Contact
	for {
		frame, err := readFrame(s.conn)
		if err != nil {
			return nil, s.wrapTimeout(ctx, err)
		}
		if len(frame) == 0 {
			continue
		}
		switch frame[0] {
		case respContactsStart:
			// Carries the expected count; the end marker is authoritative.
		case respContact:
			c, err := parseContact(frame)
			if err != nil {
				continue
			}
			contacts = append(contacts, c)
		case respEndOfContacts:
			return &mesh.Event{Kind: mesh.EventOk, Contacts: contacts}, nil
		case respErr:
			return errorEvent(frame), nil
		default:
			// Pushes and stray responses do not end the stream.
		}
	}
}

// StatusOf requests a telemetry snapshot from the remote node addressed
// by its public key prefix. The answer arrives as a push frame.
func (s *Session) StatusOf(ctx context.Context, publicKeyPrefix []byte) (*mesh.Event, error) {
	payload := append([]byte{cmdSendStatusReq, 0x00}, publicKeyPrefix...)
	resp, err := s.exchange(ctx, payload, pushStatusResponse, respErr)
	if err != nil {
		return nil, err
	}
	if resp[0] == respErr {
		return errorEvent(resp), nil
	}
	status, err := parseStatus(resp)
	if err != nil {
		return nil, err
	}
	return &mesh.Event{Kind: mesh.EventOk, Status: status}, nil
}

// Disconnect closes the underlying connection.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// exchange writes one command frame and reads until a frame with one of
// the wanted codes arrives. Unsolicited pushes and unrelated responses
// are skipped; the context deadline bounds the whole exchange.
func (s *Session) exchange(ctx context.Context, payload []byte, want ...byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.applyDeadline(ctx); err != nil {
		return nil, err
	}
	if err := writeFrame(s.conn, payload); err != nil {
		return nil, s.wrapTimeout(ctx, err)
	}
	for {
		frame, err := readFrame(s.conn)
		if err != nil {
			return nil, s.wrapTimeout(ctx, err)
		}
		if len(frame) == 0 {
			continue
		}
		for _, code := range want {
			if frame[0] == code {
				return frame, nil
			}
		}
	}
}

func (s *Session) applyDeadline(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return err
	}
	return s.conn.SetWriteDeadline(deadline)
}

// wrapTimeout folds transport deadline errors into the context error so
// callers can tell a bounded wait expiring from a broken link.
func (s *Session) wrapTimeout(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func errorEvent(frame []byte) *mesh.Event {
	detail := ""
	if len(frame) > 1 {
		detail = fmt.Sprintf("device error code 0x%02x", frame[1])
	}
	return &mesh.Event{Kind: mesh.EventError, Detail: detail}
}

// parseChannelInfo decodes a channel info frame: code, slot index, a
// 32-byte zero-padded name, and when present a 16-byte secret.
func parseChannelInfo(frame []byte) (mesh.ChannelSlot, error) {
	if len(frame) < 2+channelNameLen {
		return mesh.ChannelSlot{}, fmt.Errorf("channel info frame too short: %d bytes", len(frame))
	}
	slot := mesh.ChannelSlot{
		Index: int(frame[1]),
		Name:  cString(frame[2 : 2+channelNameLen]),
	}
	secret := make([]byte, channelSecretLen)
	if len(frame) >= 2+channelNameLen+channelSecretLen {
		copy(secret, frame[2+channelNameLen:2+channelNameLen+channelSecretLen])
	}
	slot.Secret = secret
	return slot, nil
}

// parseSelfInfo pulls the public key and advertised name out of a self
// info frame. Radio parameters in between are not interesting here.
func parseSelfInfo(frame []byte) *mesh.DeviceInfo {
	info := &mesh.DeviceInfo{}
	if len(frame) >= 35 {
		info.PublicKeyPrefix = hex.EncodeToString(frame[3:9])
	}
	if len(frame) > 57 {
		info.Name = cString(frame[57:])
	}
	return info
}

// applyDeviceQuery fills model and firmware fields from a device query
// response. Older firmware answers with a version byte only.
func applyDeviceQuery(info *mesh.DeviceInfo, frame []byte) {
	if len(frame) < 2 {
		return
	}
	info.FirmwareVersion = fmt.Sprintf("fw-%d", frame[1])
	if len(frame) < 80 {
		return
	}
	idx := 8 // version byte, reserved bytes, build date offset
	idx += 12
	info.Model = cString(frame[idx : idx+40])
	idx += 40
	if v := cString(frame[idx:]); v != "" {
		info.FirmwareVersion = v
	}
}

// wireContact is the fixed-layout contact record inside a contact frame.
type wireContact struct {
	PublicKey  [32]byte
	Type       byte
	Flags      byte
	OutPathLen int8
	OutPath    [64]byte
	AdvName    [32]byte
	LastAdvert uint32
	AdvLat     int32
	AdvLon     int32
	LastMod    uint32
}

func parseContact(frame []byte) (mesh.Contact, error) {
	var wc wireContact
	if err := binary.Read(bytes.NewReader(frame[1:]), binary.LittleEndian, &wc); err != nil {
		return mesh.Contact{}, fmt.Errorf("decoding contact: %w", err)
	}
	key := make([]byte, len(wc.PublicKey))
	copy(key, wc.PublicKey[:])
	return mesh.Contact{
		PublicKey: key,
		Name:      cString(wc.AdvName[:]),
		LastSeen:  time.Unix(int64(wc.LastMod), 0).UTC(),
	}, nil
}

// wireStatus is the packed telemetry blob inside a status response,
// after the code byte, a reserved byte, and the sender's key prefix.
type wireStatus struct {
	Bat        uint16
	TxQueueLen uint16
	NoiseFloor int16
	LastRSSI   int16
	NbRecv     uint32
	NbSent     uint32
	Airtime    uint32
	Uptime     uint32
	SentFlood  uint32
	SentDirect uint32
	RecvFlood  uint32
	RecvDirect uint32
	FullEvts   uint16
	LastSNR    int16 // quarter-dB units
	DirectDups uint16
	FloodDups  uint16
	RxAirtime  uint32
}

func parseStatus(frame []byte) (*mesh.DeviceStatus, error) {
	const blobOffset = 2 + statusKeyPrefixLen
	if len(frame) < blobOffset {
		return nil, fmt.Errorf("status frame too short: %d bytes", len(frame))
	}
	var ws wireStatus
	if err := binary.Read(bytes.NewReader(frame[blobOffset:]), binary.LittleEndian, &ws); err != nil {
		return nil, fmt.Errorf("decoding status: %w", err)
	}
	return &mesh.DeviceStatus{
		BatteryMillivolts: int(ws.Bat),
		UptimeSeconds:     int64(ws.Uptime),
		NoiseFloor:        int(ws.NoiseFloor),
		LastRSSI:          int(ws.LastRSSI),
		LastSNR:           float64(ws.LastSNR) / 4,
		TxQueueLen:        int(ws.TxQueueLen),
		SentTotal:         int(ws.NbSent),
		SentFlood:         int(ws.SentFlood),
		SentDirect:        int(ws.SentDirect),
		RecvTotal:         int(ws.NbRecv),
		RecvFlood:         int(ws.RecvFlood),
		RecvDirect:        int(ws.RecvDirect),
		DirectDups:        int(ws.DirectDups),
		FloodDups:         int(ws.FloodDups),
		AirtimeSeconds:    int64(ws.Airtime),
		RxAirtimeSeconds:  int64(ws.RxAirtime),
	}, nil
}

// statusKeyPrefixLen mirrors the addressing width of a status request.
const statusKeyPrefixLen = 6

// cString trims a zero-padded byte field to its string content.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
