package mesh

import (
	"encoding/hex"
	"time"
)

// MaxChannelSlots is the number of channel slots the device firmware
// supports. Probing never goes past this bound.
const MaxChannelSlots = 8

// MaxChannelNameLen is the width of the channel name field in the
// device's slot table. Longer names would be truncated on the wire,
// breaking the collision check, so they are rejected up front.
const MaxChannelNameLen = 32

// EventKind distinguishes the two answered outcomes of a device command.
// The third outcome — no response at all — is represented by a nil *Event.
type EventKind int

const (
	// EventOk is a successful device response.
	EventOk EventKind = iota

	// EventError is the device's explicit error signal. During a slot
	// scan it doubles as the end-of-table sentinel.
	EventError
)

// Event is the device's answer to a single command. Exactly one payload
// field is meaningful, depending on the command that produced it.
type Event struct {
	Kind EventKind

	// Slot carries channel slot contents for slot-read responses.
	Slot ChannelSlot

	// Detail carries the device's error payload or acknowledgement detail.
	Detail string

	// Info carries device identity fields for app-start responses.
	Info *DeviceInfo

	// Contacts carries the contact list for contact-sync responses.
	Contacts []Contact

	// Status carries a telemetry snapshot for status responses.
	Status *DeviceStatus
}

// Contact is a remote node known to the device.
type Contact struct {
	PublicKey []byte    `json:"-"`
	Name      string    `json:"name"`
	LastSeen  time.Time `json:"last_seen,omitzero"`
}

// PublicKeyHex renders the contact's full public key as lowercase hex.
func (c Contact) PublicKeyHex() string {
	return hex.EncodeToString(c.PublicKey)
}

// ChannelSlot is one addressable position in the device's channel table.
type ChannelSlot struct {
	// Index as reported by the device. A negative value means the device
	// omitted it and the probed index should be used instead.
	Index int

	// Name is the human label; empty means possibly unset.
	Name string

	// Secret is the fixed-length channel secret material.
	Secret []byte
}

// SecretHex renders the slot secret as a lowercase hex string.
func (s ChannelSlot) SecretHex() string {
	return hex.EncodeToString(s.Secret)
}

// IsEmpty reports whether the slot is uninitialised: blank name and an
// all-zero secret. This is the firmware's convention; emptiness is
// derived, never stored.
func (s ChannelSlot) IsEmpty() bool {
	if s.Name != "" {
		return false
	}
	for _, c := range s.SecretHex() {
		if c != '0' {
			return false
		}
	}
	return true
}

// ChannelInfo is the response-facing projection of a populated slot.
type ChannelInfo struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	SecretHex string `json:"secret_hex"`
}

// ChannelRef identifies a resolved channel by slot index and canonical name.
type ChannelRef struct {
	Index int    `json:"channel_index"`
	Name  string `json:"channel_name"`
}

// DeviceInfo holds device identity fields from an app-start exchange.
type DeviceInfo struct {
	Name            string `json:"name"`
	Model           string `json:"model,omitempty"`
	FirmwareVersion string `json:"firmware_version,omitempty"`
	PublicKeyPrefix string `json:"public_key_prefix,omitempty"`
}

// RepeaterTelemetry pairs a resolved contact with its status snapshot.
type RepeaterTelemetry struct {
	ContactName string       `json:"contact_name"`
	PublicKey   string       `json:"public_key"`
	Status      DeviceStatus `json:"status"`
}

// DeviceStatus is a telemetry snapshot reported by the device.
type DeviceStatus struct {
	BatteryMillivolts int     `json:"bat"`
	UptimeSeconds     int64   `json:"uptime"`
	NoiseFloor        int     `json:"noise_floor"`
	LastRSSI          int     `json:"last_rssi"`
	LastSNR           float64 `json:"last_snr"`
	TxQueueLen        int     `json:"tx_queue_len"`
	SentTotal         int     `json:"nb_sent"`
	SentFlood         int     `json:"sent_flood"`
	SentDirect        int     `json:"sent_direct"`
	RecvTotal         int     `json:"nb_recv"`
	RecvFlood         int     `json:"recv_flood"`
	RecvDirect        int     `json:"recv_direct"`
	DirectDups        int     `json:"direct_dups"`
	FloodDups         int     `json:"flood_dups"`
	AirtimeSeconds    int64   `json:"airtime"`
	RxAirtimeSeconds  int64   `json:"rx_airtime"`
}
