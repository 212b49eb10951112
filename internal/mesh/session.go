package mesh

import "context"

// Session is a live connection to the companion device. Implementations
// return (*Event, error) triples with three meaningful shapes: a non-nil
// event for an answered command, a nil event with nil error when the
// device stayed silent, and a non-nil error for transport failures.
//
// Sessions are single-use: the gateway opens one per operation and
// disconnects when the operation completes.
type Session interface {
	// GetSlot reads one channel slot from the device table.
	GetSlot(ctx context.Context, index int) (*Event, error)

	// SetChannel writes a channel name into a slot, instructing the
	// device to generate the secret material.
	SetChannel(ctx context.Context, index int, name string) (*Event, error)

	// SendToSlot transmits a text message on the given slot and waits
	// for the device's acknowledgement.
	SendToSlot(ctx context.Context, index int, text string) (*Event, error)

	// AppStart performs the identity handshake and returns device info.
	AppStart(ctx context.Context) (*Event, error)

	// Contacts reads the device's contact list.
	Contacts(ctx context.Context) (*Event, error)

	// StatusOf requests a telemetry snapshot from the remote node
	// identified by its public key prefix.
	StatusOf(ctx context.Context, publicKeyPrefix []byte) (*Event, error)

	// Disconnect tears the session down. Implementations should return
	// promptly once ctx expires.
	Disconnect(ctx context.Context) error
}

// Provider opens device sessions. The link package supplies the real
// transport-backed implementation; tests substitute fakes.
type Provider interface {
	Open(ctx context.Context) (Session, error)
}
