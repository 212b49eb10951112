package mesh

import "errors"

// Sentinel errors for gateway operations. Callers classify failures with
// errors.Is; wrapped variants carry operation detail.
var (
	// ErrInvalidArgument indicates a request that fails validation before
	// any device traffic occurs.
	ErrInvalidArgument = errors.New("mesh: invalid argument")

	// ErrConnectionFailed indicates the device session could not be
	// established, or an established link failed mid-write.
	ErrConnectionFailed = errors.New("mesh: device connection failed")

	// ErrChannelNotFound indicates no populated slot matched the
	// requested channel name.
	ErrChannelNotFound = errors.New("mesh: channel not found")

	// ErrChannelExists indicates a populated slot already carries the
	// requested name, compared case-insensitively.
	ErrChannelExists = errors.New("mesh: channel already exists")

	// ErrContactNotFound indicates no device contact matched the
	// requested name or public key.
	ErrContactNotFound = errors.New("mesh: contact not found")

	// ErrNoFreeSlot indicates every probed slot is populated.
	ErrNoFreeSlot = errors.New("mesh: no free channel slot")

	// ErrDeviceRejected indicates the device answered a command with its
	// explicit error signal, or failed to acknowledge it.
	ErrDeviceRejected = errors.New("mesh: device rejected command")

	// ErrDeviceTimeout indicates the device produced no acknowledgement
	// within the bounded wait.
	ErrDeviceTimeout = errors.New("mesh: device timeout")
)
