package link

import "github.com/dwhitmore/meshgate-core/internal/mesh"

// Frame direction markers.
const (
	frameOutbound = 0x3c
	frameInbound  = 0x3e
)

// maxFrameLen bounds inbound payloads; anything larger is a framing error.
const maxFrameLen = 4096

// Command codes sent to the device.
const (
	cmdAppStart          = 0x01
	cmdSendChannelTxtMsg = 0x03
	cmdGetContacts       = 0x04
	cmdDeviceQuery       = 0x16
	cmdSendStatusReq     = 0x1b
	cmdGetChannel        = 0x1f
	cmdSetChannel        = 0x20
)

// Response codes received from the device.
const (
	respOk            = 0x00
	respErr           = 0x01
	respContactsStart = 0x02
	respContact       = 0x03
	respEndOfContacts = 0x04
	respSelfInfo      = 0x05
	respSent          = 0x06
	respDeviceInfo    = 0x0d
	respChannelInfo   = 0x12
)

// Unsolicited push codes.
const (
	pushStatusResponse = 0x87
	pushThreshold      = 0x80
)

// Fixed field widths in channel frames. The name width is mirrored by
// mesh.MaxChannelNameLen, which gates names before they reach a session.
const (
	channelNameLen   = mesh.MaxChannelNameLen
	channelSecretLen = 16
)
