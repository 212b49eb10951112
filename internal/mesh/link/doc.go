// Package link speaks the companion radio's binary frame protocol over
// TCP or a serial port and adapts it to the mesh.Session contract.
//
// Every frame is a one-byte direction marker (0x3c outbound, 0x3e
// inbound), a little-endian uint16 payload length, and the payload. The
// first payload byte is a command or response code; codes at 0x80 and
// above are unsolicited pushes and are skipped while a command awaits
// its reply.
package link
