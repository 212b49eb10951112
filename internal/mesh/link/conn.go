package link

import (
	"io"
	"time"

	"go.bug.st/serial"
)

// deadlineConn is the byte pipe the session runs over. net.Conn
// satisfies it directly; serial ports are adapted below.
type deadlineConn interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// serialConn maps deadline calls onto the serial driver's read timeout.
// Serial writes have no deadline support; they complete against the OS
// buffer and are treated as immediate.
type serialConn struct {
	port serial.Port
}

func (s *serialConn) Read(p []byte) (int, error)  { return s.port.Read(p) }
func (s *serialConn) Write(p []byte) (int, error) { return s.port.Write(p) }
func (s *serialConn) Close() error                { return s.port.Close() }

func (s *serialConn) SetReadDeadline(t time.Time) error {
	if t.IsZero() {
		return s.port.SetReadTimeout(serial.NoTimeout)
	}
	remaining := time.Until(t)
	if remaining <= 0 {
		remaining = time.Millisecond
	}
	return s.port.SetReadTimeout(remaining)
}

func (s *serialConn) SetWriteDeadline(t time.Time) error { return nil }
