package link

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"go.bug.st/serial"

	"github.com/dwhitmore/meshgate-core/internal/infrastructure/config"
	"github.com/dwhitmore/meshgate-core/internal/mesh"
)

// Provider opens fresh device sessions over the configured transport.
type Provider struct {
	cfg config.DeviceConfig
}

// NewProvider builds a provider for the given device configuration. The
// configuration is assumed validated.
func NewProvider(cfg config.DeviceConfig) *Provider {
	return &Provider{cfg: cfg}
}

var _ mesh.Provider = (*Provider)(nil)

// Open establishes a connection and returns a single-use session.
func (p *Provider) Open(ctx context.Context) (mesh.Session, error) {
	switch p.cfg.Transport {
	case config.TransportTCP:
		conn, err := p.dialTCP(ctx)
		if err != nil {
			return nil, err
		}
		return NewSession(conn), nil
	case config.TransportSerial:
		conn, err := p.openSerial()
		if err != nil {
			return nil, err
		}
		return NewSession(conn), nil
	default:
		return nil, fmt.Errorf("unsupported device transport %q", p.cfg.Transport)
	}
}

func (p *Provider) dialTCP(ctx context.Context) (deadlineConn, error) {
	dialer := net.Dialer{Timeout: p.cfg.GetConnectTimeout()}
	addr := net.JoinHostPort(p.cfg.Host, strconv.Itoa(p.cfg.Port))
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing device at %s: %w", addr, err)
	}
	return conn, nil
}

func (p *Provider) openSerial() (deadlineConn, error) {
	mode := &serial.Mode{BaudRate: p.cfg.BaudRate}
	port, err := serial.Open(p.cfg.SerialPort, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", p.cfg.SerialPort, err)
	}
	return &serialConn{port: port}, nil
}
