package mesh

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dwhitmore/meshgate-core/internal/infrastructure/logging"
)

// Config bounds the gateway's device interactions.
type Config struct {
	// ProbeTimeout bounds a single slot read during a scan.
	ProbeTimeout time.Duration

	// CommandTimeout bounds channel writes and info exchanges.
	CommandTimeout time.Duration

	// SendAckTimeout bounds the wait for a message acknowledgement.
	SendAckTimeout time.Duration

	// DisconnectTimeout bounds session teardown.
	DisconnectTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 5 * time.Second
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = 10 * time.Second
	}
	if c.SendAckTimeout <= 0 {
		c.SendAckTimeout = 10 * time.Second
	}
	if c.DisconnectTimeout <= 0 {
		c.DisconnectTimeout = 5 * time.Second
	}
}

// Gateway mediates every interaction with the companion device: it owns
// the exclusive access gate and the session lifecycle, and exposes the
// channel and messaging operations.
type Gateway struct {
	provider Provider
	gate     *Gate
	cfg      Config
	logger   *logging.Logger
}

// New builds a gateway around the given session provider.
func New(provider Provider, cfg Config, logger *logging.Logger) *Gateway {
	cfg.applyDefaults()
	return &Gateway{
		provider: provider,
		gate:     NewGate(),
		cfg:      cfg,
		logger:   logger,
	}
}

// ListChannels scans the device channel table and returns the populated
// slots in ascending slot order. An empty table yields an empty list,
// not an error.
func (g *Gateway) ListChannels(ctx context.Context) ([]ChannelInfo, error) {
	var channels []ChannelInfo
	err := g.withSession(ctx, func(s Session) error {
		channels = g.scanSlots(ctx, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if channels == nil {
		channels = []ChannelInfo{}
	}
	return channels, nil
}

// CreateChannel writes name into the first free slot and returns the
// refreshed channel list. The name is rejected before any device traffic
// if blank or wider than the device's name field; a case-insensitive
// match against a populated slot fails with ErrChannelExists.
func (g *Gateway) CreateChannel(ctx context.Context, name string) ([]ChannelInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: channel name must not be empty", ErrInvalidArgument)
	}
	if len(name) > MaxChannelNameLen {
		return nil, fmt.Errorf("%w: channel name exceeds %d bytes", ErrInvalidArgument, MaxChannelNameLen)
	}
	var channels []ChannelInfo
	err := g.withSession(ctx, func(s Session) error {
		var err error
		channels, err = g.createChannel(ctx, s, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return channels, nil
}

// SendMessage resolves channel to a slot and transmits text on it,
// waiting a bounded interval for the device's acknowledgement. The
// returned ref carries the resolved slot and the device's stored name.
func (g *Gateway) SendMessage(ctx context.Context, channel, text string) (ChannelRef, error) {
	if strings.TrimSpace(channel) == "" {
		return ChannelRef{}, fmt.Errorf("%w: channel must not be empty", ErrInvalidArgument)
	}
	if strings.TrimSpace(text) == "" {
		return ChannelRef{}, fmt.Errorf("%w: message text must not be empty", ErrInvalidArgument)
	}
	var ref ChannelRef
	err := g.withSession(ctx, func(s Session) error {
		var err error
		ref, err = g.sendMessage(ctx, s, channel, text)
		return err
	})
	if err != nil {
		return ChannelRef{}, err
	}
	return ref, nil
}

// DeviceInfo performs the identity handshake and returns what the device
// reports about itself.
func (g *Gateway) DeviceInfo(ctx context.Context) (*DeviceInfo, error) {
	var info *DeviceInfo
	err := g.withSession(ctx, func(s Session) error {
		cctx, cancel := context.WithTimeout(ctx, g.cfg.CommandTimeout)
		defer cancel()
		ev, err := s.AppStart(cctx)
		if err != nil {
			return fmt.Errorf("%w: app start: %v", ErrConnectionFailed, err)
		}
		if ev == nil || ev.Kind == EventError || ev.Info == nil {
			return fmt.Errorf("%w: app start not acknowledged", ErrDeviceRejected)
		}
		info = ev.Info
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// RepeaterTelemetry looks a contact up by name or public key and queries
// its status over the mesh. See contacts.go for the lookup rules.
func (g *Gateway) RepeaterTelemetry(ctx context.Context, name, publicKey string) (*RepeaterTelemetry, error) {
	if strings.TrimSpace(name) == "" && strings.TrimSpace(publicKey) == "" {
		return nil, fmt.Errorf("%w: repeater name or public key required", ErrInvalidArgument)
	}
	var telem *RepeaterTelemetry
	err := g.withSession(ctx, func(s Session) error {
		var err error
		telem, err = g.queryRepeater(ctx, s, name, publicKey)
		return err
	})
	if err != nil {
		return nil, err
	}
	return telem, nil
}

// withSession runs fn against a fresh device session while holding the
// gate. The session is always disconnected before the gate is released,
// even when fn fails.
func (g *Gateway) withSession(ctx context.Context, fn func(Session) error) error {
	if err := g.gate.Acquire(ctx); err != nil {
		return err
	}
	defer g.gate.Release()

	session, err := g.provider.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer g.disconnect(session)

	return fn(session)
}

// disconnect tears the session down on a fresh deadline so cleanup still
// runs when the operation's context is already cancelled. Failures are
// logged, never surfaced.
func (g *Gateway) disconnect(s Session) {
	ctx, cancel := context.WithTimeout(context.Background(), g.cfg.DisconnectTimeout)
	defer cancel()
	if err := s.Disconnect(ctx); err != nil {
		g.logger.Warn("device disconnect failed", "error", err)
	}
}
