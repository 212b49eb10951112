package mesh

import (
	"context"
	"errors"
	"fmt"
)

// sendMessage resolves channel and transmits text on the resolved slot.
// The acknowledgement wait is bounded by SendAckTimeout; an expired wait
// is a timeout, an explicit error or silent device is a rejection.
func (g *Gateway) sendMessage(ctx context.Context, s Session, channel, text string) (ChannelRef, error) {
	idx, name, err := g.resolveChannel(ctx, s, channel)
	if err != nil {
		return ChannelRef{}, err
	}

	sctx, cancel := context.WithTimeout(ctx, g.cfg.SendAckTimeout)
	defer cancel()
	ev, err := s.SendToSlot(sctx, idx, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && sctx.Err() != nil {
			return ChannelRef{}, fmt.Errorf("%w: no acknowledgement within %s", ErrDeviceTimeout, g.cfg.SendAckTimeout)
		}
		return ChannelRef{}, fmt.Errorf("%w: sending to slot %d: %v", ErrDeviceRejected, idx, err)
	}
	if ev == nil {
		return ChannelRef{}, fmt.Errorf("%w: no response from device", ErrDeviceRejected)
	}
	if ev.Kind == EventError {
		detail := ev.Detail
		if detail == "" {
			detail = "device signalled an error"
		}
		return ChannelRef{}, fmt.Errorf("%w: %s", ErrDeviceRejected, detail)
	}

	g.logger.Info("message dispatched", "slot", idx, "channel", name)
	return ChannelRef{Index: idx, Name: name}, nil
}
