package mesh

import (
	"context"
	"fmt"
	"strings"
)

// createChannel finds the first free slot, checks the requested name
// against every populated slot, writes the channel, and re-scans so the
// caller sees exactly what the device now stores. Only a slot the device
// reports as empty counts as free: a scan that stops at the table end or
// on a failed probe without seeing one fails with ErrNoFreeSlot rather
// than writing blind. Conflict and no-free-slot outcomes are decided
// before any write reaches the device.
func (g *Gateway) createChannel(ctx context.Context, s Session, name string) ([]ChannelInfo, error) {
	freeSlot := -1
	for idx := 0; idx < MaxChannelSlots; idx++ {
		ev, err := g.probeSlot(ctx, s, idx)
		if err != nil {
			g.logger.Warn("slot probe failed, stopping placement scan", "slot", idx, "error", err)
			break
		}
		if ev == nil || ev.Kind == EventError {
			break
		}
		if ev.Slot.IsEmpty() {
			if freeSlot < 0 {
				freeSlot = idx
			}
			continue
		}
		if strings.EqualFold(ev.Slot.Name, name) {
			return nil, fmt.Errorf("%w: %q occupies slot %d", ErrChannelExists, ev.Slot.Name, slotIndex(ev.Slot, idx))
		}
	}
	if freeSlot < 0 {
		return nil, fmt.Errorf("%w: no empty channel slot found", ErrNoFreeSlot)
	}

	cctx, cancel := context.WithTimeout(ctx, g.cfg.CommandTimeout)
	defer cancel()
	ev, err := s.SetChannel(cctx, freeSlot, name)
	if err != nil {
		return nil, fmt.Errorf("%w: writing slot %d: %v", ErrConnectionFailed, freeSlot, err)
	}
	if ev == nil || ev.Kind == EventError {
		return nil, fmt.Errorf("%w: channel write to slot %d not acknowledged", ErrDeviceRejected, freeSlot)
	}

	g.logger.Info("channel created", "slot", freeSlot, "name", name)
	return g.scanSlots(ctx, s), nil
}
