package mesh

import "context"

// scanSlots probes slots 0..MaxChannelSlots-1 and collects the populated
// ones in ascending order. The scan stops early at the first slot the
// device answers with its error signal, leaves unanswered, or fails at
// the transport level — firmware reports the first unused position as an
// error, so a stop is the normal end of table.
func (g *Gateway) scanSlots(ctx context.Context, s Session) []ChannelInfo {
	var channels []ChannelInfo
	for idx := 0; idx < MaxChannelSlots; idx++ {
		ev, err := g.probeSlot(ctx, s, idx)
		if err != nil {
			g.logger.Warn("slot probe failed, stopping scan", "slot", idx, "error", err)
			break
		}
		if ev == nil || ev.Kind == EventError {
			break
		}
		if ev.Slot.IsEmpty() {
			continue
		}
		channels = append(channels, ChannelInfo{
			Index:     slotIndex(ev.Slot, idx),
			Name:      ev.Slot.Name,
			SecretHex: ev.Slot.SecretHex(),
		})
	}
	return channels
}

// probeSlot reads one slot under its own timeout so a wedged probe
// cannot stall the whole scan.
func (g *Gateway) probeSlot(ctx context.Context, s Session, idx int) (*Event, error) {
	pctx, cancel := context.WithTimeout(ctx, g.cfg.ProbeTimeout)
	defer cancel()
	return s.GetSlot(pctx, idx)
}

// slotIndex prefers the device-reported index, falling back to the
// probed position when the device omits it.
func slotIndex(slot ChannelSlot, probed int) int {
	if slot.Index < 0 {
		return probed
	}
	return slot.Index
}
