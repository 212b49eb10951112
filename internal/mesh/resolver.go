package mesh

import (
	"context"
	"fmt"
	"strings"
)

// normalizeChannelName strips leading '#' markers and lowercases for
// comparison. Users and stored slots both may carry the marker.
func normalizeChannelName(name string) string {
	return strings.ToLower(strings.TrimLeft(name, "#"))
}

// resolveChannel walks the slot table looking for a populated slot whose
// name matches requested, ignoring case and leading '#' markers on both
// sides. It returns the slot index and the device's stored name. The
// walk obeys the same early-stop rules as a scan, so a match past a
// table gap is unreachable.
func (g *Gateway) resolveChannel(ctx context.Context, s Session, requested string) (int, string, error) {
	needle := normalizeChannelName(requested)
	for idx := 0; idx < MaxChannelSlots; idx++ {
		ev, err := g.probeSlot(ctx, s, idx)
		if err != nil {
			g.logger.Warn("slot probe failed, stopping resolution", "slot", idx, "error", err)
			break
		}
		if ev == nil || ev.Kind == EventError {
			break
		}
		if ev.Slot.IsEmpty() {
			continue
		}
		if normalizeChannelName(ev.Slot.Name) == needle {
			return slotIndex(ev.Slot, idx), ev.Slot.Name, nil
		}
	}
	return 0, "", fmt.Errorf("%w: %q", ErrChannelNotFound, requested)
}
