// Package mesh implements the channel and messaging gateway for the
// companion radio device.
//
// The device exposes a fixed table of eight channel slots. This package
// serialises all access to the single physical device behind a gate,
// scans and interprets the slot table, resolves channel names, creates
// channels, and dispatches messages with a bounded acknowledgement wait.
//
// Every operation opens a fresh device session, performs its work, and
// disconnects — channel state is never cached between requests; the
// device is the sole source of truth.
//
// Thread Safety: Gateway is safe for concurrent use. The gate admits one
// device operation at a time, first come first served.
package mesh
