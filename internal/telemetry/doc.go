// Package telemetry turns raw repeater status snapshots into the shaped
// reports the API serves, flattens them into metric series for the
// history store, and runs the optional background sampler that polls
// configured repeaters on an interval.
package telemetry
