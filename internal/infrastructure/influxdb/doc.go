// Package influxdb wraps the InfluxDB v2 client for telemetry history.
//
// Repeater telemetry snapshots collected from the mesh are written here
// as time-series points and read back by the history API. Writes are
// non-blocking and batched; queries run through the Flux query API.
//
// The integration is optional: when disabled in configuration, Connect
// returns ErrDisabled and the rest of the application carries on with
// live telemetry only.
//
// Thread Safety: all Client methods are safe for concurrent use.
package influxdb
