package telemetry

import (
	"github.com/dwhitmore/meshgate-core/internal/mesh"
)

// Battery voltage bounds for the percentage estimate, in volts. Single
// cell LiPo, the pack every supported board runs on.
const (
	batteryEmptyVolts = 3.3
	batteryFullVolts  = 4.2
)

// Battery describes the remote node's battery state.
type Battery struct {
	Millivolts int     `json:"mv"`
	Volts      float64 `json:"v"`
	Percentage float64 `json:"percentage"`
}

// Uptime breaks the uptime seconds into calendar-ish units.
type Uptime struct {
	Seconds int64 `json:"seconds"`
	Days    int   `json:"days"`
	Hours   int   `json:"hours"`
	Minutes int   `json:"minutes"`
}

// Radio carries RF conditions at the remote node.
type Radio struct {
	NoiseFloor int     `json:"noise_floor"`
	LastRSSI   int     `json:"last_rssi"`
	LastSNR    float64 `json:"last_snr"`
	TxQueueLen int     `json:"tx_queue_len"`
}

// PacketCounts splits a packet total by routing mode.
type PacketCounts struct {
	Total  int `json:"total"`
	Flood  int `json:"flood"`
	Direct int `json:"direct"`
}

// Packets summarises traffic through the remote node.
type Packets struct {
	Sent       PacketCounts `json:"sent"`
	Received   PacketCounts `json:"received"`
	DirectDups int          `json:"direct_dups"`
	FloodDups  int          `json:"flood_dups"`
}

// Airtime reports cumulative radio airtime in seconds.
type Airtime struct {
	TxSeconds int64 `json:"tx_seconds"`
	RxSeconds int64 `json:"rx_seconds"`
}

// Report is the shaped telemetry document for one repeater.
type Report struct {
	ContactName string  `json:"contact_name"`
	PublicKey   string  `json:"public_key"`
	Battery     Battery `json:"battery"`
	Uptime      Uptime  `json:"uptime"`
	Radio       Radio   `json:"radio"`
	Packets     Packets `json:"packets"`
	Airtime     Airtime `json:"airtime"`
}

// BuildReport shapes a raw status snapshot into the API document.
func BuildReport(t *mesh.RepeaterTelemetry) Report {
	s := t.Status
	volts := float64(s.BatteryMillivolts) / 1000

	return Report{
		ContactName: t.ContactName,
		PublicKey:   t.PublicKey,
		Battery: Battery{
			Millivolts: s.BatteryMillivolts,
			Volts:      volts,
			Percentage: batteryPercentage(volts),
		},
		Uptime: Uptime{
			Seconds: s.UptimeSeconds,
			Days:    int(s.UptimeSeconds / 86400),
			Hours:   int(s.UptimeSeconds % 86400 / 3600),
			Minutes: int(s.UptimeSeconds % 3600 / 60),
		},
		Radio: Radio{
			NoiseFloor: s.NoiseFloor,
			LastRSSI:   s.LastRSSI,
			LastSNR:    s.LastSNR,
			TxQueueLen: s.TxQueueLen,
		},
		Packets: Packets{
			Sent: PacketCounts{
				Total:  s.SentTotal,
				Flood:  s.SentFlood,
				Direct: s.SentDirect,
			},
			Received: PacketCounts{
				Total:  s.RecvTotal,
				Flood:  s.RecvFlood,
				Direct: s.RecvDirect,
			},
			DirectDups: s.DirectDups,
			FloodDups:  s.FloodDups,
		},
		Airtime: Airtime{
			TxSeconds: s.AirtimeSeconds,
			RxSeconds: s.RxAirtimeSeconds,
		},
	}
}

// batteryPercentage maps a cell voltage onto a linear 0-100 estimate.
func batteryPercentage(volts float64) float64 {
	pct := (volts - batteryEmptyVolts) / (batteryFullVolts - batteryEmptyVolts) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// Metrics flattens a report into the field set the history store records.
// Keys here are the ones accepted by the history API.
func Metrics(r Report) map[string]float64 {
	return map[string]float64{
		"battery_voltage":    r.Battery.Volts,
		"battery_percentage": r.Battery.Percentage,
		"uptime_seconds":     float64(r.Uptime.Seconds),
		"noise_floor":        float64(r.Radio.NoiseFloor),
		"last_rssi":          float64(r.Radio.LastRSSI),
		"last_snr":           r.Radio.LastSNR,
		"tx_queue_len":       float64(r.Radio.TxQueueLen),
		"packets_sent":       float64(r.Packets.Sent.Total),
		"packets_received":   float64(r.Packets.Received.Total),
		"airtime_seconds":    float64(r.Airtime.TxSeconds),
		"rx_airtime_seconds": float64(r.Airtime.RxSeconds),
	}
}
