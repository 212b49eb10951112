package telemetry

import (
	"context"
	"time"

	"github.com/dwhitmore/meshgate-core/internal/infrastructure/logging"
	"github.com/dwhitmore/meshgate-core/internal/mesh"
)

// Querier is the slice of the gateway the sampler needs.
type Querier interface {
	RepeaterTelemetry(ctx context.Context, name, publicKey string) (*mesh.RepeaterTelemetry, error)
}

// Recorder is the slice of the history store the sampler needs.
type Recorder interface {
	WriteRepeaterMetrics(repeaterID, contactName string, metrics map[string]float64)
}

// Sampler polls the configured repeaters on an interval and records
// their telemetry into the history store. Each poll goes through the
// gateway, so sampling queues behind interactive requests rather than
// racing them for the device.
type Sampler struct {
	querier   Querier
	recorder  Recorder
	repeaters []string
	interval  time.Duration
	logger    *logging.Logger
}

// NewSampler builds a sampler. An interval of zero or an empty repeater
// list disables it; Run returns immediately in that case.
func NewSampler(querier Querier, recorder Recorder, repeaters []string, interval time.Duration, logger *logging.Logger) *Sampler {
	return &Sampler{
		querier:   querier,
		recorder:  recorder,
		repeaters: repeaters,
		interval:  interval,
		logger:    logger,
	}
}

// Run samples until ctx is cancelled. The first poll happens one full
// interval after start so boot traffic settles first.
func (s *Sampler) Run(ctx context.Context) {
	if s.interval <= 0 || len(s.repeaters) == 0 || s.recorder == nil {
		return
	}

	s.logger.Info("telemetry sampler started",
		"interval", s.interval.String(),
		"repeaters", len(s.repeaters))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("telemetry sampler stopped")
			return
		case <-ticker.C:
			s.sampleAll(ctx)
		}
	}
}

func (s *Sampler) sampleAll(ctx context.Context) {
	for _, name := range s.repeaters {
		if ctx.Err() != nil {
			return
		}
		telem, err := s.querier.RepeaterTelemetry(ctx, name, "")
		if err != nil {
			s.logger.Warn("telemetry sample failed", "repeater", name, "error", err)
			continue
		}
		report := BuildReport(telem)
		s.recorder.WriteRepeaterMetrics(report.PublicKey, report.ContactName, Metrics(report))
	}
}
