package sampler

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/cputracker/agent/config"
	"github.com/cputracker/agent/internal/models"
)

// Source produces one CPU utilization reading per call, in percent.
type Source interface {
	Percent(ctx context.Context) (float64, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (float64, error)

// Percent implements Source.
func (f SourceFunc) Percent(ctx context.Context) (float64, error) {
	return f(ctx)
}

// GopsutilSource reads host-wide CPU utilization via gopsutil. Readings are
// the utilization since the previous call, so sampling at a fixed cadence
// yields per-interval utilization.
type GopsutilSource struct{}

// Percent implements Source.
func (GopsutilSource) Percent(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("no cpu utilization reported")
	}
	return percents[0], nil
}

// Sampler collects fixed-size series of utilization readings at a fixed
// cadence. The cadence and series length are read from the configuration at
// collection time.
type Sampler struct {
	source Source
	cfg    *config.SamplingConfig
}

// New creates a sampler reading its geometry from cfg.
func New(source Source, cfg *config.SamplingConfig) *Sampler {
	return &Sampler{
		source: source,
		cfg:    cfg,
	}
}

// Collect gathers the configured number of readings. The blocking wait is
// bounded by ctx: cancellation or a deadline aborts collection and returns
// the context error. A failed reading aborts collection immediately.
func (s *Sampler) Collect(ctx context.Context) (models.SampleSeries, error) {
	count := s.cfg.Count
	series := make(models.SampleSeries, 0, count)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for len(series) < count {
		value, err := s.source.Percent(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read cpu utilization (sample %d): %w", len(series), err)
		}
		series = append(series, value)

		if len(series) == count {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return series, nil
}
