package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cputracker/agent/config"
	"github.com/cputracker/agent/internal/models"
	"github.com/cputracker/agent/pkg/datasite"
	"github.com/cputracker/agent/pkg/history"
	"github.com/cputracker/agent/pkg/metrics"
	"github.com/cputracker/agent/pkg/privacy"
	"github.com/cputracker/agent/pkg/sink"
)

// OutputFile is the name of the record file written in each tier.
const OutputFile = "cpu_tracker.json"

// SampleCollector gathers one series of utilization readings per run.
type SampleCollector interface {
	Collect(ctx context.Context) (models.SampleSeries, error)
}

// Tracker runs the full tracking cycle: sample, aggregate, publish.
type Tracker struct {
	cfg        *config.Config
	sampler    SampleCollector
	aggregator *privacy.Aggregator
	writer     *sink.Writer
	history    *history.Store
	metrics    *metrics.Collector
	logger     *log.Logger

	mu         sync.RWMutex
	lastResult models.RunResult
	lastErr    error
}

// New creates a tracker. history may be nil to disable run history.
func New(cfg *config.Config, sampler SampleCollector, aggregator *privacy.Aggregator, hist *history.Store, collector *metrics.Collector) *Tracker {
	return &Tracker{
		cfg:        cfg,
		sampler:    sampler,
		aggregator: aggregator,
		writer:     sink.NewWriter(),
		history:    hist,
		metrics:    collector,
		logger:     log.New(os.Stdout, "[TRACKER] ", log.LstdFlags),
	}
}

// Run performs one tracking cycle: collect a sample series, compute the
// exact and noised means, and write one record per confidentiality tier.
// The sampling wait is bounded by the configured timeout. The two sink
// writes are isolated; the returned error reports every failed sink.
func (t *Tracker) Run(ctx context.Context) (models.RunResult, error) {
	result := models.RunResult{
		RunID:     uuid.NewString(),
		Epsilon:   t.cfg.Privacy.Epsilon,
		StartedAt: time.Now().UTC(),
	}

	err := t.run(ctx, &result)
	result.FinishedAt = time.Now().UTC()

	t.metrics.RecordRun(result.FinishedAt.Sub(result.StartedAt), err)

	t.mu.Lock()
	t.lastResult = result
	t.lastErr = err
	t.mu.Unlock()

	if err != nil {
		t.logger.Printf("run %s failed: %v", result.RunID, err)
		return result, err
	}

	t.logger.Printf("run %s complete: %d samples, noised mean %.2f published", result.RunID, result.SampleCount, result.Noised)

	if t.history != nil {
		histErr := t.history.Record(result)
		t.metrics.RecordHistoryWrite(histErr)
		if histErr != nil {
			// History is auxiliary; a failed insert never fails the run.
			t.logger.Printf("run %s: history not recorded: %v", result.RunID, histErr)
		}
	}

	return result, nil
}

func (t *Tracker) run(ctx context.Context, result *models.RunResult) error {
	// Storage is rebuilt from the config each run so a datasite change in a
	// reloaded config takes effect on the next cycle.
	storage := datasite.NewStorage(t.cfg.Datasite.Root, t.cfg.Datasite.Email)

	publicDir, err := storage.EnsurePublicFolder(t.cfg.Datasite.Readers)
	if err != nil {
		return err
	}
	privateDir, err := storage.EnsurePrivateFolder()
	if err != nil {
		return err
	}

	if t.cfg.Sampling.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Sampling.Timeout)
		defer cancel()
	}

	series, err := t.sampler.Collect(ctx)
	t.metrics.RecordSampling(len(series), err)
	if err != nil {
		return fmt.Errorf("sampling failed: %w", err)
	}
	result.SampleCount = len(series)

	params := models.PrivacyParams{
		Epsilon: t.cfg.Privacy.Epsilon,
		Lower:   t.cfg.Privacy.Lower,
		Upper:   t.cfg.Privacy.Upper,
	}
	exact, noised, err := t.aggregator.Compute(series, params)
	t.metrics.RecordCompute(err)
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}
	result.Exact = exact
	result.Noised = noised

	// The two records are constructed independently and written in isolated
	// failure scopes: one failed sink never suppresses the other.
	now := time.Now()
	noisedRecord := models.NewAggregateRecord(noised, now)
	exactRecord := models.NewAggregateRecord(exact, now)

	var publicErr, privateErr error
	if err := t.writer.Write(noisedRecord, filepath.Join(publicDir, OutputFile)); err != nil {
		publicErr = fmt.Errorf("public sink: %w", err)
	}
	t.metrics.RecordPublicWrite(publicErr)

	if err := t.writer.Write(exactRecord, filepath.Join(privateDir, OutputFile)); err != nil {
		privateErr = fmt.Errorf("private sink: %w", err)
	}
	t.metrics.RecordPrivateWrite(privateErr)

	return errors.Join(publicErr, privateErr)
}

// Status describes the most recent run.
type Status struct {
	Ran    bool             `json:"ran"`
	Result models.RunResult `json:"result"`
	Error  string           `json:"error,omitempty"`
}

// LastRun returns the status of the most recent run.
func (t *Tracker) LastRun() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	status := Status{
		Ran:    t.lastResult.RunID != "",
		Result: t.lastResult,
	}
	if t.lastErr != nil {
		status.Error = t.lastErr.Error()
	}
	return status
}
