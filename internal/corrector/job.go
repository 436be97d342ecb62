// Package corrector implements the periodic batch job that reconciles
// content record counters against the interaction ledger, suppressing
// bounce and low-trust click abuse the online path cannot detect.
package corrector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/onnwee/lodestone/internal/content"
	"github.com/onnwee/lodestone/internal/ledger"
	"github.com/onnwee/lodestone/internal/trustweight"
)

// JobType labels this job in centralized job metrics and keys its row
// in the shared watermark table.
const JobType = "ranking_correction"

// Defaults for the correction job.
const (
	// DefaultInterval is the default duration between correction runs.
	DefaultInterval = 24 * time.Hour

	// DefaultWindow is the default trailing window of ledger events
	// each run reconciles.
	DefaultWindow = 24 * time.Hour

	// DefaultRunTimeout bounds a single correction run.
	DefaultRunTimeout = 10 * time.Minute

	// DefaultPageSize bounds how many ledger rows are held in memory at
	// once while scanning a window.
	DefaultPageSize = 1000
)

// JobMetrics provides centralized background job metrics tracking.
// This interface allows the job to report to the centralized job metrics system.
type JobMetrics interface {
	IncJobsTotal(jobType, status string)
	ObserveJobDuration(jobType string, seconds float64)
	IncJobErrors(jobType, errorType string)
}

// Config configures the batch ranking correction job.
type Config struct {
	// Interval is the duration between correction runs.
	Interval time.Duration
	// Window is the trailing ledger window each run covers.
	Window time.Duration
	// PageSize is the ledger page size per read.
	PageSize int
	// Timeout bounds each correction run.
	Timeout time.Duration
	// Logger for job activity.
	Logger *slog.Logger
	// Metrics for performance tracking.
	Metrics *Metrics
	// JobMetrics for centralized background job tracking.
	JobMetrics JobMetrics
}

// ItemError records a per-content failure inside an otherwise
// successful run.
type ItemError struct {
	ContentID string
	Err       error
}

// Summary reports what a correction run did.
type Summary struct {
	WindowStart     time.Time
	WindowEnd       time.Time
	EventsProcessed int
	Updated         int // content records changed
	Skipped         int // content ids referencing since-deleted records
	Errors          []ItemError
}

// Job is the batch ranking corrector. It is a single-writer periodic
// task; the content store applies its decrements as atomic relative
// adjustments so concurrent online increments are never lost.
type Job struct {
	config    Config
	store     content.Store
	ledger    ledger.Ledger
	resolver  trustweight.Resolver
	watermark WatermarkStore

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewJob creates a batch ranking correction job.
func NewJob(config Config, store content.Store, lg ledger.Ledger, resolver trustweight.Resolver, watermark WatermarkStore) *Job {
	if config.Interval == 0 {
		config.Interval = DefaultInterval
	}
	if config.Window == 0 {
		config.Window = DefaultWindow
	}
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultRunTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if watermark == nil {
		watermark = NewMemoryWatermarkStore()
	}

	return &Job{
		config:    config,
		store:     store,
		ledger:    lg,
		resolver:  resolver,
		watermark: watermark,
	}
}

// Start begins the periodic correction job.
// Returns immediately; the job runs in a background goroutine.
func (j *Job) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	go j.run(ctx)
	return nil
}

// Stop signals the correction job to stop and waits for it to finish.
func (j *Job) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	stopCh := j.stopCh
	doneCh := j.doneCh
	j.mu.Unlock()

	close(stopCh)
	<-doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()
}

// IsRunning returns whether the job is currently running.
func (j *Job) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

// run is the main loop for the correction job.
func (j *Job) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.config.Logger.Info("ranking correction job stopping due to context cancellation")
			return
		case <-j.stopCh:
			j.config.Logger.Info("ranking correction job stopping due to stop signal")
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

// runOnce executes one scheduled correction over the trailing window.
func (j *Job) runOnce(parentCtx context.Context) {
	ctx, cancel := context.WithTimeout(parentCtx, j.config.Timeout)
	defer cancel()

	end := time.Now()
	summary, err := j.Run(ctx, end.Add(-j.config.Window), end)
	if err != nil {
		j.config.Logger.Error("ranking correction run failed",
			"window_start", summary.WindowStart,
			"window_end", summary.WindowEnd,
			"error", err)
	}
}

// Run reconciles one window of the interaction ledger against the
// content store and returns a summary of what changed.
//
// Events at or before the persisted watermark are excluded, so
// overlapping windows never reprocess the same events. A per-content
// failure is logged and isolated; partial progress for other content
// ids persists. The run may be aborted between content-id updates
// without corrupting state.
func (j *Job) Run(ctx context.Context, windowStart, windowEnd time.Time) (Summary, error) {
	summary := Summary{WindowStart: windowStart, WindowEnd: windowEnd}
	startTime := time.Now()
	status := "success"
	defer func() {
		duration := time.Since(startTime).Seconds()
		if j.config.Metrics != nil {
			j.config.Metrics.IncRunsTotal()
			j.config.Metrics.ObserveRunDuration(duration)
			j.config.Metrics.SetLastRunTimestamp(float64(time.Now().Unix()))
			j.config.Metrics.SetLastRunUpdatedCount(float64(summary.Updated))
		}
		if j.config.JobMetrics != nil {
			j.config.JobMetrics.IncJobsTotal(JobType, status)
			j.config.JobMetrics.ObserveJobDuration(JobType, duration)
		}
	}()

	wm, err := j.watermark.Watermark(ctx)
	if err != nil {
		status = "failure"
		j.noteRunError("watermark_load")
		return summary, fmt.Errorf("failed to load watermark: %w", err)
	}
	effectiveStart := windowStart
	if wm.After(effectiveStart) {
		effectiveStart = wm
	}
	if !effectiveStart.Before(windowEnd) {
		j.config.Logger.Info("ranking correction window already processed",
			"window_end", windowEnd,
			"watermark", wm)
		return summary, nil
	}

	corrections, eventCount, err := j.aggregateWindow(ctx, effectiveStart, windowEnd)
	if err != nil {
		status = "failure"
		return summary, err
	}
	summary.EventsProcessed = eventCount

	j.config.Logger.Info("applying ranking corrections",
		"window_start", effectiveStart,
		"window_end", windowEnd,
		"events", eventCount,
		"content_ids", len(corrections))

	if err := j.applyCorrections(ctx, corrections, &summary); err != nil {
		status = "failure"
		return summary, err
	}

	if err := j.watermark.SetWatermark(ctx, windowEnd); err != nil {
		status = "failure"
		j.noteRunError("watermark_save")
		return summary, fmt.Errorf("failed to advance watermark: %w", err)
	}

	if len(summary.Errors) > 0 {
		status = "failure"
	}
	j.config.Logger.Info("ranking correction completed",
		"duration_seconds", time.Since(startTime).Seconds(),
		"events_processed", summary.EventsProcessed,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"failed", len(summary.Errors))
	return summary, nil
}

// aggregateWindow pages through the ledger window and folds events
// into per-content corrections. Trust weights are resolved once per
// page; a resolution failure or timeout falls back to the default
// weight for the whole page rather than failing the run.
func (j *Job) aggregateWindow(ctx context.Context, start, end time.Time) (map[string]*Correction, int, error) {
	corrections := make(map[string]*Correction)
	var cursor *ledger.Cursor
	var eventCount int

	for {
		select {
		case <-ctx.Done():
			j.noteRunError("timeout")
			return nil, eventCount, fmt.Errorf("correction aborted while scanning ledger: %w", ctx.Err())
		default:
		}

		events, next, err := j.ledger.SelectWindow(ctx, start, end, cursor, j.config.PageSize)
		if err != nil {
			j.noteRunError("ledger_read")
			return nil, eventCount, fmt.Errorf("failed to read interaction window: %w", err)
		}
		if len(events) == 0 {
			break
		}

		weights := j.resolveWeights(ctx, events)
		for _, ev := range events {
			accumulate(corrections, ev, weights)
		}
		eventCount += len(events)

		if next == nil {
			break
		}
		cursor = next
	}
	return corrections, eventCount, nil
}

// resolveWeights resolves trust weights for the page's users. Anything
// that prevents resolution degrades to defaults: low-trust
// down-weighting is an enhancement, not a correctness requirement.
func (j *Job) resolveWeights(ctx context.Context, events []ledger.Event) map[string]float64 {
	ids := distinctUserIDs(events)
	if len(ids) == 0 || j.resolver == nil {
		return nil
	}
	weights, err := j.resolver.BatchWeights(ctx, ids)
	if err != nil {
		j.config.Logger.Warn("trust weight resolution failed, using default weights",
			"users", len(ids),
			"error", err)
		j.noteRunError("trust_resolution")
	}
	return weights
}

// applyCorrections writes the accumulated corrections, one content id
// per update. Content ids are applied in sorted order so failures are
// reproducible. One failure does not abort the run; cancellation is
// honored between updates.
func (j *Job) applyCorrections(ctx context.Context, corrections map[string]*Correction, summary *Summary) error {
	ids := make([]string, 0, len(corrections))
	for id := range corrections {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		select {
		case <-ctx.Done():
			j.noteRunError("timeout")
			return fmt.Errorf("correction aborted after %d of %d updates: %w", summary.Updated, len(ids), ctx.Err())
		default:
		}

		c := corrections[id]
		err := j.store.ApplyCorrection(ctx, id, c.LastActive, c.EffectiveDecrement())
		switch {
		case err == nil:
			summary.Updated++
		case errors.Is(err, content.ErrRecordNotFound):
			// The ledger may reference since-deleted content.
			summary.Skipped++
			j.config.Logger.Debug("skipping correction for missing content",
				"content_id", id)
		default:
			summary.Errors = append(summary.Errors, ItemError{ContentID: id, Err: err})
			j.config.Logger.Error("failed to apply ranking correction",
				"content_id", id,
				"error", err)
			j.noteRunError("apply_error")
		}
	}
	return nil
}

func (j *Job) noteRunError(errorType string) {
	if j.config.Metrics != nil {
		j.config.Metrics.IncRunErrors()
	}
	if j.config.JobMetrics != nil {
		j.config.JobMetrics.IncJobErrors(JobType, errorType)
	}
}
