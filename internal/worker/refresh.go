package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/chargeroute/chargeroute/internal/station"
)

// StationRefresher forces a provider fetch for a bounding box and persists
// the result. Satisfied by *station.Service.
type StationRefresher interface {
	RefreshBox(ctx context.Context, box station.GeoBox) (int, error)
}

// SnapshotPruner deletes station snapshots older than a cutoff. Satisfied
// by the station repository implementations.
type SnapshotPruner interface {
	DeleteStale(ctx context.Context, cutoff time.Time) (int, error)
}

// RefreshJob keeps station snapshots warm for the planning corridors.
type RefreshJob struct {
	config RefreshConfig
	logger zerolog.Logger

	// Dependencies (optional, nil if not configured)
	stations StationRefresher
	pruner   SnapshotPruner

	// Metrics
	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRefreshes   int64
	SuccessfulBoxes  int64
	FailedBoxes      int64
	StationsUpserted int64
	StalePruned      int64

	// Timings
	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config   RefreshConfig
	Logger   zerolog.Logger
	Stations StationRefresher
	Pruner   SnapshotPruner
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config = DefaultRefreshConfig()
	}

	return &RefreshJob{
		config:   config,
		logger:   cfg.Logger,
		stations: cfg.Stations,
		pruner:   cfg.Pruner,
		metrics:  &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh operation.
type RefreshResult struct {
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
	TotalBoxes       int
	Successful       int
	Failed           int
	StationsUpserted int
	Errors           []RefreshError
}

// RefreshError represents an error during refresh.
type RefreshError struct {
	Region string
	Box    station.GeoBox
	Error  string
}

// Run executes the refresh job for all configured targets.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{
		StartTime:  startTime,
		TotalBoxes: j.config.TotalBoxes(),
	}

	j.logger.Info().
		Int("total_boxes", result.TotalBoxes).
		Int("concurrency", j.config.Concurrency).
		Msg("starting station refresh job")

	// Get all boxes to refresh
	boxes := j.config.AllBoxes()

	// Create work channels
	boxesChan := make(chan RegionBox, len(boxes))
	resultsChan := make(chan boxResult, len(boxes))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, boxesChan, resultsChan)
		}()
	}

	// Send boxes to workers
	for _, b := range boxes {
		boxesChan <- b
	}
	close(boxesChan)

	// Wait for workers to complete
	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Collect results
	for br := range resultsChan {
		if br.success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.StationsUpserted += br.stations
		result.Errors = append(result.Errors, br.errors...)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	// Update metrics
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("stations_upserted", result.StationsUpserted).
		Msg("station refresh job completed")

	return result
}

type boxResult struct {
	region   string
	success  bool
	stations int
	errors   []RefreshError
}

func (j *RefreshJob) refreshWorker(ctx context.Context, boxes <-chan RegionBox, results chan<- boxResult) {
	for rb := range boxes {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.refreshBox(ctx, rb)
		}
	}
}

func (j *RefreshJob) refreshBox(ctx context.Context, rb RegionBox) boxResult {
	result := boxResult{
		region:  rb.Region,
		success: true,
	}

	if j.stations == nil {
		return result
	}

	// Create timeout context for this box
	boxCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	count, err := j.stations.RefreshBox(boxCtx, rb.Box)
	if err != nil {
		result.errors = append(result.errors, RefreshError{
			Region: rb.Region,
			Box:    rb.Box,
			Error:  err.Error(),
		})
		result.success = false
		return result
	}

	result.stations = count
	atomic.AddInt64(&j.metrics.StationsUpserted, int64(count))
	return result
}

// PruneStale deletes station snapshots that have not been refreshed within
// the configured staleness window.
func (j *RefreshJob) PruneStale(ctx context.Context) (int, error) {
	if !j.config.PruneStale || j.pruner == nil {
		return 0, nil
	}

	staleAfter := j.config.StaleAfter
	if staleAfter == 0 {
		staleAfter = 24 * time.Hour
	}
	cutoff := time.Now().Add(-staleAfter)

	j.logger.Debug().Time("cutoff", cutoff).Msg("pruning stale station snapshots")

	pruned, err := j.pruner.DeleteStale(ctx, cutoff)
	if err != nil {
		j.logger.Error().Err(err).Msg("failed to prune stale snapshots")
		return 0, err
	}

	if pruned > 0 {
		j.logger.Info().Int("pruned", pruned).Msg("deleted stale station snapshots")
	}

	atomic.AddInt64(&j.metrics.StalePruned, int64(pruned))
	return pruned, nil
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRefreshes++
	j.metrics.SuccessfulBoxes += int64(result.Successful)
	j.metrics.FailedBoxes += int64(result.Failed)
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRefreshes:      j.metrics.TotalRefreshes,
		SuccessfulBoxes:     j.metrics.SuccessfulBoxes,
		FailedBoxes:         j.metrics.FailedBoxes,
		StationsUpserted:    atomic.LoadInt64(&j.metrics.StationsUpserted),
		StalePruned:         atomic.LoadInt64(&j.metrics.StalePruned),
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_refreshes":       m.TotalRefreshes,
		"successful_boxes":      m.SuccessfulBoxes,
		"failed_boxes":          m.FailedBoxes,
		"stations_upserted":     m.StationsUpserted,
		"stale_pruned":          m.StalePruned,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
	}
}
