package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"myfi.backend/internal/domain/entities"
	"myfi.backend/internal/infrastructure/accord"
	"myfi.backend/internal/infrastructure/metrics"
	"myfi.backend/internal/usecases"
	"myfi.backend/pkg/logger"
)

// ReferenceSource downloads the raw reference feeds for a feed date
type ReferenceSource interface {
	FetchAmcs(ctx context.Context, date string) (entities.RawBatch, error)
	FetchSchemeTables(ctx context.Context, date string) (entities.SchemeTables, error)
	FetchNavHistory(ctx context.Context, date string) (entities.RawBatch, error)
}

// ReferenceIngester applies raw feeds to the reference store
type ReferenceIngester interface {
	IngestAmcBatch(ctx context.Context, batch entities.RawBatch) (entities.IngestReport, error)
	IngestSchemeBatch(ctx context.Context, tables entities.SchemeTables) (entities.IngestReport, error)
	IngestNavBatch(ctx context.Context, batch entities.RawBatch) (entities.IngestReport, error)
}

var observeSyncRun = metrics.ObserveSyncRun

// ReferenceDataSyncJob periodically pulls the upstream feeds and reconciles them
type ReferenceDataSyncJob struct {
	source   ReferenceSource
	ingester ReferenceIngester
	interval time.Duration
	feedDate string
	now      func() time.Time
	stop     chan struct{}
	lockFeed FeedLocker
}

// FeedLocker takes the cross-process ingestion lock of a feed and returns
// the function that gives it back.
type FeedLocker func(ctx context.Context, feed string) (release func(), err error)

func NewReferenceDataSyncJob(source ReferenceSource, ingester ReferenceIngester, interval time.Duration, feedDate string) *ReferenceDataSyncJob {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &ReferenceDataSyncJob{
		source:   source,
		ingester: ingester,
		interval: interval,
		feedDate: feedDate,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// WithFeedLocker makes every step hold its feed lock while it runs
func (j *ReferenceDataSyncJob) WithFeedLocker(l FeedLocker) *ReferenceDataSyncJob {
	j.lockFeed = l
	return j
}

// Start runs one sync immediately and then one per interval until ctx is
// cancelled or Stop is called.
func (j *ReferenceDataSyncJob) Start(ctx context.Context) {
	logger.Info(ctx, "Starting reference data sync job", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.runLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Reference data sync job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Reference data sync job stopped")
			return
		case <-ticker.C:
			j.runLogged(ctx)
		}
	}
}

func (j *ReferenceDataSyncJob) Stop() {
	close(j.stop)
}

func (j *ReferenceDataSyncJob) runLogged(ctx context.Context) {
	if _, err := j.RunOnce(ctx); err != nil {
		logger.Error(ctx, "Reference data sync failed", zap.Error(err))
	}
}

// RunOnce syncs AMCs, then schemes, then NAV history. AMCs go first so the
// scheme pass can link each scheme to its AMC. A failed download or a feed
// locked by another run aborts the remaining steps; per-row failures only show
// up in the reports.
func (j *ReferenceDataSyncJob) RunOnce(ctx context.Context) (reports []entities.IngestReport, err error) {
	defer func() { observeSyncRun(err) }()

	date := j.date()
	logger.Info(ctx, "Reference data sync started", zap.String("feed_date", date))

	steps := []struct {
		feed string
		run  func(ctx context.Context) (*entities.IngestReport, error)
	}{
		{usecases.FeedAmc, func(ctx context.Context) (*entities.IngestReport, error) {
			amcs, err := j.source.FetchAmcs(ctx, date)
			if err != nil {
				return nil, fmt.Errorf("fetch amcs: %w", err)
			}
			report, err := j.ingester.IngestAmcBatch(ctx, amcs)
			if err != nil {
				return &report, fmt.Errorf("ingest amcs: %w", err)
			}
			return &report, nil
		}},
		{usecases.FeedSchemes, func(ctx context.Context) (*entities.IngestReport, error) {
			tables, err := j.source.FetchSchemeTables(ctx, date)
			if err != nil {
				return nil, fmt.Errorf("fetch schemes: %w", err)
			}
			report, err := j.ingester.IngestSchemeBatch(ctx, tables)
			if err != nil {
				return &report, fmt.Errorf("ingest schemes: %w", err)
			}
			return &report, nil
		}},
		{usecases.FeedNav, func(ctx context.Context) (*entities.IngestReport, error) {
			navs, err := j.source.FetchNavHistory(ctx, date)
			if err != nil {
				return nil, fmt.Errorf("fetch nav history: %w", err)
			}
			report, err := j.ingester.IngestNavBatch(ctx, navs)
			if err != nil {
				return &report, fmt.Errorf("ingest nav history: %w", err)
			}
			return &report, nil
		}},
	}

	for _, step := range steps {
		report, err := j.runLocked(ctx, step.feed, step.run)
		if report != nil {
			reports = append(reports, *report)
		}
		if err != nil {
			return reports, err
		}
	}

	logger.Info(ctx, "Reference data sync finished", zap.String("feed_date", date))
	return reports, nil
}

// runLocked runs one step under the feed lock when a locker is configured.
// The report is nil when the step stopped before the ingester ran.
func (j *ReferenceDataSyncJob) runLocked(ctx context.Context, feed string, run func(context.Context) (*entities.IngestReport, error)) (*entities.IngestReport, error) {
	if j.lockFeed != nil {
		release, err := j.lockFeed(ctx, feed)
		if err != nil {
			return nil, fmt.Errorf("lock %s feed: %w", feed, err)
		}
		defer release()
	}
	return run(ctx)
}

// date is the configured feed date, or yesterday's feed when none is pinned
func (j *ReferenceDataSyncJob) date() string {
	if j.feedDate != "" {
		return j.feedDate
	}
	return accord.FeedDate(j.now().AddDate(0, 0, -1))
}
