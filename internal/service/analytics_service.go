package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unitrack/attendance-api/internal/models"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
)

type eventCounter interface {
	CountByStatus(ctx context.Context, facultyID string) (*models.EventStatistics, error)
}

type facultyRateReader interface {
	FacultyEventRates(ctx context.Context, facultyID string) ([]models.EventAttendanceRate, error)
}

// AnalyticsService serves aggregated dashboard views with a read-through
// cache. Aggregates are recomputed from the store on every miss.
type AnalyticsService struct {
	events     eventCounter
	attendance facultyRateReader
	cache      *CacheService
	metrics    *MetricsService
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewAnalyticsService constructs the analytics service.
func NewAnalyticsService(events eventCounter, attendance facultyRateReader, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{events: events, attendance: attendance, cache: cache, metrics: metrics, cacheTTL: cacheTTL, logger: logger}
}

func facultyAnalyticsKey(facultyID string) string {
	return fmt.Sprintf("analytics:faculty:%s", facultyID)
}

// FacultyOverview returns one faculty's event counts and mean attendance
// rate. The rate averages each event's present-rate over events that have at
// least one attendance record.
func (s *AnalyticsService) FacultyOverview(ctx context.Context, facultyID string) (*models.FacultyAnalytics, error) {
	key := facultyAnalyticsKey(facultyID)
	var cached models.FacultyAnalytics
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	stats, err := s.events.CountByStatus(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate events")
	}
	rates, err := s.attendance.FacultyEventRates(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance rates")
	}

	var rateSum float64
	var counted int
	for _, rate := range rates {
		if rate.TotalRecords == 0 {
			continue
		}
		rateSum += float64(rate.PresentCount) / float64(rate.TotalRecords) * 100
		counted++
	}
	overview := &models.FacultyAnalytics{
		FacultyID:            facultyID,
		TotalEvents:          stats.TotalEvents,
		EventsWithAttendance: counted,
	}
	if counted > 0 {
		overview.AverageAttendanceRate = round2(rateSum / float64(counted))
	}

	s.cache.Set(ctx, key, overview, s.cacheTTL)
	return overview, nil
}

// InvalidateFaculty drops the cached overview after a write touching the
// faculty's events or attendance.
func (s *AnalyticsService) InvalidateFaculty(ctx context.Context, facultyID string) {
	if s == nil {
		return
	}
	s.cache.Invalidate(ctx, facultyAnalyticsKey(facultyID)+"*")
}

// SystemMetrics returns the runtime counter snapshot.
func (s *AnalyticsService) SystemMetrics() models.SystemMetrics {
	return s.metrics.Snapshot()
}
