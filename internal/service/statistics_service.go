package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/carelink/family-contact-api/internal/models"
	appErrors "github.com/carelink/family-contact-api/pkg/errors"
)

type familyMemberCounter interface {
	CountByOrganization(ctx context.Context, organizationID string) (int, error)
}

type scheduleCounter interface {
	CountActive(ctx context.Context, organizationID string) (int, error)
	CountDueForReview(ctx context.Context, organizationID string, now time.Time) (int, error)
}

type sessionCounter interface {
	CountUpcoming(ctx context.Context, organizationID string) (int, error)
}

type riskCounter interface {
	CountHighRisk(ctx context.Context, organizationID string) (int, error)
}

// StatisticsServiceConfig tunes statistics caching.
type StatisticsServiceConfig struct {
	CacheTTL time.Duration
}

// StatisticsService composes the per-organization contact activity roll-up.
type StatisticsService struct {
	members   familyMemberCounter
	schedules scheduleCounter
	sessions  sessionCounter
	risks     riskCounter
	cache     *CacheService
	logger    *zap.Logger
	now       func() time.Time
	cfg       StatisticsServiceConfig
}

// NewStatisticsService constructs StatisticsService.
func NewStatisticsService(members familyMemberCounter, schedules scheduleCounter, sessions sessionCounter, risks riskCounter, cache *CacheService, logger *zap.Logger, cfg StatisticsServiceConfig) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &StatisticsService{members: members, schedules: schedules, sessions: sessions, risks: risks, cache: cache, logger: logger, now: time.Now, cfg: cfg}
}

func statisticsCacheKey(organizationID string) string {
	return fmt.Sprintf("statistics:org:%s", organizationID)
}

// Get returns the organization's contact statistics, cached for a short TTL.
// Every figure is computed from live rows; nothing is maintained as stored
// aggregate state. The bool reports whether the result came from cache.
func (s *StatisticsService) Get(ctx context.Context, organizationID string) (*models.ContactStatistics, bool, error) {
	key := statisticsCacheKey(organizationID)
	if s.cache.Enabled() {
		var cached models.ContactStatistics
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("statistics cache read failed", zap.String("organization_id", organizationID), zap.Error(err))
		}
		if hit {
			return &cached, true, nil
		}
	}
	now := s.now().UTC()
	stats := &models.ContactStatistics{GeneratedAt: now}
	var err error
	if stats.TotalFamilyMembers, err = s.members.CountByOrganization(ctx, organizationID); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count family members")
	}
	if stats.ActiveSchedules, err = s.schedules.CountActive(ctx, organizationID); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count active schedules")
	}
	if stats.SchedulesDueForReview, err = s.schedules.CountDueForReview(ctx, organizationID, now); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count schedules due for review")
	}
	if stats.UpcomingSessions, err = s.sessions.CountUpcoming(ctx, organizationID); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count upcoming sessions")
	}
	if stats.HighRiskAssessments, err = s.risks.CountHighRisk(ctx, organizationID); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count high risk assessments")
	}
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, stats, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("statistics cache write failed", zap.String("organization_id", organizationID), zap.Error(err))
		}
	}
	return stats, false, nil
}

// Invalidate drops the cached roll-up for an organization after a write.
func (s *StatisticsService) Invalidate(ctx context.Context, organizationID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, statisticsCacheKey(organizationID)); err != nil {
		s.logger.Warn("statistics cache invalidation failed", zap.String("organization_id", organizationID), zap.Error(err))
	}
}
