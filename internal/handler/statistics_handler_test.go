package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carelink/family-contact-api/internal/middleware"
	"github.com/carelink/family-contact-api/internal/models"
	"github.com/carelink/family-contact-api/internal/service"
)

type statsCounters struct {
	members  int
	active   int
	review   int
	upcoming int
	highRisk int
}

func (s statsCounters) CountByOrganization(ctx context.Context, organizationID string) (int, error) {
	return s.members, nil
}

func (s statsCounters) CountActive(ctx context.Context, organizationID string) (int, error) {
	return s.active, nil
}

func (s statsCounters) CountDueForReview(ctx context.Context, organizationID string, now time.Time) (int, error) {
	return s.review, nil
}

func (s statsCounters) CountUpcoming(ctx context.Context, organizationID string) (int, error) {
	return s.upcoming, nil
}

func (s statsCounters) CountHighRisk(ctx context.Context, organizationID string) (int, error) {
	return s.highRisk, nil
}

func TestStatisticsHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)

	counters := statsCounters{members: 12, active: 4, review: 2, upcoming: 3, highRisk: 1}
	svc := service.NewStatisticsService(counters, counters, counters, counters, nil, zap.NewNop(), service.StatisticsServiceConfig{})
	h := NewStatisticsHandler(svc)

	r := gin.New()
	r.GET("/statistics", func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", OrganizationID: "org-1", Role: models.RoleManager})
		h.Get(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/statistics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.ContactStatistics `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 12, envelope.Data.TotalFamilyMembers)
	assert.Equal(t, 4, envelope.Data.ActiveSchedules)
	assert.Equal(t, 2, envelope.Data.SchedulesDueForReview)
	assert.Equal(t, 3, envelope.Data.UpcomingSessions)
	assert.Equal(t, 1, envelope.Data.HighRiskAssessments)
	assert.False(t, envelope.Data.GeneratedAt.IsZero())
}

func TestStatisticsHandlerGetUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)

	counters := statsCounters{}
	svc := service.NewStatisticsService(counters, counters, counters, counters, nil, zap.NewNop(), service.StatisticsServiceConfig{})
	h := NewStatisticsHandler(svc)

	r := gin.New()
	r.GET("/statistics", h.Get)

	req := httptest.NewRequest(http.MethodGet, "/statistics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
