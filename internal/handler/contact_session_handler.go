package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carelink/family-contact-api/internal/models"
	"github.com/carelink/family-contact-api/internal/service"
	appErrors "github.com/carelink/family-contact-api/pkg/errors"
	"github.com/carelink/family-contact-api/pkg/response"
)

// ContactSessionHandler exposes contact session lifecycle endpoints.
type ContactSessionHandler struct {
	sessions *service.ContactSessionService
}

// NewContactSessionHandler constructs ContactSessionHandler.
func NewContactSessionHandler(sessions *service.ContactSessionService) *ContactSessionHandler {
	return &ContactSessionHandler{sessions: sessions}
}

// Schedule godoc
// @Summary Schedule contact session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body service.ScheduleSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *ContactSessionHandler) Schedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ScheduleSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.OrganizationID = claims.OrganizationID
	req.CreatedBy = claims.UserID

	session, err := h.sessions.Schedule(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Get godoc
// @Summary Get contact session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *ContactSessionHandler) Get(c *gin.Context) {
	session, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Complete godoc
// @Summary Complete contact session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.CompleteSessionRequest true "Completion payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/complete [put]
func (h *ContactSessionHandler) Complete(c *gin.Context) {
	var req service.CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	session, err := h.sessions.Complete(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Cancel godoc
// @Summary Cancel contact session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.CancelSessionRequest true "Cancellation payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/cancel [put]
func (h *ContactSessionHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CancelSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.CancelledBy = claims.UserID

	session, err := h.sessions.Cancel(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// List godoc
// @Summary List contact sessions
// @Tags Sessions
// @Produce json
// @Param childId query string false "Filter by child"
// @Param familyMemberId query string false "Filter by family member"
// @Param status query string false "Filter by status"
// @Param dateFrom query string false "Inclusive start date (YYYY-MM-DD)"
// @Param dateTo query string false "Inclusive end date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *ContactSessionHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var filter models.ContactSessionFilter
	filter.OrganizationID = claims.OrganizationID
	filter.ChildID = c.Query("childId")
	filter.FamilyMemberID = c.Query("familyMemberId")
	if status := c.Query("status"); status != "" {
		value := models.SessionStatus(status)
		filter.Status = &value
	}
	if raw := c.Query("dateFrom"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dateFrom must be YYYY-MM-DD"))
			return
		}
		filter.DateFrom = &from
	}
	if raw := c.Query("dateTo"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dateTo must be YYYY-MM-DD"))
			return
		}
		filter.DateTo = &to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	sessions, pagination, err := h.sessions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}
