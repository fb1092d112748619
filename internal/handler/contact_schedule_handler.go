package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carelink/family-contact-api/internal/service"
	appErrors "github.com/carelink/family-contact-api/pkg/errors"
	"github.com/carelink/family-contact-api/pkg/response"
)

// ContactScheduleHandler exposes contact schedule endpoints.
type ContactScheduleHandler struct {
	schedules *service.ContactScheduleService
}

// NewContactScheduleHandler constructs ContactScheduleHandler.
func NewContactScheduleHandler(schedules *service.ContactScheduleService) *ContactScheduleHandler {
	return &ContactScheduleHandler{schedules: schedules}
}

// Create godoc
// @Summary Create contact schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.CreateContactScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Router /schedules [post]
func (h *ContactScheduleHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateContactScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.OrganizationID = claims.OrganizationID
	req.CreatedBy = claims.UserID

	schedule, err := h.schedules.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// Get godoc
// @Summary Get contact schedule
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ContactScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.schedules.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// ListActive godoc
// @Summary List active schedules for a child
// @Tags Schedules
// @Produce json
// @Param childId query string true "Child ID"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ContactScheduleHandler) ListActive(c *gin.Context) {
	childID := c.Query("childId")
	if childID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "childId required"))
		return
	}
	schedules, err := h.schedules.ListActive(c.Request.Context(), childID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// DueForReview godoc
// @Summary List schedules due for review
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedules/due-for-review [get]
func (h *ContactScheduleHandler) DueForReview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	schedules, err := h.schedules.ListDueForReview(c.Request.Context(), claims.OrganizationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// Suspend godoc
// @Summary Suspend contact schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body service.SuspendScheduleRequest true "Suspension payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/suspend [put]
func (h *ContactScheduleHandler) Suspend(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SuspendScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.ActorID = claims.UserID

	schedule, err := h.schedules.Suspend(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// MarkReviewed godoc
// @Summary Record a completed schedule review
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/review [put]
func (h *ContactScheduleHandler) MarkReviewed(c *gin.Context) {
	schedule, err := h.schedules.MarkReviewed(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}
