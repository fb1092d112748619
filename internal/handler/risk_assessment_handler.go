package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carelink/family-contact-api/internal/service"
	appErrors "github.com/carelink/family-contact-api/pkg/errors"
	"github.com/carelink/family-contact-api/pkg/response"
)

// RiskAssessmentHandler exposes risk assessment endpoints.
type RiskAssessmentHandler struct {
	assessments *service.RiskAssessmentService
}

// NewRiskAssessmentHandler constructs RiskAssessmentHandler.
func NewRiskAssessmentHandler(assessments *service.RiskAssessmentService) *RiskAssessmentHandler {
	return &RiskAssessmentHandler{assessments: assessments}
}

// Create godoc
// @Summary Create risk assessment
// @Tags RiskAssessments
// @Accept json
// @Produce json
// @Param payload body service.CreateRiskAssessmentRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Router /risk-assessments [post]
func (h *RiskAssessmentHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateRiskAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.OrganizationID = claims.OrganizationID

	assessment, err := h.assessments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assessment)
}

// Get godoc
// @Summary Get risk assessment
// @Tags RiskAssessments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /risk-assessments/{id} [get]
func (h *RiskAssessmentHandler) Get(c *gin.Context) {
	assessment, err := h.assessments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// Approve godoc
// @Summary Approve risk assessment
// @Tags RiskAssessments
// @Accept json
// @Produce json
// @Param id path string true "Assessment ID"
// @Param payload body service.ApproveRiskAssessmentRequest true "Approval payload"
// @Success 200 {object} response.Envelope
// @Router /risk-assessments/{id}/approve [put]
func (h *RiskAssessmentHandler) Approve(c *gin.Context) {
	var req service.ApproveRiskAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assessment, err := h.assessments.Approve(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// Current godoc
// @Summary Get current risk assessment for a child and family member
// @Tags RiskAssessments
// @Produce json
// @Param childId query string true "Child ID"
// @Param familyMemberId query string true "Family member ID"
// @Success 200 {object} response.Envelope
// @Router /risk-assessments/current [get]
func (h *RiskAssessmentHandler) Current(c *gin.Context) {
	childID := c.Query("childId")
	familyMemberID := c.Query("familyMemberId")
	if childID == "" || familyMemberID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "childId and familyMemberId required"))
		return
	}
	assessment, err := h.assessments.GetCurrent(c.Request.Context(), childID, familyMemberID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// Overdue godoc
// @Summary List risk assessments past their review date
// @Tags RiskAssessments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /risk-assessments/overdue [get]
func (h *RiskAssessmentHandler) Overdue(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	assessments, err := h.assessments.ListOverdue(c.Request.Context(), claims.OrganizationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessments, nil)
}
