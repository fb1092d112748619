package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/carelink/family-contact-api/internal/models"
	"github.com/carelink/family-contact-api/internal/service"
	appErrors "github.com/carelink/family-contact-api/pkg/errors"
	"github.com/carelink/family-contact-api/pkg/response"
)

// FamilyMemberHandler exposes family member registry endpoints.
type FamilyMemberHandler struct {
	members *service.FamilyMemberService
}

// NewFamilyMemberHandler constructs FamilyMemberHandler.
func NewFamilyMemberHandler(members *service.FamilyMemberService) *FamilyMemberHandler {
	return &FamilyMemberHandler{members: members}
}

// Register godoc
// @Summary Register family member
// @Tags FamilyMembers
// @Accept json
// @Produce json
// @Param payload body service.RegisterFamilyMemberRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Router /family-members [post]
func (h *FamilyMemberHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.RegisterFamilyMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.OrganizationID = claims.OrganizationID
	req.CreatedBy = claims.UserID

	member, err := h.members.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// Get godoc
// @Summary Get family member
// @Tags FamilyMembers
// @Produce json
// @Param id path string true "Family member ID"
// @Success 200 {object} response.Envelope
// @Router /family-members/{id} [get]
func (h *FamilyMemberHandler) Get(c *gin.Context) {
	member, err := h.members.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Update godoc
// @Summary Update family member
// @Tags FamilyMembers
// @Accept json
// @Produce json
// @Param id path string true "Family member ID"
// @Param payload body models.FamilyMemberPatch true "Patch payload"
// @Success 200 {object} response.Envelope
// @Router /family-members/{id} [patch]
func (h *FamilyMemberHandler) Update(c *gin.Context) {
	var patch models.FamilyMemberPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.members.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// List godoc
// @Summary List family members
// @Tags FamilyMembers
// @Produce json
// @Param childId query string false "Filter by child"
// @Param status query string false "Filter by status"
// @Param relationship query string false "Filter by relationship"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /family-members [get]
func (h *FamilyMemberHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var filter models.FamilyMemberFilter
	filter.OrganizationID = claims.OrganizationID
	filter.ChildID = c.Query("childId")
	if status := c.Query("status"); status != "" {
		value := models.FamilyMemberStatus(status)
		filter.Status = &value
	}
	if relationship := c.Query("relationship"); relationship != "" {
		value := models.FamilyRelationship(relationship)
		filter.Relationship = &value
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	members, pagination, err := h.members.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, pagination)
}

// ExpiredChecks godoc
// @Summary List family members with lapsed background checks
// @Tags FamilyMembers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /family-members/expired-dbs-checks [get]
func (h *FamilyMemberHandler) ExpiredChecks(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	members, err := h.members.ListExpiredBackgroundChecks(c.Request.Context(), claims.OrganizationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}
