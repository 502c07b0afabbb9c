package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tms-admin/tms-api/internal/models"
	"github.com/tms-admin/tms-api/internal/service"
	appErrors "github.com/tms-admin/tms-api/pkg/errors"
	"github.com/tms-admin/tms-api/pkg/response"
)

// AllowanceHandler exposes allowance endpoints and statement downloads.
type AllowanceHandler struct {
	allowances *service.AllowanceService
	exports    *service.ExportService
}

// NewAllowanceHandler constructs AllowanceHandler.
func NewAllowanceHandler(allowances *service.AllowanceService, exports *service.ExportService) *AllowanceHandler {
	return &AllowanceHandler{allowances: allowances, exports: exports}
}

// List returns allowances narrowed by the query filters.
func (h *AllowanceHandler) List(c *gin.Context) {
	filter := models.AllowanceFilter{
		ParticipantID: queryID(c, "participant_id"),
		TrainingID:    queryID(c, "training_id"),
		TypeID:        queryID(c, "type_id"),
		StatusID:      queryID(c, "status_id"),
	}
	allowances, err := h.allowances.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, allowances, nil)
}

// Get returns one allowance.
func (h *AllowanceHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	allowance, err := h.allowances.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, allowance, nil)
}

// Create records an allowance.
func (h *AllowanceHandler) Create(c *gin.Context) {
	var req service.AllowanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	allowance, err := h.allowances.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, allowance)
}

// Update mutates an allowance.
func (h *AllowanceHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AllowanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	allowance, err := h.allowances.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, allowance, nil)
}

// Delete soft-deletes an allowance.
func (h *AllowanceHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.allowances.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Summary aggregates a participant's allowances.
func (h *AllowanceHandler) Summary(c *gin.Context) {
	participantID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.allowances.SummaryForParticipant(c.Request.Context(), participantID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Statement streams a participant's allowance statement as CSV or PDF.
func (h *AllowanceHandler) Statement(c *gin.Context) {
	participantID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	result, err := h.exports.AllowanceStatement(c.Request.Context(), participantID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
