package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tms-admin/tms-api/internal/models"
	"github.com/tms-admin/tms-api/internal/service"
	appErrors "github.com/tms-admin/tms-api/pkg/errors"
	"github.com/tms-admin/tms-api/pkg/response"
)

// TrainingHandler exposes training endpoints with nested budgets and
// reports.
type TrainingHandler struct {
	trainings *service.TrainingService
}

// NewTrainingHandler constructs TrainingHandler.
func NewTrainingHandler(trainings *service.TrainingService) *TrainingHandler {
	return &TrainingHandler{trainings: trainings}
}

// List returns a filtered, paginated collection.
func (h *TrainingHandler) List(c *gin.Context) {
	filter := models.TrainingFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		Country:   strings.TrimSpace(c.Query("country")),
		SponsorID: queryID(c, "sponsor_id"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "limit", 20),
	}

	trainings, pagination, err := h.trainings.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trainings, pagination)
}

// Get returns one training with its related records.
func (h *TrainingHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	training, err := h.trainings.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, training, nil)
}

// Create registers a training.
func (h *TrainingHandler) Create(c *gin.Context) {
	var req service.TrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	training, err := h.trainings.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, training)
}

// Update mutates a training.
func (h *TrainingHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.TrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	training, err := h.trainings.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, training, nil)
}

// Delete soft-deletes a training.
func (h *TrainingHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.trainings.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddBudget attaches a fiscal-year allocation.
func (h *TrainingHandler) AddBudget(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.TrainingBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	budget, err := h.trainings.AddBudget(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, budget)
}

// DeleteBudget removes a fiscal-year allocation.
func (h *TrainingHandler) DeleteBudget(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	budgetID, err := pathID(c, "budgetId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.trainings.DeleteBudget(c.Request.Context(), id, budgetID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// TotalBudget returns the summed allocations of a training.
func (h *TrainingHandler) TotalBudget(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	total, err := h.trainings.TotalBudget(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"training_id": id, "total": total}, nil)
}

// AddReport attaches a progress report.
func (h *TrainingHandler) AddReport(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.TrainingReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.trainings.AddReport(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// DeleteReport removes a progress report.
func (h *TrainingHandler) DeleteReport(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	reportID, err := pathID(c, "reportId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.trainings.DeleteReport(c.Request.Context(), id, reportID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
