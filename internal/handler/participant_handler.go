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

// ParticipantHandler exposes participant endpoints, including the nested
// next-of-kin and transfer resources.
type ParticipantHandler struct {
	participants *service.ParticipantService
}

// NewParticipantHandler constructs ParticipantHandler.
func NewParticipantHandler(participants *service.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participants: participants}
}

// List returns a filtered, paginated collection.
func (h *ParticipantHandler) List(c *gin.Context) {
	filter := models.ParticipantFilter{
		Search:     strings.TrimSpace(c.Query("search")),
		FacilityID: queryID(c, "facility_id"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "limit", 20),
	}

	participants, pagination, err := h.participants.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participants, pagination)
}

// Search finds participants by name or id number.
func (h *ParticipantHandler) Search(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "search term required"))
		return
	}
	participants, err := h.participants.Search(c.Request.Context(), term)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participants, nil)
}

// Get returns one participant with its related records.
func (h *ParticipantHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	participant, err := h.participants.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participant, nil)
}

// Create registers a participant.
func (h *ParticipantHandler) Create(c *gin.Context) {
	var req service.CreateParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	participant, err := h.participants.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, participant)
}

// Update mutates a participant.
func (h *ParticipantHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	participant, err := h.participants.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participant, nil)
}

// Delete soft-deletes a participant.
func (h *ParticipantHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.participants.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddNextOfKin attaches a contact person.
func (h *ParticipantHandler) AddNextOfKin(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.NextOfKinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	kin, err := h.participants.AddNextOfKin(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, kin)
}

// UpdateNextOfKin mutates a contact person.
func (h *ParticipantHandler) UpdateNextOfKin(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	kinID, err := pathID(c, "kinId")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.NextOfKinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	kin, err := h.participants.UpdateNextOfKin(c.Request.Context(), id, kinID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, kin, nil)
}

// DeleteNextOfKin removes a contact person.
func (h *ParticipantHandler) DeleteNextOfKin(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	kinID, err := pathID(c, "kinId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.participants.DeleteNextOfKin(c.Request.Context(), id, kinID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Transfer records a facility move.
func (h *ParticipantHandler) Transfer(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.TransferParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	transfer, err := h.participants.Transfer(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, transfer)
}

// ListTransfers returns a participant's transfer history.
func (h *ParticipantHandler) ListTransfers(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	transfers, err := h.participants.ListTransfers(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transfers, nil)
}
