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

// LookupHandler exposes the uniform CRUD surface of one lookup table.
type LookupHandler[T any, PT interface {
	*T
	models.LookupRecord
}] struct {
	lookups *service.LookupService[T, PT]
}

// NewLookupHandler constructs a handler over one lookup service.
func NewLookupHandler[T any, PT interface {
	*T
	models.LookupRecord
}](lookups *service.LookupService[T, PT]) *LookupHandler[T, PT] {
	return &LookupHandler[T, PT]{lookups: lookups}
}

// Register mounts the CRUD routes on a group. Mutating routes carry the
// extra middleware, typically the role guard.
func (h *LookupHandler[T, PT]) Register(rg *gin.RouterGroup, path string, writeGuard gin.HandlerFunc) {
	group := rg.Group(path)
	group.GET("", h.List)
	group.GET("/:id", h.Get)

	write := group.Group("")
	if writeGuard != nil {
		write.Use(writeGuard)
	}
	write.POST("", h.Create)
	write.PUT("/:id", h.Update)
	write.DELETE("/:id", h.Delete)
}

// List returns live records, filtered by ?q= when present.
func (h *LookupHandler[T, PT]) List(c *gin.Context) {
	records, err := h.lookups.List(c.Request.Context(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Get returns one record.
func (h *LookupHandler[T, PT]) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.lookups.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Create registers a record.
func (h *LookupHandler[T, PT]) Create(c *gin.Context) {
	var req service.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.lookups.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update mutates a record.
func (h *LookupHandler[T, PT]) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.lookups.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete soft-deletes a record unless it is still referenced.
func (h *LookupHandler[T, PT]) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.lookups.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
