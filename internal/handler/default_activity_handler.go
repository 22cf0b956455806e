package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nanoufn/bolsa-api/internal/models"
	"github.com/nanoufn/bolsa-api/internal/service"
	appErrors "github.com/nanoufn/bolsa-api/pkg/errors"
	"github.com/nanoufn/bolsa-api/pkg/response"
)

// DefaultActivityHandler wires HTTP endpoints to the default activity service.
type DefaultActivityHandler struct {
	service *service.DefaultActivityService
}

// NewDefaultActivityHandler creates a new handler.
func NewDefaultActivityHandler(svc *service.DefaultActivityService) *DefaultActivityHandler {
	return &DefaultActivityHandler{service: svc}
}

// List godoc
// @Summary List default activities
// @Description List the filler activity pool in rotation order
// @Tags Activities
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /activities [get]
func (h *DefaultActivityHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	activities, err := h.service.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activities, nil)
}

// Create godoc
// @Summary Create default activity
// @Description Add a filler activity to the pool
// @Tags Activities
// @Accept json
// @Produce json
// @Param payload body models.DefaultActivityInput true "Activity payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /activities [post]
func (h *DefaultActivityHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var input models.DefaultActivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid activity payload"))
		return
	}

	activity, err := h.service.Create(c.Request.Context(), claims.UserID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, activity)
}

// Update godoc
// @Summary Update default activity
// @Description Replace the fields of an owned activity
// @Tags Activities
// @Accept json
// @Produce json
// @Param id path string true "Activity ID"
// @Param payload body models.DefaultActivityInput true "Activity payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /activities/{id} [put]
func (h *DefaultActivityHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var input models.DefaultActivityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid activity payload"))
		return
	}

	activity, err := h.service.Update(c.Request.Context(), claims.UserID, c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// Delete godoc
// @Summary Delete default activity
// @Description Remove an owned activity
// @Tags Activities
// @Param id path string true "Activity ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /activities/{id} [delete]
func (h *DefaultActivityHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
