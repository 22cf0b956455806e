package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nanoufn/bolsa-api/internal/models"
	"github.com/nanoufn/bolsa-api/internal/service"
	appErrors "github.com/nanoufn/bolsa-api/pkg/errors"
	"github.com/nanoufn/bolsa-api/pkg/response"
)

// DayEntryHandler wires HTTP endpoints to the day entry service.
type DayEntryHandler struct {
	service *service.DayEntryService
}

// NewDayEntryHandler creates a new handler.
func NewDayEntryHandler(svc *service.DayEntryService) *DayEntryHandler {
	return &DayEntryHandler{service: svc}
}

// List godoc
// @Summary List month entries
// @Description List the authenticated user's entries for a month
// @Tags Entries
// @Produce json
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /entries [get]
func (h *DayEntryHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	year, month, err := yearMonthQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	entries, err := h.service.ListMonth(c.Request.Context(), claims.UserID, year, month)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entries, map[string]interface{}{"year": year, "month": month})
}

// Create godoc
// @Summary Create entry
// @Description Log a manual time block
// @Tags Entries
// @Accept json
// @Produce json
// @Param payload body models.DayEntryInput true "Entry payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /entries [post]
func (h *DayEntryHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var input models.DayEntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid entry payload"))
		return
	}

	entry, err := h.service.Create(c.Request.Context(), claims.UserID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, entry)
}

// Update godoc
// @Summary Update entry
// @Description Replace the fields of an owned entry
// @Tags Entries
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body models.DayEntryInput true "Entry payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /entries/{id} [put]
func (h *DayEntryHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var input models.DayEntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid entry payload"))
		return
	}

	entry, err := h.service.Update(c.Request.Context(), claims.UserID, c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entry, nil)
}

// Delete godoc
// @Summary Delete entry
// @Description Remove an owned entry
// @Tags Entries
// @Param id path string true "Entry ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /entries/{id} [delete]
func (h *DayEntryHandler) Delete(c *gin.Context) {
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

func yearMonthQuery(c *gin.Context) (int, int, error) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "year query parameter is required")
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "month query parameter is required")
	}
	return year, month, nil
}
