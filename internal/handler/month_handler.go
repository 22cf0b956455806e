package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nanoufn/bolsa-api/internal/dto"
	appErrors "github.com/nanoufn/bolsa-api/pkg/errors"
	"github.com/nanoufn/bolsa-api/pkg/response"
)

type monthFiller interface {
	FillBlanks(ctx context.Context, userID string, year, month int) (*dto.FillResult, error)
}

// MonthHandler wires HTTP endpoints to the month scheduler.
type MonthHandler struct {
	service monthFiller
}

// NewMonthHandler creates a new handler.
func NewMonthHandler(svc monthFiller) *MonthHandler {
	return &MonthHandler{service: svc}
}

// FillBlanks godoc
// @Summary Fill month blanks
// @Description Materialise recurring slots and top every working day up to the daily target
// @Tags Month
// @Accept json
// @Produce json
// @Param payload body dto.FillBlanksRequest true "Target month"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /month/fill-blanks [post]
func (h *MonthHandler) FillBlanks(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.FillBlanksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid fill-blanks payload"))
		return
	}

	result, err := h.service.FillBlanks(c.Request.Context(), claims.UserID, req.Year, req.Month)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}
