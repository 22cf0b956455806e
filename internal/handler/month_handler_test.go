package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/nanoufn/bolsa-api/internal/dto"
	"github.com/nanoufn/bolsa-api/internal/middleware"
	"github.com/nanoufn/bolsa-api/internal/models"
	appErrors "github.com/nanoufn/bolsa-api/pkg/errors"
)

type fakeMonthSrv struct {
	result *dto.FillResult
	err    error
	last   struct {
		userID string
		year   int
		month  int
	}
}

func (f *fakeMonthSrv) FillBlanks(_ context.Context, userID string, year, month int) (*dto.FillResult, error) {
	f.last.userID = userID
	f.last.year = year
	f.last.month = month
	return f.result, f.err
}

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func fillRequest(t *testing.T, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/month/fill-blanks", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, rec
}

func TestMonthHandlerFillBlanksRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMonthHandler(&fakeMonthSrv{})

	c, rec := fillRequest(t, `{"year":2024,"month":6}`)
	h.FillBlanks(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMonthHandlerFillBlanksRejectsBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMonthHandler(&fakeMonthSrv{})

	c, rec := fillRequest(t, `{"year":`)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})
	h.FillBlanks(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMonthHandlerFillBlanksSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeMonthSrv{result: &dto.FillResult{CreatedCount: 7, Message: "ok"}}
	h := NewMonthHandler(srv)

	c, rec := fillRequest(t, `{"year":2024,"month":6}`)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})
	h.FillBlanks(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", srv.last.userID)
	assert.Equal(t, 2024, srv.last.year)
	assert.Equal(t, 6, srv.last.month)

	var envelope responseEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.EqualValues(t, 7, envelope.Data["created_count"])
}

func TestMonthHandlerFillBlanksPropagatesConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewMonthHandler(&fakeMonthSrv{err: appErrors.ErrFillInProgress})

	c, rec := fillRequest(t, `{"year":2024,"month":6}`)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1"})
	h.FillBlanks(c)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var envelope responseEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	if assert.NotNil(t, envelope.Error) {
		assert.Equal(t, "FILL_IN_PROGRESS", envelope.Error.Code)
	}
}
