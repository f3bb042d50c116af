package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/equilibre-app/equilibre-api/internal/middleware"
	"github.com/equilibre-app/equilibre-api/internal/models"
	"github.com/equilibre-app/equilibre-api/internal/service"
	"github.com/equilibre-app/equilibre-api/pkg/jobs"
	"github.com/equilibre-app/equilibre-api/pkg/storage"
)

type responseEnvelope struct {
	Data map[string]interface{} `json:"data"`
	Meta map[string]interface{} `json:"meta"`
}

type stubEventSource struct {
	events []models.ScheduledEvent
}

func (s *stubEventSource) ListInRange(ctx context.Context, userID string, start, end time.Time) ([]models.ScheduledEvent, error) {
	return s.events, nil
}

type stubAvailabilitySource struct{}

func (s *stubAvailabilitySource) ListByUser(ctx context.Context, userID string) ([]models.UnavailabilityWindow, error) {
	return nil, nil
}

type stubManualHoursSource struct{}

func (s *stubManualHoursSource) ListInRange(ctx context.Context, userID string, start, end time.Time) ([]models.ManualHoursEntry, error) {
	return nil, nil
}

type syncDispatcher struct {
	svc *service.ReportService
}

func (d *syncDispatcher) Enqueue(job jobs.Job) error {
	return d.svc.ProcessJob(context.Background(), job)
}

func newBalanceHandlerForTest(t *testing.T) *BalanceHandler {
	t.Helper()
	events := &stubEventSource{events: []models.ScheduledEvent{
		{ID: "e1", UserID: "u1", Title: "Shift", EventType: "work",
			StartDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
			StartTime: "09:00", EndTime: "17:00"},
	}}
	balanceSvc := service.NewBalanceService(service.BalanceServiceParams{
		Events:       events,
		Availability: &stubAvailabilitySource{},
		ManualHours:  &stubManualHoursSource{},
		Logger:       zap.NewNop(),
	})

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	exporter := service.NewExportService(store, signer, service.ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop(), nil, nil)

	reports := service.NewReportService(balanceSvc, exporter, zap.NewNop(), service.ReportServiceConfig{})
	reports.SetQueue(&syncDispatcher{svc: reports})

	return NewBalanceHandler(balanceSvc, reports)
}

func authedContext(rec *httptest.ResponseRecorder, req *http.Request) *gin.Context {
	c, _ := gin.CreateTestContext(rec)
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1"})
	return c
}

func TestBalanceHandlerAnalyzeRequiresWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBalanceHandlerForTest(t)

	rec := httptest.NewRecorder()
	c := authedContext(rec, httptest.NewRequest(http.MethodGet, "/balance", nil))

	handler.Analyze(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBalanceHandlerAnalyzeUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBalanceHandlerForTest(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/balance?start=2026-01-05&end=2026-01-11", nil)

	handler.Analyze(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBalanceHandlerAnalyzeSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBalanceHandlerForTest(t)

	rec := httptest.NewRecorder()
	c := authedContext(rec, httptest.NewRequest(http.MethodGet, "/balance?start=2026-01-05&end=2026-01-11", nil))

	handler.Analyze(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, false, envelope.Meta["cache_hit"])
	score, ok := envelope.Data["score"].(map[string]interface{})
	require.True(t, ok)
	assert.NotNil(t, score["final_score"])
	assert.NotNil(t, envelope.Data["totals"])
}

func TestBalanceHandlerAnalyzeInvalidDates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBalanceHandlerForTest(t)

	rec := httptest.NewRecorder()
	c := authedContext(rec, httptest.NewRequest(http.MethodGet, "/balance?start=05-01-2026&end=2026-01-11", nil))

	handler.Analyze(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBalanceHandlerReportLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBalanceHandlerForTest(t)

	payload, _ := json.Marshal(map[string]string{
		"start":  "2026-01-05",
		"end":    "2026-01-11",
		"format": "csv",
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/balance/report", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c := authedContext(rec, req)

	handler.CreateReport(c)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var created responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	reportID, _ := created.Data["id"].(string)
	require.NotEmpty(t, reportID)

	rec = httptest.NewRecorder()
	c = authedContext(rec, httptest.NewRequest(http.MethodGet, "/balance/report/"+reportID, nil))
	c.Params = gin.Params{{Key: "id", Value: reportID}}

	handler.GetReport(c)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, string(models.ReportStatusFinished), fetched.Data["status"])
	resultURL, _ := fetched.Data["result_url"].(string)
	require.Contains(t, resultURL, "/balance/report/download/")
	token := resultURL[len("/api/v1/balance/report/download/"):]

	rec = httptest.NewRecorder()
	c = authedContext(rec, httptest.NewRequest(http.MethodGet, "/balance/report/download/"+token, nil))
	c.Params = gin.Params{{Key: "token", Value: token}}

	handler.DownloadReport(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "Section,Item,Value")
}

func TestBalanceHandlerGetReportWrongUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newBalanceHandlerForTest(t)

	payload, _ := json.Marshal(map[string]string{
		"start":  "2026-01-05",
		"end":    "2026-01-11",
		"format": "pdf",
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/balance/report", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c := authedContext(rec, req)

	handler.CreateReport(c)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var created responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	reportID, _ := created.Data["id"].(string)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/balance/report/"+reportID, nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "intruder"})
	c.Params = gin.Params{{Key: "id", Value: reportID}}

	handler.GetReport(c)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
