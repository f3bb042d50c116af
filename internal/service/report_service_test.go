package service

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/equilibre-app/equilibre-api/internal/models"
	appErrors "github.com/equilibre-app/equilibre-api/pkg/errors"
	"github.com/equilibre-app/equilibre-api/pkg/jobs"
)

// inlineDispatcher runs jobs synchronously in the enqueueing goroutine so
// tests can observe the final report state without polling.
type inlineDispatcher struct {
	svc      *ReportService
	enqueued []jobs.Job
}

func (d *inlineDispatcher) Enqueue(job jobs.Job) error {
	d.enqueued = append(d.enqueued, job)
	return d.svc.ProcessJob(context.Background(), job)
}

func newReportServiceForTest(t *testing.T) (*ReportService, *inlineDispatcher) {
	t.Helper()
	events := &fakeEventSource{events: []models.ScheduledEvent{
		{ID: "e1", UserID: "u1", Title: "Shift", EventType: "work", StartDate: day(2026, 1, 5), EndDate: day(2026, 1, 5), StartTime: "09:00", EndTime: "17:00"},
		{ID: "e2", UserID: "u1", Title: "Lecture", EventType: "study", StartDate: day(2026, 1, 6), EndDate: day(2026, 1, 6), StartTime: "10:00", EndTime: "13:00"},
	}}
	balanceSvc := newBalanceService(events, nil)
	exporter := newExportServiceForTest(t)
	svc := NewReportService(balanceSvc, exporter, zap.NewNop(), ReportServiceConfig{})
	dispatcher := &inlineDispatcher{svc: svc}
	svc.SetQueue(dispatcher)
	return svc, dispatcher
}

func TestReportServiceCreateFinishes(t *testing.T) {
	svc, dispatcher := newReportServiceForTest(t)

	report, err := svc.Create(context.Background(), "u1", CreateReportRequest{
		Start:  "2026-01-05",
		End:    "2026-01-11",
		Format: "csv",
	})
	require.NoError(t, err)
	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, "balance-report", dispatcher.enqueued[0].Type)

	finished, err := svc.Get(context.Background(), "u1", report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, finished.Status)
	require.NotNil(t, finished.ResultURL)
	assert.Contains(t, *finished.ResultURL, "/balance/report/download/")
	assert.NotEmpty(t, finished.FilePath)
	assert.NotNil(t, finished.FinishedAt)
}

func TestReportServiceCreateValidation(t *testing.T) {
	svc, _ := newReportServiceForTest(t)

	cases := []struct {
		name string
		req  CreateReportRequest
	}{
		{"bad format", CreateReportRequest{Start: "2026-01-05", End: "2026-01-11", Format: "xls"}},
		{"bad start", CreateReportRequest{Start: "Jan 5", End: "2026-01-11", Format: "csv"}},
		{"inverted window", CreateReportRequest{Start: "2026-01-11", End: "2026-01-05", Format: "pdf"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "u1", tc.req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestReportServiceGetEnforcesOwnership(t *testing.T) {
	svc, _ := newReportServiceForTest(t)

	report, err := svc.Create(context.Background(), "u1", CreateReportRequest{
		Start:  "2026-01-05",
		End:    "2026-01-11",
		Format: "pdf",
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "intruder", report.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), "u1", "missing-id")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceDownloadRoundTrip(t *testing.T) {
	svc, _ := newReportServiceForTest(t)

	report, err := svc.Create(context.Background(), "u1", CreateReportRequest{
		Start:  "2026-01-05",
		End:    "2026-01-11",
		Format: "csv",
	})
	require.NoError(t, err)

	finished, err := svc.Get(context.Background(), "u1", report.ID)
	require.NoError(t, err)
	require.NotNil(t, finished.ResultURL)
	token := (*finished.ResultURL)[len("/api/v1/balance/report/download/"):]

	download, err := svc.Download(token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, models.ReportFormatCSV, download.Format)
	data, err := io.ReadAll(download.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Section,Item,Value")

	_, err = svc.Download("bogus-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
