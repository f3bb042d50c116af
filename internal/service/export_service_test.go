package service

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/equilibre-app/equilibre-api/internal/balance"
	"github.com/equilibre-app/equilibre-api/internal/models"
	"github.com/equilibre-app/equilibre-api/pkg/storage"
)

func newExportServiceForTest(t *testing.T) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewExportService(store, signer, ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop(), nil, nil)
}

func analysisResultForTest(t *testing.T) *balance.Result {
	t.Helper()
	engine := balance.NewEngine(balance.DefaultConfig())
	result, err := engine.Analyze(balance.Input{
		Window: balance.Window{Start: "2026-01-05", End: "2026-01-11"},
		Events: []balance.EventInput{
			{ID: "ev-1", Title: "Shift", Type: "work", Date: "2026-01-05", StartTime: "09:00", EndTime: "17:00"},
			{ID: "ev-2", Title: "Lecture", Type: "study", Date: "2026-01-06", StartTime: "10:00", EndTime: "12:00"},
		},
	})
	require.NoError(t, err)
	return result
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc := newExportServiceForTest(t)
	result := analysisResultForTest(t)
	report := &models.BalanceReport{
		ID:     "rep-1",
		UserID: "u1",
		Format: models.ReportFormatCSV,
	}

	exported, err := svc.Generate(report, result)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(exported.RelativePath, ".csv"))
	assert.True(t, strings.HasPrefix(exported.URL, "/api/v1/balance/report/download/"))
	assert.NotEmpty(t, exported.Token)
	assert.True(t, exported.ExpiresAt.After(time.Now()))

	file, err := svc.Open(exported.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Section,Item,Value")
	assert.Contains(t, content, "work")
	assert.Contains(t, content, "Final")
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc := newExportServiceForTest(t)
	result := analysisResultForTest(t)
	report := &models.BalanceReport{ID: "rep-2", UserID: "u1", Format: models.ReportFormatPDF}

	exported, err := svc.Generate(report, result)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(exported.RelativePath, ".pdf"))

	file, err := svc.Open(exported.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	header := make([]byte, 4)
	_, err = io.ReadFull(file, header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(header))
}

func TestExportServiceGenerateUnsupportedFormat(t *testing.T) {
	svc := newExportServiceForTest(t)
	result := analysisResultForTest(t)
	report := &models.BalanceReport{ID: "rep-3", UserID: "u1", Format: models.ReportFormat("xls")}

	_, err := svc.Generate(report, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestExportServiceTokenRoundTrip(t *testing.T) {
	svc := newExportServiceForTest(t)
	result := analysisResultForTest(t)
	report := &models.BalanceReport{ID: "rep-4", UserID: "u1", Format: models.ReportFormatCSV}

	exported, err := svc.Generate(report, result)
	require.NoError(t, err)

	reportID, relPath, _, err := svc.ParseToken(exported.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "rep-4", reportID)
	assert.Equal(t, exported.RelativePath, relPath)

	_, _, _, err = svc.ParseToken(exported.Token+"tampered", false)
	require.Error(t, err)
}
