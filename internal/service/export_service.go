package service

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/equilibre-app/equilibre-api/internal/balance"
	"github.com/equilibre-app/equilibre-api/internal/models"
	"github.com/equilibre-app/equilibre-api/pkg/export"
	"github.com/equilibre-app/equilibre-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders analysis results to downloadable files and manages
// their lifetime on disk.
type ExportService struct {
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		storage: store,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate renders the analysis result in the report's format and stores the
// file, returning a signed download URL.
func (s *ExportService) Generate(report *models.BalanceReport, result *balance.Result) (*ExportResult, error) {
	if report == nil || result == nil {
		return nil, fmt.Errorf("report and result are required")
	}
	dataset, title := buildBalanceDataset(result)

	var payload []byte
	var err error
	switch report.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", report.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("balance_%s_%s_%s.%s",
		sanitizeFilename(result.Window.Start), sanitizeFilename(result.Window.End),
		time.Now().UTC().Format("20060102_150405"), report.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(report.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/balance/report/download/%s", prefix, token),
		Format:       report.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (reportID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// buildBalanceDataset flattens the analysis result into a single table:
// category shares first, then score terms, then the finding counts.
func buildBalanceDataset(result *balance.Result) (export.Dataset, string) {
	headers := []string{"Section", "Item", "Value"}
	rows := make([]map[string]string, 0, 16)

	for _, cat := range balance.Categories {
		rows = append(rows, map[string]string{
			"Section": "Category",
			"Item":    string(cat),
			"Value":   fmt.Sprintf("%.1fh (%.1f%%)", result.Totals.Hours[cat], result.Totals.Percentages[cat]),
		})
	}
	rows = append(rows,
		map[string]string{"Section": "Totals", "Item": "Committed hours", "Value": fmt.Sprintf("%.1f", result.Totals.TotalCommittedHours)},
		map[string]string{"Section": "Totals", "Item": "Accounted hours", "Value": fmt.Sprintf("%.1f", result.Totals.TotalAccountedHours)},
		map[string]string{"Section": "Score", "Item": "Base", "Value": fmt.Sprintf("%.1f", result.Score.BaseScore)},
		map[string]string{"Section": "Score", "Item": "Work/study balance", "Value": fmt.Sprintf("%.1f", result.Score.WorkStudyBalance)},
		map[string]string{"Section": "Score", "Item": "Rest penalty", "Value": fmt.Sprintf("-%.1f", result.Score.RestPenalty)},
		map[string]string{"Section": "Score", "Item": "Conflict penalty", "Value": fmt.Sprintf("-%.1f", result.Score.ConflictPenalty)},
		map[string]string{"Section": "Score", "Item": "Overload penalty", "Value": fmt.Sprintf("-%.1f", result.Score.OverloadPenalty)},
		map[string]string{"Section": "Score", "Item": "Bonuses", "Value": fmt.Sprintf("%.1f", result.Score.Bonuses)},
		map[string]string{"Section": "Score", "Item": "Final", "Value": fmt.Sprintf("%.1f", result.Score.FinalScore)},
		map[string]string{"Section": "Findings", "Item": "Conflicts", "Value": fmt.Sprintf("%d", len(result.Conflicts))},
		map[string]string{"Section": "Findings", "Item": "Overloaded day flags", "Value": fmt.Sprintf("%d", len(result.OverloadedDays))},
	)
	for _, rec := range result.Recommendations {
		rows = append(rows, map[string]string{
			"Section": "Recommendation",
			"Item":    fmt.Sprintf("[%s] %s", rec.Priority, rec.Title),
			"Value":   rec.Description,
		})
	}

	title := fmt.Sprintf("Balance Report %s to %s", result.Window.Start, result.Window.End)
	return export.Dataset{Headers: headers, Rows: rows}, title
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
