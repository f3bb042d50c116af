package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/equilibre-app/equilibre-api/internal/balance"
	"github.com/equilibre-app/equilibre-api/internal/models"
	appErrors "github.com/equilibre-app/equilibre-api/pkg/errors"
	"github.com/equilibre-app/equilibre-api/pkg/jobs"
)

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// reportPayload travels inside a queued job.
type reportPayload struct {
	ReportID string
	UserID   string
	Window   balance.Window
	Format   models.ReportFormat
}

// reportRegistry tracks report jobs in memory with a TTL. Reports are
// ephemeral: the rendered file on disk is the durable artifact and is
// cleaned up on its own schedule.
type reportRegistry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
	ttl     time.Duration
}

type registryEntry struct {
	report    models.BalanceReport
	expiresAt time.Time
}

func newReportRegistry(ttl time.Duration) *reportRegistry {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &reportRegistry{entries: make(map[string]*registryEntry), ttl: ttl}
}

func (r *reportRegistry) put(report models.BalanceReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[report.ID] = &registryEntry{report: report, expiresAt: time.Now().UTC().Add(r.ttl)}
}

func (r *reportRegistry) get(id string) (models.BalanceReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[id]
	if !ok || time.Now().UTC().After(entry.expiresAt) {
		return models.BalanceReport{}, false
	}
	return entry.report, true
}

func (r *reportRegistry) sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	removed := 0
	for id, entry := range r.entries {
		if now.After(entry.expiresAt) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// ReportService runs balance report generation asynchronously: a request is
// registered, queued, and processed by a worker that analyzes the window and
// renders the result to a downloadable file.
type ReportService struct {
	balance  *BalanceService
	exporter *ExportService
	registry *reportRegistry
	logger   *zap.Logger

	mu    sync.Mutex
	queue jobDispatcher
}

// ReportServiceConfig governs registry retention.
type ReportServiceConfig struct {
	RegistryTTL time.Duration
}

// NewReportService constructs the report service. The queue is attached
// afterwards via SetQueue since the queue's handler needs the service.
func NewReportService(balanceSvc *BalanceService, exporter *ExportService, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		balance:  balanceSvc,
		exporter: exporter,
		registry: newReportRegistry(cfg.RegistryTTL),
		logger:   logger,
	}
}

// SetQueue attaches the dispatcher used for asynchronous processing.
func (s *ReportService) SetQueue(queue jobDispatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = queue
}

func (s *ReportService) dispatcher() jobDispatcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue
}

// CreateReportRequest asks for a rendered balance report over a window.
type CreateReportRequest struct {
	Start  string `json:"start" validate:"required"`
	End    string `json:"end" validate:"required"`
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}

// Create registers a new report job and enqueues its generation.
func (s *ReportService) Create(ctx context.Context, userID string, req CreateReportRequest) (*models.BalanceReport, error) {
	format := models.ReportFormat(strings.ToLower(strings.TrimSpace(req.Format)))
	if format != models.ReportFormatCSV && format != models.ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", req.Format))
	}
	start, err := time.Parse(analysisDateLayout, req.Start)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid start date %q", req.Start))
	}
	end, err := time.Parse(analysisDateLayout, req.End)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid end date %q", req.End))
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end precedes start")
	}

	report := models.BalanceReport{
		ID:          uuid.NewString(),
		UserID:      userID,
		WindowStart: start.UTC(),
		WindowEnd:   end.UTC(),
		Format:      format,
		Status:      models.ReportStatusQueued,
		CreatedAt:   time.Now().UTC(),
	}
	s.registry.put(report)

	queue := s.dispatcher()
	if queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "report queue is not running")
	}
	payload := reportPayload{
		ReportID: report.ID,
		UserID:   userID,
		Window:   balance.Window{Start: req.Start, End: req.End},
		Format:   format,
	}
	if err := queue.Enqueue(jobs.Job{ID: report.ID, Type: "balance-report", Payload: payload}); err != nil {
		s.markFailed(report.ID, "failed to enqueue report job")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	return &report, nil
}

// Get returns a report's current state, enforcing ownership.
func (s *ReportService) Get(ctx context.Context, userID, id string) (*models.BalanceReport, error) {
	report, ok := s.registry.get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	if report.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report belongs to another user")
	}
	return &report, nil
}

// ProcessJob is the queue handler: it analyzes the window and renders the
// result, moving the report through its status transitions.
func (s *ReportService) ProcessJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(reportPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	report, found := s.registry.get(payload.ReportID)
	if !found {
		return fmt.Errorf("report %s no longer registered", payload.ReportID)
	}

	report.Status = models.ReportStatusProcessing
	s.registry.put(report)

	result, _, err := s.balance.Analyze(ctx, payload.UserID, payload.Window)
	if err != nil {
		s.markFailed(report.ID, err.Error())
		return err
	}

	exported, err := s.exporter.Generate(&report, result)
	if err != nil {
		s.markFailed(report.ID, err.Error())
		return err
	}

	now := time.Now().UTC()
	report.Status = models.ReportStatusFinished
	report.FilePath = exported.RelativePath
	report.ResultURL = &exported.URL
	report.FinishedAt = &now
	s.registry.put(report)

	s.logger.Info("balance report generated",
		zap.String("report_id", report.ID),
		zap.String("format", string(report.Format)),
		zap.String("path", exported.RelativePath))
	return nil
}

// Download resolves a signed token to an open file handle.
func (s *ReportService) Download(token string) (*ReportDownload, error) {
	reportID, relPath, expiresAt, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download token")
	}
	file, err := s.exporter.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report file no longer available")
	}
	download := &ReportDownload{File: file, Filename: relPath, ExpiresAt: expiresAt}
	if report, ok := s.registry.get(reportID); ok {
		download.Format = report.Format
	}
	return download, nil
}

// Sweep drops expired registry entries and stale files. Intended to run
// periodically from the hosting process.
func (s *ReportService) Sweep(fileTTL time.Duration) {
	removed := s.registry.sweep()
	files, err := s.exporter.Cleanup(fileTTL)
	if err != nil {
		s.logger.Warn("report file cleanup failed", zap.Error(err))
	}
	if removed > 0 || len(files) > 0 {
		s.logger.Info("report sweep completed", zap.Int("registry_removed", removed), zap.Int("files_removed", len(files)))
	}
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

func (s *ReportService) markFailed(id, message string) {
	report, ok := s.registry.get(id)
	if !ok {
		return
	}
	now := time.Now().UTC()
	report.Status = models.ReportStatusFailed
	report.ErrorMessage = &message
	report.FinishedAt = &now
	s.registry.put(report)
}
