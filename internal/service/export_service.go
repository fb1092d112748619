package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/carelink/family-contact-api/internal/models"
	appErrors "github.com/carelink/family-contact-api/pkg/errors"
	"github.com/carelink/family-contact-api/pkg/export"
	"github.com/carelink/family-contact-api/pkg/jobs"
	"github.com/carelink/family-contact-api/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkFinished(ctx context.Context, id, filePath string) error
	MarkFailed(ctx context.Context, id, message string) error
}

type sessionExportLister interface {
	ListForExport(ctx context.Context, childID string, from, to *time.Time) ([]models.ContactSession, error)
}

type childDetailReader interface {
	FindByID(ctx context.Context, id string) (*models.Child, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ContactLogExportRequest describes a contact log export payload.
type ContactLogExportRequest struct {
	ChildID  string              `json:"child_id" validate:"required"`
	DateFrom *time.Time          `json:"date_from,omitempty"`
	DateTo   *time.Time          `json:"date_to,omitempty"`
	Format   models.ExportFormat `json:"format" validate:"required"`
}

// ExportStatusResponse reports job progress to clients.
type ExportStatusResponse struct {
	ID          string              `json:"id"`
	Status      models.ExportStatus `json:"status"`
	DownloadURL *string             `json:"download_url,omitempty"`
	Error       *string             `json:"error,omitempty"`
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportService queues contact log exports and renders the stored files.
type ExportService struct {
	repo      exportJobStore
	sessions  sessionExportLister
	members   familyMemberReader
	children  childDetailReader
	queue     jobDispatcher
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(repo exportJobStore, sessions sessionExportLister, members familyMemberReader, children childDetailReader, queue jobDispatcher, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		repo:      repo,
		sessions:  sessions,
		members:   members,
		children:  children,
		queue:     queue,
		storage:   store,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Request validates and queues a contact log export.
func (s *ExportService) Request(ctx context.Context, req ContactLogExportRequest, actorID string) (*ExportStatusResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if _, err := s.children.FindByID(ctx, req.ChildID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify child")
	}
	job := &models.ExportJob{
		Params: models.ExportJobParams{
			ChildID:  req.ChildID,
			DateFrom: req.DateFrom,
			DateTo:   req.DateTo,
			Format:   req.Format,
		},
		Status:    models.ExportStatusQueued,
		CreatedBy: actorID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "contact_log_export"}); err != nil {
		if markErr := s.repo.MarkFailed(ctx, job.ID, "failed to enqueue export"); markErr != nil {
			s.logger.Sugar().Warnw("failed to mark export job failed", "job_id", job.ID, "error", markErr)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return &ExportStatusResponse{ID: job.ID, Status: job.Status}, nil
}

// GetStatus exposes job metadata, enforcing ownership for social workers.
func (s *ExportService) GetStatus(ctx context.Context, id, actorID string, role models.UserRole) (*ExportStatusResponse, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if role == models.RoleSocialWorker && job.CreatedBy != actorID {
		return nil, appErrors.ErrForbidden
	}
	resp := &ExportStatusResponse{ID: job.ID, Status: job.Status, Error: job.ErrorMessage}
	if job.Status == models.ExportStatusFinished && job.FilePath != nil {
		token, _, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		url := fmt.Sprintf("%s/exports/download/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token)
		resp.DownloadURL = &url
	}
	return resp, nil
}

// ResolveDownload validates a signed token and opens the stored export file.
func (s *ExportService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportStatusFinished || job.FilePath == nil || *job.FilePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	return &ExportDownload{
		File:      file,
		Filename:  fmt.Sprintf("contact-log-%s.%s", job.Params.ChildID, job.Params.Format),
		Format:    job.Params.Format,
		ExpiresAt: expiresAt,
	}, nil
}

// Generate builds the contact log dataset for a job and stores the rendered
// file, returning the relative storage path.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (string, error) {
	if job == nil {
		return "", fmt.Errorf("job nil")
	}
	child, err := s.children.FindByID(ctx, job.Params.ChildID)
	if err != nil {
		return "", fmt.Errorf("load child: %w", err)
	}
	sessions, err := s.sessions.ListForExport(ctx, job.Params.ChildID, job.Params.DateFrom, job.Params.DateTo)
	if err != nil {
		return "", fmt.Errorf("list sessions: %w", err)
	}
	dataset := s.buildDataset(ctx, sessions)
	title := fmt.Sprintf("Contact Log %s", child.FullName)

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("contact_log_%s_%s.%s", job.Params.ChildID, time.Now().UTC().Format("20060102_150405"), job.Params.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return "", fmt.Errorf("store export: %w", err)
	}
	return relPath, nil
}

// Cleanup removes stored files older than ttl (defaults to ResultTTL).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

var contactLogHeaders = []string{
	"Reference", "Date", "Status", "Family Member", "Planned Time", "Actual Time",
	"Duration (min)", "Child Attended", "Family Member Attended", "Quality", "Venue", "Notes",
}

func (s *ExportService) buildDataset(ctx context.Context, sessions []models.ContactSession) export.Dataset {
	memberNames := make(map[string]string)
	rows := make([]map[string]string, 0, len(sessions))
	for _, session := range sessions {
		name, ok := memberNames[session.FamilyMemberID]
		if !ok {
			name = session.FamilyMemberID
			if member, err := s.members.FindByID(ctx, session.FamilyMemberID); err == nil {
				name = member.FullName
			}
			memberNames[session.FamilyMemberID] = name
		}
		rows = append(rows, map[string]string{
			"Reference":              session.ReferenceNumber,
			"Date":                   session.SessionDate.Format("2006-01-02"),
			"Status":                 string(session.Status),
			"Family Member":          name,
			"Planned Time":           fmt.Sprintf("%s-%s", session.PlannedStartTime, session.PlannedEndTime),
			"Actual Time":            formatActualTime(session),
			"Duration (min)":         formatOptionalInt(session.DurationMinutes),
			"Child Attended":         formatOptionalBool(session.ChildAttended),
			"Family Member Attended": formatOptionalBool(session.FamilyMemberAttended),
			"Quality":                formatQuality(session.InteractionQuality),
			"Venue":                  derefString(session.Venue),
			"Notes":                  exportNotes(session),
		})
	}
	return export.Dataset{Headers: contactLogHeaders, Rows: rows}
}

func formatActualTime(session models.ContactSession) string {
	if session.ActualStartTime == nil || session.ActualEndTime == nil {
		return ""
	}
	return fmt.Sprintf("%s-%s", *session.ActualStartTime, *session.ActualEndTime)
}

func formatOptionalInt(value *int) string {
	if value == nil {
		return ""
	}
	return fmt.Sprintf("%d", *value)
}

func formatOptionalBool(value *bool) string {
	if value == nil {
		return ""
	}
	if *value {
		return "yes"
	}
	return "no"
}

func formatQuality(quality *models.InteractionQuality) string {
	if quality == nil {
		return ""
	}
	return string(*quality)
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func exportNotes(session models.ContactSession) string {
	if session.Status == models.SessionStatusCancelled {
		return derefString(session.CancellationReason)
	}
	return derefString(session.Assessment)
}

// ExportWorker bridges queue jobs to ExportService.
type ExportWorker struct {
	repo       exportJobStore
	exporter   *ExportService
	logger     *zap.Logger
	maxRetries int
}

// NewExportWorker constructs a worker.
func NewExportWorker(repo exportJobStore, exporter *ExportService, maxRetries int, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ExportWorker{repo: repo, exporter: exporter, logger: logger, maxRetries: maxRetries}
}

// Handle processes a queued export job. Failures surface back to the queue
// for retry; the job row is only marked failed once attempts are exhausted.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.FindByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if err := w.repo.MarkProcessing(ctx, job.ID); err != nil {
		return err
	}
	relPath, err := w.exporter.Generate(ctx, record)
	if err != nil {
		if job.Attempt >= w.maxRetries {
			if markErr := w.repo.MarkFailed(ctx, job.ID, err.Error()); markErr != nil {
				w.logger.Sugar().Warnw("failed to mark export job failed", "job_id", job.ID, "error", markErr)
			}
		}
		return err
	}
	if err := w.repo.MarkFinished(ctx, job.ID, relPath); err != nil {
		w.logger.Sugar().Warnw("failed to mark export job finished", "job_id", job.ID, "error", err)
		return err
	}
	return nil
}
