package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carelink/family-contact-api/internal/models"
	appErrors "github.com/carelink/family-contact-api/pkg/errors"
	"github.com/carelink/family-contact-api/pkg/jobs"
	"github.com/carelink/family-contact-api/pkg/storage"
)

type mockExportJobStore struct {
	jobs       map[string]*models.ExportJob
	created    int
	processing []string
	finished   map[string]string
	failed     map[string]string
}

func newMockExportJobStore() *mockExportJobStore {
	return &mockExportJobStore{
		jobs:     make(map[string]*models.ExportJob),
		finished: make(map[string]string),
		failed:   make(map[string]string),
	}
}

func (m *mockExportJobStore) Create(ctx context.Context, job *models.ExportJob) error {
	m.created++
	if job.ID == "" {
		job.ID = "job-1"
	}
	job.CreatedAt = time.Now().UTC()
	m.jobs[job.ID] = job
	return nil
}

func (m *mockExportJobStore) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (m *mockExportJobStore) MarkProcessing(ctx context.Context, id string) error {
	m.processing = append(m.processing, id)
	if job, ok := m.jobs[id]; ok {
		job.Status = models.ExportStatusProcessing
	}
	return nil
}

func (m *mockExportJobStore) MarkFinished(ctx context.Context, id, filePath string) error {
	m.finished[id] = filePath
	if job, ok := m.jobs[id]; ok {
		job.Status = models.ExportStatusFinished
		job.FilePath = &filePath
	}
	return nil
}

func (m *mockExportJobStore) MarkFailed(ctx context.Context, id, message string) error {
	m.failed[id] = message
	if job, ok := m.jobs[id]; ok {
		job.Status = models.ExportStatusFailed
		job.ErrorMessage = &message
	}
	return nil
}

type mockSessionLister struct {
	sessions []models.ContactSession
	err      error
}

func (m *mockSessionLister) ListForExport(ctx context.Context, childID string, from, to *time.Time) ([]models.ContactSession, error) {
	return m.sessions, m.err
}

type mockChildDetailReader struct {
	children map[string]*models.Child
}

func (m *mockChildDetailReader) FindByID(ctx context.Context, id string) (*models.Child, error) {
	child, ok := m.children[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return child, nil
}

type mockDispatcher struct {
	jobs []jobs.Job
	err  error
}

func (m *mockDispatcher) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.jobs = append(m.jobs, job)
	return nil
}

func newExportService(t *testing.T, repo *mockExportJobStore, sessions *mockSessionLister, children *mockChildDetailReader, dispatcher *mockDispatcher) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	members := &mockMemberReader{members: map[string]*models.FamilyMember{}}
	return NewExportService(repo, sessions, members, children, dispatcher, store, signer, ExportConfig{APIPrefix: "/api/v1"}, nil, zap.NewNop())
}

func TestExportServiceRequestQueuesJob(t *testing.T) {
	repo := newMockExportJobStore()
	children := &mockChildDetailReader{children: map[string]*models.Child{"child-1": {ID: "child-1", FullName: "Jamie Doe"}}}
	dispatcher := &mockDispatcher{}
	svc := newExportService(t, repo, &mockSessionLister{}, children, dispatcher)

	res, err := svc.Request(context.Background(), ContactLogExportRequest{ChildID: "child-1", Format: models.ExportFormatCSV}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, res.Status)
	assert.Equal(t, 1, repo.created)
	require.Len(t, dispatcher.jobs, 1)
	assert.Equal(t, "contact_log_export", dispatcher.jobs[0].Type)
	assert.Equal(t, res.ID, dispatcher.jobs[0].ID)
}

func TestExportServiceRequestUnknownChild(t *testing.T) {
	svc := newExportService(t, newMockExportJobStore(), &mockSessionLister{}, &mockChildDetailReader{children: map[string]*models.Child{}}, &mockDispatcher{})

	_, err := svc.Request(context.Background(), ContactLogExportRequest{ChildID: "missing", Format: models.ExportFormatPDF}, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportServiceRequestEnqueueFailureMarksJob(t *testing.T) {
	repo := newMockExportJobStore()
	children := &mockChildDetailReader{children: map[string]*models.Child{"child-1": {ID: "child-1"}}}
	svc := newExportService(t, repo, &mockSessionLister{}, children, &mockDispatcher{err: errors.New("queue full")})

	_, err := svc.Request(context.Background(), ContactLogExportRequest{ChildID: "child-1", Format: models.ExportFormatCSV}, "user-1")
	require.Error(t, err)
	assert.Len(t, repo.failed, 1)
}

func TestExportServiceGetStatusOwnership(t *testing.T) {
	repo := newMockExportJobStore()
	repo.jobs["job-1"] = &models.ExportJob{ID: "job-1", Status: models.ExportStatusQueued, CreatedBy: "owner"}
	svc := newExportService(t, repo, &mockSessionLister{}, &mockChildDetailReader{}, &mockDispatcher{})

	_, err := svc.GetStatus(context.Background(), "job-1", "someone-else", models.RoleSocialWorker)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	res, err := svc.GetStatus(context.Background(), "job-1", "someone-else", models.RoleManager)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, res.Status)
	assert.Nil(t, res.DownloadURL)
}

func TestExportServiceGetStatusFinishedSignsURL(t *testing.T) {
	repo := newMockExportJobStore()
	filePath := "contact_log_child-1.csv"
	repo.jobs["job-1"] = &models.ExportJob{
		ID:        "job-1",
		Status:    models.ExportStatusFinished,
		FilePath:  &filePath,
		CreatedBy: "owner",
		Params:    models.ExportJobParams{ChildID: "child-1", Format: models.ExportFormatCSV},
	}
	svc := newExportService(t, repo, &mockSessionLister{}, &mockChildDetailReader{}, &mockDispatcher{})

	res, err := svc.GetStatus(context.Background(), "job-1", "owner", models.RoleSocialWorker)
	require.NoError(t, err)
	require.NotNil(t, res.DownloadURL)
	assert.True(t, strings.HasPrefix(*res.DownloadURL, "/api/v1/exports/download/"))
}

func TestExportServiceGenerateCSV(t *testing.T) {
	repo := newMockExportJobStore()
	quality := models.QualityPositive
	attended := true
	sessions := &mockSessionLister{sessions: []models.ContactSession{{
		ID:                   "s1",
		ReferenceNumber:      "CV-2025-0001",
		FamilyMemberID:       "fm-1",
		SessionDate:          time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		Status:               models.SessionStatusCompleted,
		PlannedStartTime:     "14:00",
		PlannedEndTime:       "15:30",
		ChildAttended:        &attended,
		FamilyMemberAttended: &attended,
		InteractionQuality:   &quality,
	}}}
	children := &mockChildDetailReader{children: map[string]*models.Child{"child-1": {ID: "child-1", FullName: "Jamie Doe"}}}
	svc := newExportService(t, repo, sessions, children, &mockDispatcher{})

	job := &models.ExportJob{ID: "job-1", Params: models.ExportJobParams{ChildID: "child-1", Format: models.ExportFormatCSV}}
	relPath, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.Contains(t, relPath, "contact_log_child-1")

	file, err := svc.storage.Open(relPath)
	require.NoError(t, err)
	defer file.Close()
	buf := make([]byte, 4096)
	n, _ := file.Read(buf)
	content := string(buf[:n])
	assert.Contains(t, content, "CV-2025-0001")
	assert.Contains(t, content, "14:00-15:30")
}

func TestExportServiceResolveDownload(t *testing.T) {
	repo := newMockExportJobStore()
	children := &mockChildDetailReader{children: map[string]*models.Child{"child-1": {ID: "child-1", FullName: "Jamie Doe"}}}
	svc := newExportService(t, repo, &mockSessionLister{}, children, &mockDispatcher{})

	relPath, err := svc.storage.Save("contact_log_child-1.csv", []byte("Reference\n"))
	require.NoError(t, err)
	repo.jobs["job-1"] = &models.ExportJob{
		ID:       "job-1",
		Status:   models.ExportStatusFinished,
		FilePath: &relPath,
		Params:   models.ExportJobParams{ChildID: "child-1", Format: models.ExportFormatCSV},
	}
	token, _, err := svc.signer.Generate("job-1", relPath)
	require.NoError(t, err)

	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, models.ExportFormatCSV, download.Format)
	assert.Contains(t, download.Filename, "child-1")

	_, err = svc.ResolveDownload(context.Background(), "bogus-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportWorkerHandle(t *testing.T) {
	repo := newMockExportJobStore()
	children := &mockChildDetailReader{children: map[string]*models.Child{"child-1": {ID: "child-1", FullName: "Jamie Doe"}}}
	svc := newExportService(t, repo, &mockSessionLister{}, children, &mockDispatcher{})
	worker := NewExportWorker(repo, svc, 3, zap.NewNop())

	repo.jobs["job-1"] = &models.ExportJob{ID: "job-1", Status: models.ExportStatusQueued, Params: models.ExportJobParams{ChildID: "child-1", Format: models.ExportFormatCSV}}

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 0}))
	assert.Contains(t, repo.processing, "job-1")
	assert.Contains(t, repo.finished, "job-1")
	assert.Equal(t, models.ExportStatusFinished, repo.jobs["job-1"].Status)
}

func TestExportWorkerMarksFailedAfterRetries(t *testing.T) {
	repo := newMockExportJobStore()
	// Missing child makes Generate fail on every attempt.
	children := &mockChildDetailReader{children: map[string]*models.Child{}}
	svc := newExportService(t, repo, &mockSessionLister{}, children, &mockDispatcher{})
	worker := NewExportWorker(repo, svc, 2, zap.NewNop())

	repo.jobs["job-1"] = &models.ExportJob{ID: "job-1", Status: models.ExportStatusQueued, Params: models.ExportJobParams{ChildID: "missing", Format: models.ExportFormatCSV}}

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1}))
	assert.Empty(t, repo.failed)

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 2}))
	assert.Contains(t, repo.failed, "job-1")
}
