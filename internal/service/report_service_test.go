package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoufn/bolsa-api/internal/dto"
	"github.com/nanoufn/bolsa-api/internal/models"
	appErrors "github.com/nanoufn/bolsa-api/pkg/errors"
	"github.com/nanoufn/bolsa-api/pkg/export"
	"github.com/nanoufn/bolsa-api/pkg/jobs"
	"github.com/nanoufn/bolsa-api/pkg/storage"
	"github.com/nanoufn/bolsa-api/pkg/timeutil"
)

type fakeJobStore struct {
	jobs   map[string]models.ReportJob
	nextID int
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: map[string]models.ReportJob{}}
}

func (s *fakeJobStore) Create(_ context.Context, job *models.ReportJob) error {
	s.nextID++
	job.ID = fmt.Sprintf("job-%d", s.nextID)
	job.Status = models.ReportStatusQueued
	s.jobs[job.ID] = *job
	return nil
}

func (s *fakeJobStore) FindByID(_ context.Context, id string) (*models.ReportJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &job, nil
}

func (s *fakeJobStore) MarkProcessing(_ context.Context, id string) error {
	job := s.jobs[id]
	job.Status = models.ReportStatusProcessing
	s.jobs[id] = job
	return nil
}

func (s *fakeJobStore) MarkFinished(_ context.Context, id, resultPath string, finishedAt time.Time) error {
	job := s.jobs[id]
	job.Status = models.ReportStatusFinished
	job.ResultPath = &resultPath
	job.FinishedAt = &finishedAt
	s.jobs[id] = job
	return nil
}

func (s *fakeJobStore) MarkFailed(_ context.Context, id, message string, finishedAt time.Time) error {
	job := s.jobs[id]
	job.Status = models.ReportStatusFailed
	job.ErrorMessage = &message
	job.FinishedAt = &finishedAt
	s.jobs[id] = job
	return nil
}

type fakeRenderer struct {
	rendered []export.TimesheetData
	fail     bool
}

func (r *fakeRenderer) Render(data export.TimesheetData) ([]byte, error) {
	if r.fail {
		return nil, fmt.Errorf("render failed")
	}
	r.rendered = append(r.rendered, data)
	return []byte("%PDF-1.4 fake"), nil
}

type fakeQueue struct{ enqueued []jobs.Job }

func (q *fakeQueue) Enqueue(job jobs.Job) error {
	q.enqueued = append(q.enqueued, job)
	return nil
}

type reportFixture struct {
	entries  *fakeEntryStore
	profile  *fakeProfileReader
	holidays *fakeHolidayChecker
	jobStore *fakeJobStore
	renderer *fakeRenderer
	queue    *fakeQueue
	storage  *storage.LocalStorage
	signer   *storage.SignedURLSigner
}

func newReportFixture(t *testing.T) *reportFixture {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return &reportFixture{
		entries:  &fakeEntryStore{},
		profile:  &fakeProfileReader{weeklyHours: 20},
		holidays: &fakeHolidayChecker{holidays: map[string]bool{}},
		jobStore: newFakeJobStore(),
		renderer: &fakeRenderer{},
		queue:    &fakeQueue{},
		storage:  store,
		signer:   storage.NewSignedURLSigner("test-secret", time.Hour),
	}
}

func (f *reportFixture) service() *ReportService {
	return NewReportService(f.entries, f.profile, f.holidays, f.jobStore, f.renderer, f.storage, f.queue, f.signer, nil, nil, nil, "/api/v1/reports/download")
}

func TestBuildMonthAssemblesDays(t *testing.T) {
	f := newReportFixture(t)
	f.entries.entries = []models.DayEntry{
		{ID: "e1", UserID: "u1", Date: timeutil.Date(2024, 6, 4), StartTime: "14:00", EndTime: "16:00", Description: "Pesquisa", Hours: 2},
		{ID: "e2", UserID: "u1", Date: timeutil.Date(2024, 6, 4), StartTime: "08:00", EndTime: "10:00", Description: "Aula", Hours: 2},
	}

	data, err := f.service().BuildMonth(context.Background(), "u1", 2024, 6)
	require.NoError(t, err)
	// June 2024 has 20 working days and no computed holidays.
	require.Len(t, data.Days, 20)
	assert.InDelta(t, 4.0, data.TotalHours, 1e-9)

	var tuesday *dto.ReportDay
	for i := range data.Days {
		if data.Days[i].Date == "2024-06-04" {
			tuesday = &data.Days[i]
		}
	}
	require.NotNil(t, tuesday)
	assert.Equal(t, "Terça-feira", tuesday.DayLabel)
	assert.Equal(t, "08:00-10:00 | 14:00-16:00", tuesday.Schedule)
	assert.Equal(t, "Aula; Pesquisa", tuesday.Activities)
	assert.InDelta(t, 4.0, tuesday.DailyHours, 1e-9)

	empty := data.Days[len(data.Days)-1]
	assert.Equal(t, "-", empty.Schedule)
	assert.Equal(t, "-", empty.Activities)
}

func TestBuildMonthSkipsHolidays(t *testing.T) {
	f := newReportFixture(t)
	f.holidays.holidays = map[string]bool{"2024-06-10": true}

	data, err := f.service().BuildMonth(context.Background(), "u1", 2024, 6)
	require.NoError(t, err)
	assert.Len(t, data.Days, 19)
	for _, day := range data.Days {
		assert.NotEqual(t, "2024-06-10", day.Date)
	}
}

func TestGeneratePDF(t *testing.T) {
	f := newReportFixture(t)

	pdfBytes, filename, err := f.service().GeneratePDF(context.Background(), "u1", 2024, 6)
	require.NoError(t, err)
	assert.Equal(t, "relatorio-2024-06.pdf", filename)
	assert.NotEmpty(t, pdfBytes)
	require.Len(t, f.renderer.rendered, 1)
	assert.Equal(t, "0h", f.renderer.rendered[0].TotalHours)
}

func TestReportJobLifecycle(t *testing.T) {
	f := newReportFixture(t)
	svc := f.service()

	queued, err := svc.Enqueue(context.Background(), "u1", dto.ReportRequest{Year: 2024, Month: 6})
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, queued.Status)
	require.Len(t, f.queue.enqueued, 1)

	require.NoError(t, svc.Process(context.Background(), f.queue.enqueued[0]))

	status, err := svc.Status(context.Background(), "u1", queued.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFinished, status.Status)
	require.NotNil(t, status.DownloadURL)

	token := strings.TrimPrefix(*status.DownloadURL, "/api/v1/reports/download?token=")
	file, name, err := svc.OpenDownload(context.Background(), token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, "relatorio-2024-06.pdf", name)

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(content))
}

func TestReportJobFailureIsRecorded(t *testing.T) {
	f := newReportFixture(t)
	f.renderer.fail = true
	svc := f.service()

	queued, err := svc.Enqueue(context.Background(), "u1", dto.ReportRequest{Year: 2024, Month: 6})
	require.NoError(t, err)

	require.Error(t, svc.Process(context.Background(), f.queue.enqueued[0]))

	status, err := svc.Status(context.Background(), "u1", queued.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusFailed, status.Status)
	require.NotNil(t, status.Error)
	assert.Nil(t, status.DownloadURL)
}

func TestReportStatusHidesForeignJobs(t *testing.T) {
	f := newReportFixture(t)
	svc := f.service()

	queued, err := svc.Enqueue(context.Background(), "u1", dto.ReportRequest{Year: 2024, Month: 6})
	require.NoError(t, err)

	_, err = svc.Status(context.Background(), "u2", queued.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestOpenDownloadRejectsTamperedToken(t *testing.T) {
	f := newReportFixture(t)
	svc := f.service()

	_, _, err := svc.OpenDownload(context.Background(), "not.a.valid.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
