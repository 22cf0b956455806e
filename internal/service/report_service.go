package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nanoufn/bolsa-api/internal/dto"
	"github.com/nanoufn/bolsa-api/internal/models"
	appErrors "github.com/nanoufn/bolsa-api/pkg/errors"
	"github.com/nanoufn/bolsa-api/pkg/export"
	"github.com/nanoufn/bolsa-api/pkg/jobs"
	"github.com/nanoufn/bolsa-api/pkg/timeutil"
)

// ReportJobType identifies report generation jobs on the worker queue.
const ReportJobType = "report.generate"

var weekdayLabels = [...]string{
	"Domingo", "Segunda-feira", "Terça-feira", "Quarta-feira",
	"Quinta-feira", "Sexta-feira", "Sábado",
}

type reportEntryLister interface {
	ListByRange(ctx context.Context, userID string, start, end time.Time) ([]models.DayEntry, error)
}

type reportProfileReader interface {
	FindByUser(ctx context.Context, userID string) (*models.Profile, error)
}

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	FindByID(ctx context.Context, id string) (*models.ReportJob, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkFinished(ctx context.Context, id, resultPath string, finishedAt time.Time) error
	MarkFailed(ctx context.Context, id, message string, finishedAt time.Time) error
}

type timesheetRenderer interface {
	Render(data export.TimesheetData) ([]byte, error)
}

type reportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type reportEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type downloadSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

type reportJobRecorder interface {
	ObserveReportJob(status string)
}

// ReportService assembles the monthly timesheet, renders it synchronously,
// and drives the async generation pipeline.
type ReportService struct {
	entries      reportEntryLister
	profiles     reportProfileReader
	holidays     holidayChecker
	jobStore     reportJobStore
	renderer     timesheetRenderer
	storage      reportStorage
	queue        reportEnqueuer
	signer       downloadSigner
	metrics      reportJobRecorder
	validator    *validator.Validate
	logger       *zap.Logger
	downloadPath string
}

// NewReportService wires the report pipeline. queue, signer and metrics may
// be nil when only synchronous rendering is needed.
func NewReportService(
	entries reportEntryLister,
	profiles reportProfileReader,
	holidays holidayChecker,
	jobStore reportJobStore,
	renderer timesheetRenderer,
	storage reportStorage,
	queue reportEnqueuer,
	signer downloadSigner,
	metrics reportJobRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
	downloadPath string,
) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if downloadPath == "" {
		downloadPath = "/reports/download"
	}
	return &ReportService{
		entries:      entries,
		profiles:     profiles,
		holidays:     holidays,
		jobStore:     jobStore,
		renderer:     renderer,
		storage:      storage,
		queue:        queue,
		signer:       signer,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		downloadPath: downloadPath,
	}
}

// BuildMonth assembles the report rows for every working, non-holiday day
// of the month. Days without entries are kept with placeholder values so
// the printed table covers the full month.
func (s *ReportService) BuildMonth(ctx context.Context, userID string, year, month int) (*dto.ReportData, error) {
	req := dto.ReportRequest{Year: year, Month: month}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}

	profile, err := s.profiles.FindByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
		}
		profile = &models.Profile{UserID: userID}
	}

	start, end := timeutil.MonthRange(year, month)
	entries, err := s.entries.ListByRange(ctx, userID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list day entries")
	}
	byDay := map[string][]models.DayEntry{}
	for _, entry := range entries {
		key := timeutil.DayKey(entry.Date)
		byDay[key] = append(byDay[key], entry)
	}

	data := &dto.ReportData{
		Year:    year,
		Month:   month,
		Scholar: profile.Scholar,
		Advisor: profile.Advisor,
		Lab:     profile.Lab,
		Grant:   profile.Grant,
		Days:    []dto.ReportDay{},
	}

	for _, day := range timeutil.WorkingDays(year, month) {
		holiday, err := s.holidays.IsHoliday(ctx, userID, day)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check holidays")
		}
		if holiday {
			continue
		}

		dayEntries := byDay[timeutil.DayKey(day)]
		sort.SliceStable(dayEntries, func(i, j int) bool { return dayEntries[i].StartTime < dayEntries[j].StartTime })

		row := dto.ReportDay{
			Date:       timeutil.DayKey(day),
			DayLabel:   weekdayLabels[int(day.Weekday())],
			Schedule:   "-",
			Activities: "-",
		}
		if len(dayEntries) > 0 {
			schedule := make([]string, 0, len(dayEntries))
			activities := make([]string, 0, len(dayEntries))
			seen := map[string]bool{}
			for _, entry := range dayEntries {
				schedule = append(schedule, timeutil.FormatInterval(entry.StartTime, entry.EndTime))
				if !seen[entry.Description] {
					seen[entry.Description] = true
					activities = append(activities, entry.Description)
				}
				row.DailyHours += entry.Hours
			}
			row.Schedule = strings.Join(schedule, " | ")
			row.Activities = strings.Join(activities, "; ")
		}
		data.Days = append(data.Days, row)
		data.TotalHours += row.DailyHours
	}

	return data, nil
}

// GeneratePDF renders the month synchronously and returns the document
// bytes with a suggested filename.
func (s *ReportService) GeneratePDF(ctx context.Context, userID string, year, month int) ([]byte, string, error) {
	data, err := s.BuildMonth(ctx, userID, year, month)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err := s.renderer.Render(toTimesheet(data))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return pdfBytes, fmt.Sprintf("relatorio-%04d-%02d.pdf", year, month), nil
}

// Enqueue persists a report job and pushes it onto the worker queue.
func (s *ReportService) Enqueue(ctx context.Context, userID string, req dto.ReportRequest) (*dto.ReportJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}

	job := &models.ReportJob{
		UserID: userID,
		Params: models.ReportJobParams{Year: req.Year, Month: req.Month},
	}
	if err := s.jobStore.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ReportJobType, Payload: job.ID}); err != nil {
		now := time.Now().UTC()
		if markErr := s.jobStore.MarkFailed(ctx, job.ID, "failed to enqueue", now); markErr != nil {
			s.logger.Warn("failed to mark report job failed", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}

	return &dto.ReportJobResponse{ID: job.ID, Status: models.ReportStatusQueued}, nil
}

// Process is the queue handler: it renders the job's month and stores the
// resulting file.
func (s *ReportService) Process(ctx context.Context, queued jobs.Job) error {
	jobID, ok := queued.Payload.(string)
	if !ok || jobID == "" {
		return fmt.Errorf("report job %s carries no job id", queued.ID)
	}

	job, err := s.jobStore.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load report job %s: %w", jobID, err)
	}

	if err := s.jobStore.MarkProcessing(ctx, job.ID); err != nil {
		return fmt.Errorf("mark report job processing: %w", err)
	}

	pdfBytes, filename, err := s.GeneratePDF(ctx, job.UserID, job.Params.Year, job.Params.Month)
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}

	relPath, err := s.storage.Save(fmt.Sprintf("%s-%s", job.ID, filename), pdfBytes)
	if err != nil {
		return s.fail(ctx, job.ID, err)
	}

	if err := s.jobStore.MarkFinished(ctx, job.ID, relPath, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark report job finished: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveReportJob(string(models.ReportStatusFinished))
	}
	s.logger.Info("report job finished", zap.String("job_id", job.ID), zap.String("path", relPath))
	return nil
}

func (s *ReportService) fail(ctx context.Context, jobID string, cause error) error {
	if err := s.jobStore.MarkFailed(ctx, jobID, cause.Error(), time.Now().UTC()); err != nil {
		s.logger.Warn("failed to mark report job failed", zap.String("job_id", jobID), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.ObserveReportJob(string(models.ReportStatusFailed))
	}
	return cause
}

// Status reports job progress. Finished jobs get a signed download URL.
func (s *ReportService) Status(ctx context.Context, userID, jobID string) (*dto.ReportStatusResponse, error) {
	job, err := s.jobStore.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}

	resp := &dto.ReportStatusResponse{ID: job.ID, Status: job.Status, Error: job.ErrorMessage}
	if job.Status == models.ReportStatusFinished && job.ResultPath != nil {
		token, _, err := s.signer.Generate(job.ID, *job.ResultPath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		url := s.downloadPath + "?token=" + token
		resp.DownloadURL = &url
	}
	return resp, nil
}

// OpenDownload validates a signed token and opens the referenced file.
func (s *ReportService) OpenDownload(ctx context.Context, token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}

	job, err := s.jobStore.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.Status != models.ReportStatusFinished || job.ResultPath == nil || *job.ResultPath != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report file not available")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open report file")
	}
	return file, fmt.Sprintf("relatorio-%04d-%02d.pdf", job.Params.Year, job.Params.Month), nil
}

func toTimesheet(data *dto.ReportData) export.TimesheetData {
	days := make([]export.TimesheetDay, 0, len(data.Days))
	for _, day := range data.Days {
		label := day.Date
		if parsed, err := time.Parse("2006-01-02", day.Date); err == nil {
			label = parsed.Format("02/01/2006")
		}
		hours := "-"
		if day.DailyHours > 0 {
			hours = timeutil.FormatHours(day.DailyHours)
		}
		days = append(days, export.TimesheetDay{
			Label:      label,
			Schedule:   day.Schedule,
			Activities: day.Activities,
			Hours:      hours,
		})
	}
	return export.TimesheetData{
		Scholar:    data.Scholar,
		Advisor:    data.Advisor,
		Lab:        data.Lab,
		Grant:      data.Grant,
		Month:      data.Month,
		Year:       data.Year,
		Days:       days,
		TotalHours: timeutil.FormatHours(data.TotalHours),
	}
}
