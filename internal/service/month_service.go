package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nanoufn/bolsa-api/internal/dto"
	"github.com/nanoufn/bolsa-api/internal/models"
	"github.com/nanoufn/bolsa-api/pkg/config"
	appErrors "github.com/nanoufn/bolsa-api/pkg/errors"
	"github.com/nanoufn/bolsa-api/pkg/timeutil"
)

// Residual float noise below this is treated as a met target (well under
// the one-minute granularity of the schedule).
const hoursEpsilon = 1e-6

type fillEntryStore interface {
	ListByRange(ctx context.Context, userID string, start, end time.Time) ([]models.DayEntry, error)
	Create(ctx context.Context, entry *models.DayEntry) error
	UpdateTimes(ctx context.Context, id, startTime, endTime string, hours float64, color models.EntryColor) error
}

type fillSlotLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.WeeklySlot, error)
}

type fillActivityLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.DefaultActivity, error)
}

type fillProfileReader interface {
	FindByUser(ctx context.Context, userID string) (*models.Profile, error)
}

type holidayChecker interface {
	IsHoliday(ctx context.Context, userID string, day time.Time) (bool, error)
}

// fillLocker serializes fill runs per user and month. The find-or-create
// step of the recurring pass is not atomic, so two concurrent runs over the
// same month would duplicate entries.
type fillLocker interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type fillRunRecorder interface {
	ObserveFillRun(createdCount int)
}

// MonthService implements the month auto-fill scheduler: it materialises
// recurring weekly slots into day entries and then tops each working day up
// to the daily target with filler activities drawn from a rotating priority
// queue.
type MonthService struct {
	entries    fillEntryStore
	slots      fillSlotLister
	activities fillActivityLister
	profiles   fillProfileReader
	holidays   holidayChecker
	locks      fillLocker
	metrics    fillRunRecorder
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        config.SchedulerConfig
}

// NewMonthService wires scheduler dependencies. locks and metrics may be nil.
func NewMonthService(
	entries fillEntryStore,
	slots fillSlotLister,
	activities fillActivityLister,
	profiles fillProfileReader,
	holidays holidayChecker,
	locks fillLocker,
	metrics fillRunRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.SchedulerConfig,
) *MonthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MorningStartTime == "" {
		cfg.MorningStartTime = "08:00"
	}
	if cfg.AfternoonStartTime == "" {
		cfg.AfternoonStartTime = "14:00"
	}
	if cfg.MorningMaxHours <= 0 {
		cfg.MorningMaxHours = 4
	}
	if cfg.WorkingDaysPerWeek <= 0 {
		cfg.WorkingDaysPerWeek = 5
	}
	return &MonthService{
		entries:    entries,
		slots:      slots,
		activities: activities,
		profiles:   profiles,
		holidays:   holidays,
		locks:      locks,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// buildPriorityQueue converts the activity list into the flat round-robin
// ordering the gap filler draws from. Activities are sorted by description
// for reproducibility and repeated a fixed number of times; the shared
// cursor indexes into this list modulo its length.
func buildPriorityQueue(activities []models.DefaultActivity) []models.DefaultActivity {
	sorted := make([]models.DefaultActivity, len(activities))
	copy(sorted, activities)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Description < sorted[j].Description })

	const weight = 3
	queue := make([]models.DefaultActivity, 0, len(sorted)*weight)
	for _, item := range sorted {
		for i := 0; i < weight; i++ {
			queue = append(queue, item)
		}
	}
	return queue
}

func sortByStart(entries []models.DayEntry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].StartTime < entries[j].StartTime })
}

// bumpPastOverlap advances the candidate start time past every entry whose
// interval contains it, guaranteeing the next block never starts inside an
// occupied interval.
func bumpPastOverlap(candidate string, entries []models.DayEntry) string {
	sorted := make([]models.DayEntry, len(entries))
	copy(sorted, entries)
	sortByStart(sorted)
	for _, entry := range sorted {
		start := timeutil.ClockMinutes(entry.StartTime)
		end := timeutil.ClockMinutes(entry.EndTime)
		cur := timeutil.ClockMinutes(candidate)
		if start <= cur && cur < end {
			candidate = entry.EndTime
		}
	}
	return candidate
}

func sumHours(entries []models.DayEntry) float64 {
	total := 0.0
	for _, entry := range entries {
		total += entry.Hours
	}
	return total
}

// occupiedHours sums the portions of the entries that fall inside the
// [startTime, endTime) window.
func occupiedHours(entries []models.DayEntry, startTime, endTime string) float64 {
	windowStart := timeutil.ClockMinutes(startTime)
	windowEnd := timeutil.ClockMinutes(endTime)
	total := 0
	for _, entry := range entries {
		start := timeutil.ClockMinutes(entry.StartTime)
		end := timeutil.ClockMinutes(entry.EndTime)
		if start < windowStart {
			start = windowStart
		}
		if end > windowEnd {
			end = windowEnd
		}
		if end > start {
			total += end - start
		}
	}
	return float64(total) / 60
}

func groupDaysByWeek(days []time.Time) [][]time.Time {
	byWeek := map[string][]time.Time{}
	for _, day := range days {
		key := timeutil.DayKey(timeutil.WeekStart(day))
		byWeek[key] = append(byWeek[key], day)
	}
	weeks := make([][]time.Time, 0, len(byWeek))
	for _, week := range byWeek {
		sort.Slice(week, func(i, j int) bool { return week[i].Before(week[j]) })
		weeks = append(weeks, week)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i][0].Before(weeks[j][0]) })
	return weeks
}

// FillBlanks tops up every working, non-holiday day of the month to the
// daily target. Recurring slots are materialised first for the whole week,
// then each day's remaining deficit is filled with activity blocks placed
// in the morning and afternoon shifts.
func (s *MonthService) FillBlanks(ctx context.Context, userID string, year, month int) (*dto.FillResult, error) {
	req := dto.FillBlanksRequest{Year: year, Month: month}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fill-blanks payload")
	}

	if s.locks != nil {
		key := fillLockKey(userID, year, month)
		ok, err := s.locks.Acquire(ctx, key)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire fill lock")
		}
		if !ok {
			return nil, appErrors.ErrFillInProgress
		}
		defer func() {
			if err := s.locks.Release(ctx, key); err != nil {
				s.logger.Warn("failed to release fill lock", zap.String("key", key), zap.Error(err))
			}
		}()
	}

	profile, err := s.profiles.FindByUser(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	if profile == nil || profile.WeeklyWorkloadHours <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "set the weekly workload hours in your profile before filling the month")
	}
	weeklyTarget := profile.WeeklyWorkloadHours

	slots, err := s.slots.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list weekly slots")
	}
	activities, err := s.activities.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list default activities")
	}
	queue := buildPriorityQueue(activities)
	dailyTarget := weeklyTarget / float64(s.cfg.WorkingDaysPerWeek)

	if len(queue) == 0 && len(slots) == 0 {
		return &dto.FillResult{
			Message:           "no weekly slots or default activities configured, nothing to fill",
			CreatedDates:      []string{},
			WeeklyTargetHours: weeklyTarget,
			MorningStartTime:  s.cfg.MorningStartTime,
		}, nil
	}

	start, end := timeutil.MonthRange(year, month)
	existing, err := s.entries.ListByRange(ctx, userID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list day entries")
	}
	entriesByDay := map[string][]models.DayEntry{}
	for _, entry := range existing {
		key := timeutil.DayKey(entry.Date)
		entriesByDay[key] = append(entriesByDay[key], entry)
	}

	days, err := s.schedulableDays(ctx, userID, year, month)
	if err != nil {
		return nil, err
	}

	run := &fillRun{
		svc:    s,
		userID: userID,
		queue:  queue,
	}

	for _, week := range groupDaysByWeek(days) {
		for _, day := range week {
			key := timeutil.DayKey(day)
			updated, err := run.materialiseSlots(ctx, day, slots, entriesByDay[key])
			if err != nil {
				return nil, err
			}
			entriesByDay[key] = updated
		}

		if len(run.queue) == 0 {
			continue
		}

		for _, day := range week {
			key := timeutil.DayKey(day)
			dayEntries := entriesByDay[key]
			needed := dailyTarget - sumHours(dayEntries)
			if needed <= hoursEpsilon {
				continue
			}
			updated, err := run.fillDay(ctx, day, dayEntries, needed)
			if err != nil {
				return nil, err
			}
			entriesByDay[key] = updated
		}
	}

	createdDates := make([]string, 0, len(run.created))
	for _, entry := range run.created {
		createdDates = append(createdDates, timeutil.DayKey(entry.Date))
	}

	if s.metrics != nil {
		s.metrics.ObserveFillRun(len(run.created))
	}
	s.logger.Info("fill blanks completed",
		zap.String("user_id", userID),
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("created", len(run.created)),
	)

	return &dto.FillResult{
		Message:           "days filled",
		CreatedCount:      len(run.created),
		CreatedDates:      createdDates,
		WeeklyTargetHours: weeklyTarget,
		MorningStartTime:  s.cfg.MorningStartTime,
	}, nil
}

// schedulableDays enumerates the month's Monday-Friday days and drops the
// ones the holiday filter flags.
func (s *MonthService) schedulableDays(ctx context.Context, userID string, year, month int) ([]time.Time, error) {
	working := timeutil.WorkingDays(year, month)
	days := make([]time.Time, 0, len(working))
	for _, day := range working {
		holiday, err := s.holidays.IsHoliday(ctx, userID, day)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check holidays")
		}
		if holiday {
			continue
		}
		days = append(days, day)
	}
	return days, nil
}

func fillLockKey(userID string, year, month int) string {
	return timeutil.DayKey(timeutil.Date(year, time.Month(month), 1)) + ":" + userID
}

// fillRun carries the state shared across the whole month run: the rotating
// queue with its monotonically advancing cursor, and the accumulated list of
// created entries.
type fillRun struct {
	svc     *MonthService
	userID  string
	queue   []models.DefaultActivity
	cursor  int
	created []models.DayEntry
}

// materialiseSlots ensures an entry exists for every recurring slot active
// on the day, creating or reconciling in place. It never deletes, and never
// produces more than one entry per (day, slot) pair.
func (r *fillRun) materialiseSlots(ctx context.Context, day time.Time, slots []models.WeeklySlot, dayEntries []models.DayEntry) ([]models.DayEntry, error) {
	for _, slot := range slots {
		if !slot.AppliesTo(day) {
			continue
		}
		hours := timeutil.Hours(slot.StartTime, slot.EndTime)
		if hours < 0 {
			hours = 0
		}

		matched := -1
		for i, entry := range dayEntries {
			if entry.Description == slot.Description {
				matched = i
				break
			}
		}

		if matched >= 0 {
			entry := &dayEntries[matched]
			if err := r.svc.entries.UpdateTimes(ctx, entry.ID, slot.StartTime, slot.EndTime, hours, models.ColorRecurring); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reconcile recurring entry")
			}
			entry.StartTime = slot.StartTime
			entry.EndTime = slot.EndTime
			entry.Hours = hours
			entry.Color = models.ColorRecurring
			continue
		}

		entry := models.DayEntry{
			UserID:      r.userID,
			Date:        day,
			StartTime:   slot.StartTime,
			EndTime:     slot.EndTime,
			Description: slot.Description,
			Hours:       hours,
			Color:       models.ColorRecurring,
		}
		if err := r.svc.entries.Create(ctx, &entry); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create recurring entry")
		}
		dayEntries = append(dayEntries, entry)
		r.created = append(r.created, entry)
	}
	return dayEntries, nil
}

// fillDay walks the two shifts and inserts filler blocks until the deficit
// is met or no placement remains possible. Unfillable days are left under
// target without error.
func (r *fillRun) fillDay(ctx context.Context, day time.Time, dayEntries []models.DayEntry, needed float64) ([]models.DayEntry, error) {
	f := &dayFill{
		run:       r,
		day:       day,
		remaining: needed,
		entries:   dayEntries,
	}
	f.sorted = make([]models.DayEntry, len(dayEntries))
	copy(f.sorted, dayEntries)
	sortByStart(f.sorted)

	cfg := r.svc.cfg
	morning := cfg.MorningMaxHours
	if f.remaining < morning {
		morning = f.remaining
	}
	// Time already committed in the morning window counts against the
	// morning cap, so a slot-heavy morning pushes fillers to the afternoon.
	morningUsed := occupiedHours(f.sorted, cfg.MorningStartTime, cfg.AfternoonStartTime)
	if morning > morningUsed+hoursEpsilon {
		if err := f.fillShift(ctx, cfg.MorningStartTime, morning, cfg.AfternoonStartTime, morningUsed); err != nil {
			return nil, err
		}
	}
	if f.remaining > hoursEpsilon {
		if err := f.fillShift(ctx, cfg.AfternoonStartTime, f.remaining, "", 0); err != nil {
			return nil, err
		}
	}
	return f.entries, nil
}

// dayFill holds the per-day placement state. entries accumulates created
// blocks for the caller; sorted is the by-start working copy window scans
// run against.
type dayFill struct {
	run       *fillRun
	day       time.Time
	remaining float64
	entries   []models.DayEntry
	sorted    []models.DayEntry
}

// fillShift places blocks from startTime onward. endTime, when non-empty,
// is a hard boundary (the afternoon cutoff for the morning shift); maxHours
// caps the shift's total and alreadyUsed seeds the tally with hours the
// window already holds.
func (f *dayFill) fillShift(ctx context.Context, startTime string, maxHours float64, endTime string, alreadyUsed float64) error {
	shiftUsed := alreadyUsed
	cursor := startTime
	safety := 0

	for f.remaining > hoursEpsilon && shiftUsed < maxHours-hoursEpsilon {
		cursor = bumpPastOverlap(cursor, f.sorted)
		if endTime != "" && timeutil.ClockMinutes(cursor) >= timeutil.ClockMinutes(endTime) {
			break
		}

		shiftRemaining := maxHours - shiftUsed
		if f.remaining < shiftRemaining {
			shiftRemaining = f.remaining
		}
		if shiftRemaining <= hoursEpsilon {
			break
		}

		blocker := f.nextBlocker(cursor)

		windowHours := shiftRemaining
		if blocker != nil {
			windowHours = timeutil.Hours(cursor, blocker.StartTime)
			if windowHours < 0 {
				windowHours = 0
			}
		}
		if endTime != "" {
			boundary := timeutil.Hours(cursor, endTime)
			if boundary < 0 {
				boundary = 0
			}
			if boundary < windowHours {
				windowHours = boundary
			}
		}

		hoursToUse := shiftRemaining
		if windowHours < hoursToUse {
			hoursToUse = windowHours
		}

		if hoursToUse <= hoursEpsilon {
			if blocker != nil {
				cursor = blocker.EndTime
				continue
			}
			safety++
			if safety > maxInt(len(f.run.queue), 1)*2 {
				break
			}
			continue
		}

		activity := f.run.queue[f.run.cursor%len(f.run.queue)]
		f.run.cursor++

		endOfBlock := timeutil.AddHours(cursor, hoursToUse)
		entry := models.DayEntry{
			UserID:      f.run.userID,
			Date:        f.day,
			StartTime:   cursor,
			EndTime:     endOfBlock,
			Description: activity.Description,
			Hours:       hoursToUse,
			Color:       models.EntryColor(activity.Color),
		}
		if err := f.run.svc.entries.Create(ctx, &entry); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create filler entry")
		}

		f.entries = append(f.entries, entry)
		f.sorted = append(f.sorted, entry)
		sortByStart(f.sorted)
		f.run.created = append(f.run.created, entry)

		f.remaining -= hoursToUse
		shiftUsed += hoursToUse
		cursor = endOfBlock
	}
	return nil
}

// nextBlocker returns the earliest entry starting strictly after the cursor.
func (f *dayFill) nextBlocker(cursor string) *models.DayEntry {
	cur := timeutil.ClockMinutes(cursor)
	for i := range f.sorted {
		if timeutil.ClockMinutes(f.sorted[i].StartTime) > cur {
			return &f.sorted[i]
		}
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
