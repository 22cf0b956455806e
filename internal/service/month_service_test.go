package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanoufn/bolsa-api/internal/models"
	"github.com/nanoufn/bolsa-api/pkg/config"
	appErrors "github.com/nanoufn/bolsa-api/pkg/errors"
	"github.com/nanoufn/bolsa-api/pkg/timeutil"
)

type fakeEntryStore struct {
	entries []models.DayEntry
	nextID  int
	failOn  string
}

func (s *fakeEntryStore) ListByRange(_ context.Context, userID string, start, end time.Time) ([]models.DayEntry, error) {
	var out []models.DayEntry
	for _, entry := range s.entries {
		if entry.UserID == userID && !entry.Date.Before(start) && entry.Date.Before(end) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *fakeEntryStore) Create(_ context.Context, entry *models.DayEntry) error {
	if s.failOn != "" && entry.Description == s.failOn {
		return fmt.Errorf("store unavailable")
	}
	s.nextID++
	entry.ID = fmt.Sprintf("entry-%d", s.nextID)
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *fakeEntryStore) UpdateTimes(_ context.Context, id, startTime, endTime string, hours float64, color models.EntryColor) error {
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].StartTime = startTime
			s.entries[i].EndTime = endTime
			s.entries[i].Hours = hours
			s.entries[i].Color = color
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *fakeEntryStore) forDay(day string) []models.DayEntry {
	var out []models.DayEntry
	for _, entry := range s.entries {
		if timeutil.DayKey(entry.Date) == day {
			out = append(out, entry)
		}
	}
	return out
}

type fakeSlotLister struct{ slots []models.WeeklySlot }

func (s *fakeSlotLister) ListByUser(context.Context, string) ([]models.WeeklySlot, error) {
	return s.slots, nil
}

type fakeActivityLister struct{ activities []models.DefaultActivity }

func (s *fakeActivityLister) ListByUser(context.Context, string) ([]models.DefaultActivity, error) {
	return s.activities, nil
}

type fakeProfileReader struct {
	weeklyHours float64
	missing     bool
}

func (s *fakeProfileReader) FindByUser(context.Context, string) (*models.Profile, error) {
	if s.missing {
		return nil, sql.ErrNoRows
	}
	return &models.Profile{ID: "p1", UserID: "u1", WeeklyWorkloadHours: s.weeklyHours}, nil
}

type fakeHolidayChecker struct{ holidays map[string]bool }

func (s *fakeHolidayChecker) IsHoliday(_ context.Context, _ string, day time.Time) (bool, error) {
	return s.holidays[timeutil.DayKey(day)], nil
}

type fakeLocker struct {
	busy     bool
	acquired []string
	released []string
}

func (l *fakeLocker) Acquire(_ context.Context, key string) (bool, error) {
	if l.busy {
		return false, nil
	}
	l.acquired = append(l.acquired, key)
	return true, nil
}

func (l *fakeLocker) Release(_ context.Context, key string) error {
	l.released = append(l.released, key)
	return nil
}

// holidaysExcept flags every working day of the month except the keepers,
// letting a test isolate specific days.
func holidaysExcept(year, month int, keep ...string) map[string]bool {
	keepSet := map[string]bool{}
	for _, day := range keep {
		keepSet[day] = true
	}
	out := map[string]bool{}
	for _, day := range timeutil.WorkingDays(year, month) {
		key := timeutil.DayKey(day)
		if !keepSet[key] {
			out[key] = true
		}
	}
	return out
}

type monthFixture struct {
	store      *fakeEntryStore
	slots      *fakeSlotLister
	activities *fakeActivityLister
	profile    *fakeProfileReader
	holidays   *fakeHolidayChecker
	locker     *fakeLocker
}

func newMonthFixture() *monthFixture {
	return &monthFixture{
		store:      &fakeEntryStore{},
		slots:      &fakeSlotLister{},
		activities: &fakeActivityLister{},
		profile:    &fakeProfileReader{weeklyHours: 20},
		holidays:   &fakeHolidayChecker{holidays: map[string]bool{}},
		locker:     &fakeLocker{},
	}
}

func (f *monthFixture) service() *MonthService {
	return NewMonthService(f.store, f.slots, f.activities, f.profile, f.holidays, f.locker, nil, nil, nil, config.SchedulerConfig{
		MorningStartTime:   "08:00",
		AfternoonStartTime: "14:00",
		MorningMaxHours:    4,
		WorkingDaysPerWeek: 5,
	})
}

func TestFillBlanksRequiresWeeklyQuota(t *testing.T) {
	f := newMonthFixture()
	f.profile.missing = true

	_, err := f.service().FillBlanks(context.Background(), "u1", 2024, 6)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "weekly workload")
	assert.Empty(t, f.store.entries)
}

func TestFillBlanksNothingConfigured(t *testing.T) {
	f := newMonthFixture()

	result, err := f.service().FillBlanks(context.Background(), "u1", 2024, 6)
	require.NoError(t, err)
	assert.Zero(t, result.CreatedCount)
	assert.Empty(t, result.CreatedDates)
	assert.Contains(t, result.Message, "nothing to fill")
	assert.Equal(t, 20.0, result.WeeklyTargetHours)
}

func TestFillBlanksInvalidMonth(t *testing.T) {
	f := newMonthFixture()

	_, err := f.service().FillBlanks(context.Background(), "u1", 2024, 13)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFillBlanksRejectedWhileRunInProgress(t *testing.T) {
	f := newMonthFixture()
	f.locker.busy = true
	f.activities.activities = []models.DefaultActivity{{ID: "a1", Description: "Pesquisa", Color: "verde"}}

	_, err := f.service().FillBlanks(context.Background(), "u1", 2024, 6)
	require.ErrorIs(t, err, appErrors.ErrFillInProgress)
	assert.Empty(t, f.store.entries)
}

// A Tuesday with a 2h recurring class gets its remaining 2h of filler in
// the afternoon shift: the class already counts against the morning cap.
func TestFillBlanksSlotThenAfternoonFiller(t *testing.T) {
	const tuesday = "2024-06-04"
	f := newMonthFixture()
	f.holidays.holidays = holidaysExcept(2024, 6, tuesday)
	f.slots.slots = []models.WeeklySlot{{ID: "s1", Weekday: 2, StartTime: "08:00", EndTime: "10:00", Description: "Aula"}}
	f.activities.activities = []models.DefaultActivity{{ID: "a1", Description: "Pesquisa", Color: "verde"}}

	result, err := f.service().FillBlanks(context.Background(), "u1", 2024, 6)
	require.NoError(t, err)
	assert.Equal(t, 2, result.CreatedCount)
	assert.Equal(t, []string{tuesday, tuesday}, result.CreatedDates)
	assert.Equal(t, "08:00", result.MorningStartTime)

	entries := f.store.forDay(tuesday)
	require.Len(t, entries, 2)
	assert.Equal(t, "Aula", entries[0].Description)
	assert.Equal(t, models.ColorRecurring, entries[0].Color)
	assert.Equal(t, 2.0, entries[0].Hours)

	assert.Equal(t, "Pesquisa", entries[1].Description)
	assert.Equal(t, "14:00", entries[1].StartTime)
	assert.Equal(t, "16:00", entries[1].EndTime)
	assert.Equal(t, 2.0, entries[1].Hours)
	assert.Equal(t, models.EntryColor("verde"), entries[1].Color)

	assert.InDelta(t, 4.0, sumHours(entries), 1e-9)
}

// A day already at target is skipped entirely by the gap filler.
func TestFillBlanksSkipsDayAtTarget(t *testing.T) {
	const wednesday = "2024-06-05"
	f := newMonthFixture()
	f.holidays.holidays = holidaysExcept(2024, 6, wednesday)
	f.activities.activities = []models.DefaultActivity{{ID: "a1", Description: "Pesquisa", Color: "verde"}}
	f.store.entries = []models.DayEntry{{
		ID: "manual-1", UserID: "u1", Date: timeutil.Date(2024, 6, 5),
		StartTime: "14:00", EndTime: "18:00", Description: "Monitoria", Hours: 4, Color: models.ColorManual,
	}}

	result, err := f.service().FillBlanks(context.Background(), "u1", 2024, 6)
	require.NoError(t, err)
	assert.Zero(t, result.CreatedCount)
	assert.Len(t, f.store.entries, 1)
}

// An empty day with a 4h target is satisfied entirely by the morning shift.
func TestFillBlanksEmptyDayStaysInMorning(t *testing.T) {
	const monday = "2024-06-03"
	f := newMonthFixture()
	f.holidays.holidays = holidaysExcept(2024, 6, monday)
	f.activities.activities = []models.DefaultActivity{
		{ID: "a1", Description: "Leitura", Color: "verde"},
		{ID: "a2", Description: "Pesquisa", Color: "verde"},
	}

	_, err := f.service().FillBlanks(context.Background(), "u1", 2024, 6)
	require.NoError(t, err)

	entries := f.store.forDay(monday)
	require.NotEmpty(t, entries)
	for _, entry := range entries {
		assert.GreaterOrEqual(t, timeutil.ClockMinutes(entry.StartTime), timeutil.ClockMinutes("08:00"))
		assert.LessOrEqual(t, timeutil.ClockMinutes(entry.EndTime), timeutil.ClockMinutes("12:00"))
	}
	assert.InDelta(t, 4.0, sumHours(entries), 1e-9)
	assert.Equal(t, "Leitura", entries[0].Description)
}

func TestFillBlanksHolidayReceivesNothing(t *testing.T) {
	const holiday = "2024-06-10"
	f := newMonthFixture()
	f.holidays.holidays = map[string]bool{holiday: true}
	f.slots.slots = []models.WeeklySlot{{ID: "s1", Weekday: 1, StartTime: "08:00", EndTime: "10:00", Description: "Aula"}}
	f.activities.activities = []models.DefaultActivity{{ID: "a1", Description: "Pesquisa", Color: "verde"}}

	_, err := f.service().FillBlanks(context.Background(), "u1", 2024, 6)
	require.NoError(t, err)
	assert.Empty(t, f.store.forDay(holiday))
}

// Running the fill twice must reconcile the recurring entry, never duplicate it.
func TestFillBlanksRecurringPassIdempotent(t *testing.T) {
	const tuesday = "2024-06-04"
	f := newMonthFixture()
	f.holidays.holidays = holidaysExcept(2024, 6, tuesday)
	f.slots.slots = []models.WeeklySlot{{ID: "s1", Weekday: 2, StartTime: "08:00", EndTime: "10:00", Description: "Aula"}}

	svc := f.service()
	first, err := svc.FillBlanks(context.Background(), "u1", 2024, 6)
	require.NoError(t, err)
	assert.Equal(t, 1, first.CreatedCount)

	second, err := svc.FillBlanks(context.Background(), "u1", 2024, 6)
	require.NoError(t, err)
	assert.Zero(t, second.CreatedCount)
	assert.Len(t, f.store.forDay(tuesday), 1)
}

// The slot's validity window bounds which weeks it materialises on.
func TestFillBlanksHonoursSlotValidityWindow(t *testing.T) {
	f := newMonthFixture()
	windowEnd := timeutil.Date(2024, 6, 10)
	f.slots.slots = []models.WeeklySlot{{
		ID: "s1", Weekday: 2, StartTime: "08:00", EndTime: "10:00", Description: "Aula",
		EndDate: &windowEnd,
	}}

	_, err := f.service().FillBlanks(context.Background(), "u1", 2024, 6)
	require.NoError(t, err)
	assert.Len(t, f.store.forDay("2024-06-04"), 1)
	assert.Empty(t, f.store.forDay("2024-06-11"))
	assert.Empty(t, f.store.forDay("2024-06-18"))
}

// Fillers placed around manual entries must never overlap them or each other,
// and the day must still reach its target.
func TestFillBlanksAvoidsOverlaps(t *testing.T) {
	const monday = "2024-06-03"
	f := newMonthFixture()
	f.profile.weeklyHours = 40
	f.holidays.holidays = holidaysExcept(2024, 6, monday)
	f.activities.activities = []models.DefaultActivity{{ID: "a1", Description: "Pesquisa", Color: "verde"}}
	f.store.entries = []models.DayEntry{
		{ID: "m1", UserID: "u1", Date: timeutil.Date(2024, 6, 3), StartTime: "09:00", EndTime: "10:00", Description: "Reunião", Hours: 1, Color: models.ColorManual},
		{ID: "m2", UserID: "u1", Date: timeutil.Date(2024, 6, 3), StartTime: "15:00", EndTime: "16:00", Description: "Reunião", Hours: 1, Color: models.ColorManual},
	}

	_, err := f.service().FillBlanks(context.Background(), "u1", 2024, 6)
	require.NoError(t, err)

	entries := f.store.forDay(monday)
	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			overlap := timeutil.ClockMinutes(a.StartTime) < timeutil.ClockMinutes(b.EndTime) &&
				timeutil.ClockMinutes(b.StartTime) < timeutil.ClockMinutes(a.EndTime)
			assert.Falsef(t, overlap, "%s-%s overlaps %s-%s", a.StartTime, a.EndTime, b.StartTime, b.EndTime)
		}
	}
	assert.InDelta(t, 8.0, sumHours(entries), 1.0/60)
}

// With two equal activities the rotation spreads draws evenly across the run.
func TestFillBlanksRoundRobinFairness(t *testing.T) {
	f := newMonthFixture()
	// Drop two days so the number of draws is a multiple of the queue length.
	f.holidays.holidays = map[string]bool{"2024-06-27": true, "2024-06-28": true}
	f.activities.activities = []models.DefaultActivity{
		{ID: "a1", Description: "Leitura", Color: "verde"},
		{ID: "a2", Description: "Pesquisa", Color: "verde"},
	}

	result, err := f.service().FillBlanks(context.Background(), "u1", 2024, 6)
	require.NoError(t, err)
	assert.Equal(t, 18, result.CreatedCount)

	counts := map[string]int{}
	for _, entry := range f.store.entries {
		counts[entry.Description]++
	}
	assert.Equal(t, counts["Leitura"], counts["Pesquisa"])
}

// A store failure aborts the run and surfaces the error; earlier days stay
// committed.
func TestFillBlanksStoreFailureAborts(t *testing.T) {
	f := newMonthFixture()
	f.activities.activities = []models.DefaultActivity{{ID: "a1", Description: "Pesquisa", Color: "verde"}}
	f.store.failOn = "Pesquisa"
	f.slots.slots = []models.WeeklySlot{{ID: "s1", Weekday: 1, StartTime: "08:00", EndTime: "10:00", Description: "Aula"}}

	_, err := f.service().FillBlanks(context.Background(), "u1", 2024, 6)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	// The Monday slot entries created before the failure remain.
	assert.NotEmpty(t, f.store.entries)
}

func TestFillBlanksReleasesLock(t *testing.T) {
	f := newMonthFixture()
	f.activities.activities = []models.DefaultActivity{{ID: "a1", Description: "Pesquisa", Color: "verde"}}

	_, err := f.service().FillBlanks(context.Background(), "u1", 2024, 6)
	require.NoError(t, err)
	require.Len(t, f.locker.acquired, 1)
	assert.Equal(t, f.locker.acquired, f.locker.released)
}

func TestBuildPriorityQueueOrdering(t *testing.T) {
	queue := buildPriorityQueue([]models.DefaultActivity{
		{ID: "a2", Description: "Pesquisa"},
		{ID: "a1", Description: "Leitura"},
	})
	require.Len(t, queue, 6)
	for i, want := range []string{"Leitura", "Leitura", "Leitura", "Pesquisa", "Pesquisa", "Pesquisa"} {
		assert.Equal(t, want, queue[i].Description)
	}
}

func TestBumpPastOverlap(t *testing.T) {
	entries := []models.DayEntry{
		{StartTime: "08:00", EndTime: "10:00"},
		{StartTime: "10:00", EndTime: "11:00"},
	}
	assert.Equal(t, "11:00", bumpPastOverlap("08:00", entries))
	assert.Equal(t, "11:00", bumpPastOverlap("09:30", entries))
	assert.Equal(t, "12:00", bumpPastOverlap("12:00", entries))
}
