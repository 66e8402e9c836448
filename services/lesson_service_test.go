package services

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tutorbook-backend/models"
)

func createWeeklySeries(t *testing.T, svc *LessonService, student models.Student) []models.Lesson {
	t.Helper()
	lessons, err := svc.Create(LessonInput{
		StudentID:          student.ID,
		DateTime:           date(2024, time.January, 1, 10),
		Duration:           60,
		IsRecurring:        true,
		RecurringFrequency: "weekly",
		RecurringEndDate:   ptr(date(2024, time.January, 22, 0)),
	})
	require.NoError(t, err)
	require.Len(t, lessons, 4)
	return lessons
}

func TestLessonServiceCreate(t *testing.T) {
	db := setupDB(t)
	svc := NewLessonService(db, zap.NewNop())
	student := createStudent(t, db, "Ana", 45, nil)

	t.Run("price defaults to the student's rate", func(t *testing.T) {
		lessons, err := svc.Create(LessonInput{StudentID: student.ID, DateTime: date(2024, time.March, 4, 16), Duration: 90})
		require.NoError(t, err)
		require.Len(t, lessons, 1)
		assert.Equal(t, 45.0, lessons[0].Price)
		assert.Equal(t, models.LessonScheduled, lessons[0].Status)
		assert.False(t, lessons[0].IsPaid)
		assert.Nil(t, lessons[0].RecurringGroupID)
	})

	t.Run("recurring series shares one group", func(t *testing.T) {
		lessons := createWeeklySeries(t, svc, student)
		series, err := svc.Series(*lessons[0].RecurringGroupID)
		require.NoError(t, err)
		require.Len(t, series, 4)
		assert.Equal(t, date(2024, time.January, 22, 10), series[3].DateTime.UTC())
	})

	t.Run("recurring without end date", func(t *testing.T) {
		_, err := svc.Create(LessonInput{
			StudentID:          student.ID,
			DateTime:           date(2024, time.January, 1, 10),
			Duration:           60,
			IsRecurring:        true,
			RecurringFrequency: "weekly",
		})
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("invalid duration", func(t *testing.T) {
		_, err := svc.Create(LessonInput{StudentID: student.ID, DateTime: date(2024, time.January, 1, 10)})
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})
}

func TestLessonServiceSingleEditLeavesSiblings(t *testing.T) {
	db := setupDB(t)
	svc := NewLessonService(db, zap.NewNop())
	student := createStudent(t, db, "Ben", 30, nil)
	lessons := createWeeklySeries(t, svc, student)

	updated, err := svc.Update(lessons[1].ID, LessonPatch{Price: ptr(50.0), Notes: ptr("moved room")}, ScopeSingle)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, 50.0, updated[0].Price)

	for i, l := range lessons {
		got := reloadLesson(t, db, l.ID)
		if i == 1 {
			assert.Equal(t, 50.0, got.Price)
			assert.Equal(t, "moved room", got.Notes)
			continue
		}
		assert.Equal(t, 30.0, got.Price)
		assert.Empty(t, got.Notes)
	}
}

func TestLessonServiceFutureEditShiftsLaterLessons(t *testing.T) {
	db := setupDB(t)
	svc := NewLessonService(db, zap.NewNop())
	student := createStudent(t, db, "Cleo", 30, nil)
	lessons := createWeeklySeries(t, svc, student)

	// move from 10:00 to 11:30 from the third lesson on
	newTime := lessons[2].DateTime.Add(90 * time.Minute)
	updated, err := svc.Update(lessons[2].ID, LessonPatch{DateTime: &newTime, Duration: ptr(45)}, ScopeFuture)
	require.NoError(t, err)
	require.Len(t, updated, 2)

	for i, l := range lessons {
		got := reloadLesson(t, db, l.ID)
		if i < 2 {
			assert.Equal(t, l.DateTime.UTC(), got.DateTime.UTC())
			assert.Equal(t, 60, got.Duration)
			continue
		}
		assert.Equal(t, l.DateTime.Add(90*time.Minute).UTC(), got.DateTime.UTC())
		assert.Equal(t, 45, got.Duration)
	}
}

func TestLessonServiceFutureEditKeepsLocalTimeAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	previous := time.Local
	time.Local = ny
	t.Cleanup(func() { time.Local = previous })

	db := setupDB(t)
	svc := NewLessonService(db, zap.NewNop())
	student := createStudent(t, db, "Dara", 30, nil)
	lessons, err := svc.Create(LessonInput{
		StudentID:          student.ID,
		DateTime:           time.Date(2024, time.February, 26, 10, 0, 0, 0, ny),
		Duration:           60,
		IsRecurring:        true,
		RecurringFrequency: "weekly",
		RecurringEndDate:   ptr(time.Date(2024, time.March, 25, 0, 0, 0, 0, ny)),
	})
	require.NoError(t, err)
	require.Len(t, lessons, 5)

	// push the series back a week from Mar 4, across the Mar 10 clock change
	newTime := time.Date(2024, time.March, 11, 10, 0, 0, 0, ny)
	updated, err := svc.Update(lessons[1].ID, LessonPatch{DateTime: &newTime}, ScopeFuture)
	require.NoError(t, err)
	require.Len(t, updated, 4)

	want := []time.Time{
		time.Date(2024, time.February, 26, 10, 0, 0, 0, ny),
		time.Date(2024, time.March, 11, 10, 0, 0, 0, ny),
		time.Date(2024, time.March, 18, 10, 0, 0, 0, ny),
		time.Date(2024, time.March, 25, 10, 0, 0, 0, ny),
		time.Date(2024, time.April, 1, 10, 0, 0, 0, ny),
	}
	for i, l := range lessons {
		got := reloadLesson(t, db, l.ID).DateTime
		assert.True(t, got.Equal(want[i]), "lesson %d at %s, want %s", i, got.In(ny), want[i])
	}
}

func TestLessonServiceFutureScopeNeedsSeries(t *testing.T) {
	db := setupDB(t)
	svc := NewLessonService(db, zap.NewNop())
	student := createStudent(t, db, "Dev", 30, nil)
	lesson := createLesson(t, db, student.ID, date(2024, time.May, 1, 10), 30)

	_, err := svc.Update(lesson.ID, LessonPatch{Notes: ptr("x")}, ScopeFuture)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = svc.Delete(lesson.ID, ScopeFuture)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestLessonServiceFutureDeleteKeepsEarlierLessons(t *testing.T) {
	db := setupDB(t)
	svc := NewLessonService(db, zap.NewNop())
	student := createStudent(t, db, "Eli", 30, nil)
	lessons := createWeeklySeries(t, svc, student)

	removed, err := svc.Delete(lessons[1].ID, ScopeFuture)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	series, err := svc.Series(*lessons[0].RecurringGroupID)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, lessons[0].ID, series[0].ID)
}

func TestLessonServiceCancelReleasesPayment(t *testing.T) {
	db := setupDB(t)
	svc := NewLessonService(db, zap.NewNop())
	payments := NewPaymentService(db, zap.NewNop())
	student := createStudent(t, db, "Fay", 30, nil)
	lesson := createLesson(t, db, student.ID, date(2024, time.May, 1, 10), 30)

	payment, err := payments.Create(PaymentInput{StudentID: &student.ID, LessonIDs: []uuid.UUID{lesson.ID}, Amount: 30})
	require.NoError(t, err)
	assert.True(t, reloadLesson(t, db, lesson.ID).IsPaid)

	_, err = svc.Update(lesson.ID, LessonPatch{Status: ptr(models.LessonCancelled)}, ScopeSingle)
	require.NoError(t, err)

	got := reloadLesson(t, db, lesson.ID)
	assert.False(t, got.IsPaid)
	assert.Zero(t, got.PaidAmount)

	p := reloadPayment(t, db, payment.ID)
	assert.Equal(t, 30.0, p.CreditAmount)
	assert.Empty(t, p.Allocations)
}

func TestLessonServicePriceBelowPaidRejected(t *testing.T) {
	db := setupDB(t)
	svc := NewLessonService(db, zap.NewNop())
	payments := NewPaymentService(db, zap.NewNop())
	student := createStudent(t, db, "Gus", 30, nil)
	lesson := createLesson(t, db, student.ID, date(2024, time.May, 1, 10), 30)

	_, err := payments.Create(PaymentInput{StudentID: &student.ID, LessonIDs: []uuid.UUID{lesson.ID}, Amount: 20})
	require.NoError(t, err)

	_, err = svc.Update(lesson.ID, LessonPatch{Price: ptr(10.0)}, ScopeSingle)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	updated, err := svc.Update(lesson.ID, LessonPatch{Price: ptr(20.0)}, ScopeSingle)
	require.NoError(t, err)
	assert.True(t, updated[0].IsPaid)
}

func TestLessonServiceList(t *testing.T) {
	db := setupDB(t)
	svc := NewLessonService(db, zap.NewNop())
	family := uuid.New()
	a := createStudent(t, db, "Hal", 30, &family)
	b := createStudent(t, db, "Ivy", 30, &family)
	c := createStudent(t, db, "Jo", 30, nil)
	createLesson(t, db, a.ID, date(2024, time.May, 1, 10), 30)
	createLesson(t, db, b.ID, date(2024, time.May, 2, 10), 30)
	createLesson(t, db, c.ID, date(2024, time.May, 3, 10), 30)

	byFamily, err := svc.List(LessonFilter{FamilyID: &family})
	require.NoError(t, err)
	assert.Len(t, byFamily, 2)

	byStudent, err := svc.List(LessonFilter{StudentID: &c.ID})
	require.NoError(t, err)
	require.Len(t, byStudent, 1)
	require.NotNil(t, byStudent[0].Student)
	assert.Equal(t, "Jo", byStudent[0].Student.FirstName)

	ranged, err := svc.List(LessonFilter{From: ptr(date(2024, time.May, 2, 0)), To: ptr(date(2024, time.May, 2, 23))})
	require.NoError(t, err)
	assert.Len(t, ranged, 1)
}
