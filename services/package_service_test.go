package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tutorbook-backend/models"
)

func loadPackage(t *testing.T, svc *PackageService, pkg *models.Package) models.Package {
	t.Helper()
	got, err := svc.Get(pkg.ID)
	require.NoError(t, err)
	return *got
}

func TestPackageServiceConsumption(t *testing.T) {
	db := setupDB(t)
	packages := NewPackageService(db, zap.NewNop())
	lessons := NewLessonService(db, zap.NewNop())
	student := createStudent(t, db, "Sam", 40, nil)

	pkg, err := packages.Create(PackageInput{StudentID: student.ID, TotalHours: 3})
	require.NoError(t, err)
	assert.Equal(t, 400.0, pkg.Price)
	assert.Equal(t, models.PackageActive, pkg.Status)

	created, err := lessons.Create(LessonInput{
		StudentID: student.ID,
		DateTime:  date(2024, time.June, 3, 17),
		Duration:  90,
		PackageID: &pkg.ID,
	})
	require.NoError(t, err)
	assert.True(t, created[0].IsPaid)
	assert.Equal(t, 1.5, loadPackage(t, packages, pkg).UsedHours)

	t.Run("insufficient hours", func(t *testing.T) {
		_, err := lessons.Create(LessonInput{
			StudentID: student.ID,
			DateTime:  date(2024, time.June, 10, 17),
			Duration:  120,
			PackageID: &pkg.ID,
		})
		require.Error(t, err)
		assert.True(t, IsValidation(err))
		assert.Equal(t, 1.5, loadPackage(t, packages, pkg).UsedHours)
	})

	t.Run("package of another student", func(t *testing.T) {
		other := createStudent(t, db, "Tia", 40, nil)
		_, err := lessons.Create(LessonInput{
			StudentID: other.ID,
			DateTime:  date(2024, time.June, 10, 17),
			Duration:  30,
			PackageID: &pkg.ID,
		})
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	second, err := lessons.Create(LessonInput{
		StudentID: student.ID,
		DateTime:  date(2024, time.June, 10, 17),
		Duration:  90,
		PackageID: &pkg.ID,
	})
	require.NoError(t, err)
	got := loadPackage(t, packages, pkg)
	assert.Equal(t, 3.0, got.UsedHours)
	assert.Equal(t, models.PackageExhausted, got.Status)

	_, err = lessons.Update(second[0].ID, LessonPatch{Status: ptr(models.LessonCancelled)}, ScopeSingle)
	require.NoError(t, err)
	got = loadPackage(t, packages, pkg)
	assert.Equal(t, 1.5, got.UsedHours)
	assert.Equal(t, models.PackageActive, got.Status)

	_, err = lessons.Delete(created[0].ID, ScopeSingle)
	require.NoError(t, err)
	assert.Equal(t, 0.0, loadPackage(t, packages, pkg).UsedHours)
}

func TestPackageServiceRecurringSeriesConsumesEveryOccurrence(t *testing.T) {
	db := setupDB(t)
	packages := NewPackageService(db, zap.NewNop())
	lessons := NewLessonService(db, zap.NewNop())
	student := createStudent(t, db, "Uma", 40, nil)

	pkg, err := packages.Create(PackageInput{StudentID: student.ID, TotalHours: 3})
	require.NoError(t, err)

	_, err = lessons.Create(LessonInput{
		StudentID:          student.ID,
		DateTime:           date(2024, time.January, 1, 10),
		Duration:           60,
		PackageID:          &pkg.ID,
		IsRecurring:        true,
		RecurringFrequency: "weekly",
		RecurringEndDate:   ptr(date(2024, time.January, 22, 0)),
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	created, err := lessons.Create(LessonInput{
		StudentID:          student.ID,
		DateTime:           date(2024, time.January, 1, 10),
		Duration:           60,
		PackageID:          &pkg.ID,
		IsRecurring:        true,
		RecurringFrequency: "weekly",
		RecurringEndDate:   ptr(date(2024, time.January, 15, 0)),
	})
	require.NoError(t, err)
	assert.Len(t, created, 3)
	assert.Equal(t, models.PackageExhausted, loadPackage(t, packages, pkg).Status)
}

func TestPackageServiceUpdateAndDelete(t *testing.T) {
	db := setupDB(t)
	packages := NewPackageService(db, zap.NewNop())
	lessons := NewLessonService(db, zap.NewNop())
	student := createStudent(t, db, "Vic", 40, nil)

	pkg, err := packages.Create(PackageInput{StudentID: student.ID, TotalHours: 5, Price: ptr(180.0)})
	require.NoError(t, err)
	_, err = lessons.Create(LessonInput{StudentID: student.ID, DateTime: date(2024, time.June, 3, 17), Duration: 120, PackageID: &pkg.ID})
	require.NoError(t, err)

	_, err = packages.Update(pkg.ID, PackagePatch{TotalHours: ptr(1.0)})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	updated, err := packages.Update(pkg.ID, PackagePatch{TotalHours: ptr(2.0), Name: ptr("Summer block")})
	require.NoError(t, err)
	assert.Equal(t, models.PackageExhausted, updated.Status)
	assert.Equal(t, "Summer block", updated.Name)

	err = packages.Delete(pkg.ID)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	empty, err := packages.Create(PackageInput{StudentID: student.ID, TotalHours: 5})
	require.NoError(t, err)
	require.NoError(t, packages.Delete(empty.ID))
	_, err = packages.Get(empty.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPackageServiceExpirePackages(t *testing.T) {
	db := setupDB(t)
	packages := NewPackageService(db, zap.NewNop())
	student := createStudent(t, db, "Wes", 40, nil)
	now := date(2024, time.July, 1, 0)

	stale, err := packages.Create(PackageInput{
		StudentID:    student.ID,
		TotalHours:   5,
		PurchaseDate: date(2024, time.January, 1, 0),
		ExpiryDate:   ptr(date(2024, time.June, 30, 0)),
	})
	require.NoError(t, err)
	fresh, err := packages.Create(PackageInput{
		StudentID:    student.ID,
		TotalHours:   5,
		PurchaseDate: date(2024, time.January, 1, 0),
		ExpiryDate:   ptr(date(2024, time.December, 31, 0)),
	})
	require.NoError(t, err)

	count, err := packages.ExpirePackages(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, models.PackageExpired, loadPackage(t, packages, stale).Status)
	assert.Equal(t, models.PackageActive, loadPackage(t, packages, fresh).Status)

	_, err = packages.Create(PackageInput{
		StudentID:    student.ID,
		TotalHours:   5,
		PurchaseDate: date(2024, time.January, 1, 0),
		ExpiryDate:   ptr(date(2023, time.December, 31, 0)),
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}
