package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tutorbook-backend/config"
	"tutorbook-backend/models"
)

// setupDB opens a private in-memory database with the full schema.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func date(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

func createStudent(t *testing.T, db *gorm.DB, first string, pricePerLesson float64, familyID *uuid.UUID) models.Student {
	t.Helper()
	student := models.Student{
		FirstName:       first,
		LastName:        "Tester",
		PricePerLesson:  pricePerLesson,
		PricePerPackage: 400,
		FamilyID:        familyID,
		IsActive:        true,
	}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func createLesson(t *testing.T, db *gorm.DB, studentID uuid.UUID, at time.Time, price float64) models.Lesson {
	t.Helper()
	lessons, err := NewLessonService(db, zap.NewNop()).Create(LessonInput{
		StudentID: studentID,
		DateTime:  at,
		Duration:  60,
		Price:     &price,
	})
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	return lessons[0]
}

func reloadLesson(t *testing.T, db *gorm.DB, id uuid.UUID) models.Lesson {
	t.Helper()
	var lesson models.Lesson
	require.NoError(t, db.First(&lesson, "id = ?", id).Error)
	return lesson
}

func reloadPayment(t *testing.T, db *gorm.DB, id uuid.UUID) models.Payment {
	t.Helper()
	var payment models.Payment
	require.NoError(t, db.Preload("Allocations").First(&payment, "id = ?", id).Error)
	return payment
}
