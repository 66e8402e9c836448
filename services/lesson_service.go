package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutorbook-backend/models"
	"tutorbook-backend/utils"
)

type LessonService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewLessonService(db *gorm.DB, logger *zap.Logger) *LessonService {
	return &LessonService{db: db, logger: logger}
}

type LessonInput struct {
	StudentID          uuid.UUID
	DateTime           time.Time
	Duration           int
	Price              *float64
	Subject            string
	Notes              string
	Status             string
	IsRecurring        bool
	RecurringFrequency string
	RecurringEndDate   *time.Time
	PackageID          *uuid.UUID
}

// LessonPatch carries the fields of a partial update; nil means unchanged.
type LessonPatch struct {
	StudentID *uuid.UUID
	DateTime  *time.Time
	Duration  *int
	Price     *float64
	Subject   *string
	Notes     *string
	Status    *string
}

type LessonFilter struct {
	StudentID *uuid.UUID
	FamilyID  *uuid.UUID
	Status    string
	From      *time.Time
	To        *time.Time
	Unpaid    bool
}

// Create stores a lesson, or every occurrence of a recurring series, in one
// transaction.
func (s *LessonService) Create(in LessonInput) ([]models.Lesson, error) {
	if in.Duration <= 0 {
		return nil, validationf("duration must be positive")
	}
	if in.Status == "" {
		in.Status = models.LessonScheduled
	}

	var student models.Student
	if err := s.db.First(&student, "id = ?", in.StudentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("student not found")
		}
		return nil, errors.Wrap(err, "load student")
	}

	price := student.PricePerLesson
	if in.Price != nil {
		price = *in.Price
	}
	if price < 0 {
		return nil, validationf("price cannot be negative")
	}

	template := models.Lesson{
		StudentID: in.StudentID,
		DateTime:  in.DateTime,
		Duration:  in.Duration,
		Price:     utils.RoundMoney(price),
		Subject:   in.Subject,
		Notes:     in.Notes,
		Status:    in.Status,
		PackageID: in.PackageID,
	}
	if template.Subject == "" {
		template.Subject = student.Subject
	}

	lessons := []models.Lesson{template}
	if in.IsRecurring {
		freq, err := ParseFrequency(in.RecurringFrequency)
		if err != nil {
			return nil, err
		}
		if in.RecurringEndDate == nil {
			return nil, validationf("recurring lessons require an end date")
		}
		if lessons, err = ExpandLessons(template, freq, *in.RecurringEndDate); err != nil {
			return nil, err
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if in.PackageID != nil && in.Status != models.LessonCancelled {
			hours := template.Hours() * float64(len(lessons))
			if err := consumePackageHours(tx, *in.PackageID, in.StudentID, hours); err != nil {
				return err
			}
			for i := range lessons {
				lessons[i].PaidAmount = lessons[i].Price
				lessons[i].IsPaid = true
			}
		} else {
			for i := range lessons {
				lessons[i].IsPaid = utils.ToCents(lessons[i].Price) == 0
			}
		}
		return errors.Wrap(tx.Create(&lessons).Error, "create lessons")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Lessons created",
		zap.String("student_id", in.StudentID.String()),
		zap.Int("count", len(lessons)),
		zap.Bool("recurring", in.IsRecurring))
	return lessons, nil
}

func (s *LessonService) Get(id uuid.UUID) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := s.db.Preload("Student").First(&lesson, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "lesson")
	}
	return &lesson, nil
}

func (s *LessonService) List(f LessonFilter) ([]models.Lesson, error) {
	q := s.db.Preload("Student").Order("date_time ASC")
	if f.StudentID != nil {
		q = q.Where("student_id = ?", *f.StudentID)
	}
	if f.FamilyID != nil {
		q = q.Where("student_id IN (?)", s.db.Model(&models.Student{}).Select("id").Where("family_id = ?", *f.FamilyID))
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("date_time >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date_time <= ?", *f.To)
	}
	if f.Unpaid {
		q = q.Where("is_paid = ? AND status <> ?", false, models.LessonCancelled)
	}

	var lessons []models.Lesson
	if err := q.Find(&lessons).Error; err != nil {
		return nil, errors.Wrap(err, "list lessons")
	}
	return lessons, nil
}

// Series returns every lesson of a recurring group in date order.
func (s *LessonService) Series(groupID uuid.UUID) ([]models.Lesson, error) {
	var lessons []models.Lesson
	if err := s.db.Where("recurring_group_id = ?", groupID).Order("date_time ASC").Find(&lessons).Error; err != nil {
		return nil, errors.Wrap(err, "list series")
	}
	return lessons, nil
}

// Update applies patch to the lesson and, for ScopeFuture, to every later
// lesson of its series. A changed dateTime moves each affected lesson by the
// same number of days and the same change of local clock time.
func (s *LessonService) Update(id uuid.UUID, patch LessonPatch, scope Scope) ([]models.Lesson, error) {
	var updated []models.Lesson
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var target models.Lesson
		if err := tx.First(&target, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "lesson")
		}

		filter, err := ResolveScope(target.ID, &target, scope)
		if err != nil {
			return err
		}
		if filter.GroupID != nil && patch.StudentID != nil {
			return validationf("student can only be changed on a single lesson")
		}

		var shift utils.WallShift
		if patch.DateTime != nil {
			shift = utils.WallShiftBetween(target.DateTime, *patch.DateTime, time.Local)
		}

		var affected []models.Lesson
		if err := filter.apply(tx, "date_time").Find(&affected).Error; err != nil {
			return errors.Wrap(err, "load affected lessons")
		}

		for i := range affected {
			if err := s.applyPatch(tx, &affected[i], patch, shift); err != nil {
				return err
			}
		}
		updated = affected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *LessonService) applyPatch(tx *gorm.DB, lesson *models.Lesson, patch LessonPatch, shift utils.WallShift) error {
	oldStatus := lesson.Status
	oldHours := lesson.Hours()

	if patch.StudentID != nil && *patch.StudentID != lesson.StudentID {
		if lesson.PackageID != nil {
			return validationf("lessons drawn from a package cannot change student")
		}
		var count int64
		if err := tx.Model(&models.Student{}).Where("id = ?", *patch.StudentID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "check student")
		}
		if count == 0 {
			return validationf("student not found")
		}
		// payments belong to the old student's account
		if err := releaseAllocations(tx, []uuid.UUID{lesson.ID}); err != nil {
			return err
		}
		lesson.PaidAmount = 0
		lesson.StudentID = *patch.StudentID
	}
	if !shift.IsZero() {
		lesson.DateTime = shift.Apply(lesson.DateTime, time.Local)
	}
	if patch.Duration != nil {
		if *patch.Duration <= 0 {
			return validationf("duration must be positive")
		}
		lesson.Duration = *patch.Duration
	}
	if patch.Subject != nil {
		lesson.Subject = *patch.Subject
	}
	if patch.Notes != nil {
		lesson.Notes = *patch.Notes
	}
	if patch.Status != nil {
		lesson.Status = *patch.Status
	}

	if lesson.PackageID != nil {
		if err := s.rebalancePackage(tx, lesson, oldStatus, oldHours); err != nil {
			return err
		}
	} else if lesson.Status == models.LessonCancelled && oldStatus != models.LessonCancelled {
		if err := releaseAllocations(tx, []uuid.UUID{lesson.ID}); err != nil {
			return err
		}
		lesson.PaidAmount = 0
	}

	if patch.Price != nil {
		if *patch.Price < 0 {
			return validationf("price cannot be negative")
		}
		lesson.Price = utils.RoundMoney(*patch.Price)
	}

	if lesson.PackageID != nil {
		lesson.PaidAmount = lesson.Price
	} else {
		// reload: allocations may have moved since the lesson was read
		var current models.Lesson
		if err := tx.Select("paid_amount").First(&current, "id = ?", lesson.ID).Error; err != nil {
			return errors.Wrap(err, "reload lesson")
		}
		lesson.PaidAmount = current.PaidAmount
		if utils.ToCents(lesson.Price) < utils.ToCents(lesson.PaidAmount) {
			return validationf("price cannot be lower than the amount already paid (%.2f)", lesson.PaidAmount)
		}
	}
	lesson.IsPaid = utils.ToCents(lesson.PaidAmount) >= utils.ToCents(lesson.Price)

	return errors.Wrap(tx.Save(lesson).Error, "save lesson")
}

// rebalancePackage keeps package usage in line with a package lesson's
// duration and cancellation state.
func (s *LessonService) rebalancePackage(tx *gorm.DB, lesson *models.Lesson, oldStatus string, oldHours float64) error {
	wasCounted := oldStatus != models.LessonCancelled
	isCounted := lesson.Status != models.LessonCancelled

	switch {
	case wasCounted && !isCounted:
		return restorePackageHours(tx, *lesson.PackageID, oldHours)
	case !wasCounted && isCounted:
		return consumePackageHours(tx, *lesson.PackageID, lesson.StudentID, lesson.Hours())
	case wasCounted && isCounted:
		delta := lesson.Hours() - oldHours
		if delta > 0 {
			return consumePackageHours(tx, *lesson.PackageID, lesson.StudentID, delta)
		}
		if delta < 0 {
			return restorePackageHours(tx, *lesson.PackageID, -delta)
		}
	}
	return nil
}

// Delete removes the lesson, or it and every later lesson of its series.
// Payments applied to removed lessons become credit again.
func (s *LessonService) Delete(id uuid.UUID, scope Scope) (int, error) {
	var removed int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var target models.Lesson
		if err := tx.First(&target, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "lesson")
		}

		filter, err := ResolveScope(target.ID, &target, scope)
		if err != nil {
			return err
		}

		var affected []models.Lesson
		if err := filter.apply(tx, "date_time").Find(&affected).Error; err != nil {
			return errors.Wrap(err, "load affected lessons")
		}

		ids := make([]uuid.UUID, 0, len(affected))
		for _, l := range affected {
			ids = append(ids, l.ID)
			if l.PackageID != nil && l.Status != models.LessonCancelled {
				if err := restorePackageHours(tx, *l.PackageID, l.Hours()); err != nil {
					return err
				}
			}
		}
		if err := releaseAllocations(tx, ids); err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.Lesson{}).Error; err != nil {
			return errors.Wrap(err, "delete lessons")
		}
		removed = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Lessons deleted", zap.String("lesson_id", id.String()), zap.Int("count", removed))
	return removed, nil
}
