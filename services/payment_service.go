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

type PaymentService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewPaymentService(db *gorm.DB, logger *zap.Logger) *PaymentService {
	return &PaymentService{db: db, logger: logger}
}

type PaymentInput struct {
	StudentID *uuid.UUID
	PackageID *uuid.UUID
	LessonIDs []uuid.UUID
	Amount    float64
	Date      time.Time
	Method    string
	Notes     string
}

type FamilyPaymentInput struct {
	FamilyID  uuid.UUID
	StudentID *uuid.UUID
	Amount    float64
	Date      time.Time
	Method    string
	Notes     string
}

type PaymentPatch struct {
	Amount *float64
	Date   *time.Time
	Method *string
	Notes  *string
}

type PaymentFilter struct {
	StudentID *uuid.UUID
	FamilyID  *uuid.UUID
	From      *time.Time
	To        *time.Time
}

// Create records a payment. A package payment must match the package price;
// a payment naming lessons is spread over them oldest first; anything not
// applied stays on the payment as credit.
func (s *PaymentService) Create(in PaymentInput) (*models.Payment, error) {
	amount := utils.ToCents(in.Amount)
	if amount <= 0 {
		return nil, validationf("amount must be positive")
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	payment := models.Payment{
		StudentID: in.StudentID,
		PackageID: in.PackageID,
		Amount:    utils.FromCents(amount),
		Date:      in.Date,
		Method:    in.Method,
		Notes:     in.Notes,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if in.StudentID != nil {
			var student models.Student
			if err := tx.First(&student, "id = ?", *in.StudentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return validationf("student not found")
				}
				return errors.Wrap(err, "load student")
			}
			payment.FamilyID = student.FamilyID
		}

		if in.PackageID != nil {
			if err := s.payPackage(tx, &payment, amount); err != nil {
				return err
			}
			return errors.Wrap(tx.Create(&payment).Error, "create payment")
		}

		payment.CreditAmount = payment.Amount
		if err := tx.Create(&payment).Error; err != nil {
			return errors.Wrap(err, "create payment")
		}
		if len(in.LessonIDs) == 0 {
			return nil
		}

		var lessons []models.Lesson
		if err := tx.Where("id IN ?", in.LessonIDs).Find(&lessons).Error; err != nil {
			return errors.Wrap(err, "load lessons")
		}
		if len(lessons) != len(uniqueIDs(in.LessonIDs)) {
			return validationf("one or more lessons not found")
		}
		for _, l := range lessons {
			if err := checkLessonPayer(tx, &payment, l); err != nil {
				return err
			}
			if l.Status == models.LessonCancelled {
				return validationf("lesson %s is cancelled", l.ID)
			}
		}
		return applyPlan(tx, &payment, PlanAllocation(amount, lessons))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment recorded",
		zap.String("payment_id", payment.ID.String()),
		zap.Float64("amount", payment.Amount),
		zap.Float64("credit", payment.CreditAmount))
	return &payment, nil
}

func (s *PaymentService) payPackage(tx *gorm.DB, payment *models.Payment, amount int64) error {
	var pkg models.Package
	if err := tx.First(&pkg, "id = ?", *payment.PackageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validationf("package not found")
		}
		return errors.Wrap(err, "load package")
	}
	if payment.StudentID != nil && pkg.StudentID != *payment.StudentID {
		return validationf("package belongs to another student")
	}
	if pkg.IsPaid {
		return validationf("package is already paid")
	}
	if amount != utils.ToCents(pkg.Price) {
		return validationf("payment amount %.2f does not match package price %.2f", utils.FromCents(amount), pkg.Price)
	}

	studentID := pkg.StudentID
	payment.StudentID = &studentID
	payment.CreditAmount = 0
	return errors.Wrap(tx.Model(&pkg).Update("is_paid", true).Error, "mark package paid")
}

// CreateFamilyPayment spreads one payment over the unpaid lessons of every
// student in the family, oldest lesson first. The remainder is family credit.
func (s *PaymentService) CreateFamilyPayment(in FamilyPaymentInput) (*models.Payment, *AllocationPlan, error) {
	amount := utils.ToCents(in.Amount)
	if amount <= 0 {
		return nil, nil, validationf("amount must be positive")
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}

	familyID := in.FamilyID
	payment := models.Payment{
		StudentID:    in.StudentID,
		FamilyID:     &familyID,
		Amount:       utils.FromCents(amount),
		CreditAmount: utils.FromCents(amount),
		Date:         in.Date,
		Method:       in.Method,
		Notes:        in.Notes,
	}

	var plan AllocationPlan
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var memberIDs []uuid.UUID
		if err := tx.Model(&models.Student{}).Where("family_id = ?", familyID).Pluck("id", &memberIDs).Error; err != nil {
			return errors.Wrap(err, "load family")
		}
		if len(memberIDs) == 0 {
			return errors.Wrap(ErrNotFound, "family")
		}
		if in.StudentID != nil && !containsID(memberIDs, *in.StudentID) {
			return validationf("paying student is not a member of the family")
		}

		var unpaid []models.Lesson
		if err := tx.Where("student_id IN ? AND is_paid = ? AND status <> ? AND package_id IS NULL",
			memberIDs, false, models.LessonCancelled).
			Order("date_time ASC").Find(&unpaid).Error; err != nil {
			return errors.Wrap(err, "load unpaid lessons")
		}

		if err := tx.Create(&payment).Error; err != nil {
			return errors.Wrap(err, "create payment")
		}
		plan = PlanAllocation(amount, unpaid)
		return applyPlan(tx, &payment, plan)
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Family payment recorded",
		zap.String("family_id", familyID.String()),
		zap.Int("lessons", len(plan.Allocations)),
		zap.Float64("credit", payment.CreditAmount))
	return &payment, &plan, nil
}

// LinkLesson moves payment credit onto a lesson. A nil amount links as much
// as both the credit and the lesson's outstanding balance allow.
func (s *PaymentService) LinkLesson(paymentID, lessonID uuid.UUID, amount *float64) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, "id = ?", paymentID).Error; err != nil {
			return notFoundOr(err, "payment")
		}
		var lesson models.Lesson
		if err := tx.First(&lesson, "id = ?", lessonID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return validationf("lesson not found")
			}
			return errors.Wrap(err, "load lesson")
		}
		if lesson.Status == models.LessonCancelled {
			return validationf("lesson is cancelled")
		}
		if err := checkLessonPayer(tx, &payment, lesson); err != nil {
			return err
		}

		credit := utils.ToCents(payment.CreditAmount)
		want := credit
		if amount != nil {
			want = utils.ToCents(*amount)
			if want <= 0 {
				return validationf("amount must be positive")
			}
			if want > credit {
				return validationf("payment has only %.2f unallocated", payment.CreditAmount)
			}
		}
		applied := min(want, OutstandingCents(lesson))
		if applied == 0 {
			return validationf("nothing to link: lesson is paid or payment has no credit")
		}

		plan := AllocationPlan{
			Allocations: []Allocation{{LessonID: lesson.ID, Cents: applied}},
			CreditCents: credit - applied,
		}
		return applyPlan(tx, &payment, plan)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(paymentID)
}

func (s *PaymentService) Get(id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.Preload("Allocations").Preload("Student").First(&payment, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "payment")
	}
	return &payment, nil
}

func (s *PaymentService) List(f PaymentFilter) ([]models.Payment, error) {
	q := s.db.Preload("Allocations").Preload("Student").Order("date DESC")
	if f.StudentID != nil {
		q = q.Where("student_id = ?", *f.StudentID)
	}
	if f.FamilyID != nil {
		q = q.Where("family_id = ?", *f.FamilyID)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}

	var payments []models.Payment
	if err := q.Find(&payments).Error; err != nil {
		return nil, errors.Wrap(err, "list payments")
	}
	return payments, nil
}

// Update edits payment metadata. The amount may change as long as it still
// covers what has been allocated; the difference moves the credit.
func (s *PaymentService) Update(id uuid.UUID, patch PaymentPatch) (*models.Payment, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.First(&payment, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "payment")
		}

		if patch.Amount != nil {
			newAmount := utils.ToCents(*patch.Amount)
			if payment.PackageID != nil && newAmount != utils.ToCents(payment.Amount) {
				return validationf("package payment amount cannot change")
			}
			allocated := utils.ToCents(payment.Amount) - utils.ToCents(payment.CreditAmount)
			if newAmount < allocated {
				return validationf("amount cannot be lower than the %.2f already allocated", utils.FromCents(allocated))
			}
			payment.Amount = utils.FromCents(newAmount)
			if payment.PackageID == nil {
				payment.CreditAmount = utils.FromCents(newAmount - allocated)
			}
		}
		if patch.Date != nil {
			payment.Date = *patch.Date
		}
		if patch.Method != nil {
			payment.Method = *patch.Method
		}
		if patch.Notes != nil {
			payment.Notes = *patch.Notes
		}
		return errors.Wrap(tx.Save(&payment).Error, "save payment")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete removes a payment and reverses everything it paid for.
func (s *PaymentService) Delete(id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.Preload("Allocations").First(&payment, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "payment")
		}

		for _, a := range payment.Allocations {
			if err := adjustLessonPaid(tx, a.LessonID, -utils.ToCents(a.Amount)); err != nil {
				return err
			}
		}
		if err := tx.Unscoped().Where("payment_id = ?", payment.ID).Delete(&models.PaymentAllocation{}).Error; err != nil {
			return errors.Wrap(err, "delete allocations")
		}
		if payment.PackageID != nil {
			if err := tx.Model(&models.Package{}).Where("id = ?", *payment.PackageID).Update("is_paid", false).Error; err != nil {
				return errors.Wrap(err, "unmark package paid")
			}
		}
		return errors.Wrap(tx.Delete(&payment).Error, "delete payment")
	})
}

// checkLessonPayer rejects lessons that belong neither to the paying student
// nor to the payment's family.
func checkLessonPayer(tx *gorm.DB, payment *models.Payment, lesson models.Lesson) error {
	if payment.StudentID != nil && lesson.StudentID == *payment.StudentID {
		return nil
	}
	ok, err := sameFamily(tx, lesson.StudentID, payment.FamilyID)
	if err != nil {
		return err
	}
	if !ok {
		return validationf("lesson %s belongs to another student", lesson.ID)
	}
	return nil
}

func sameFamily(tx *gorm.DB, studentID uuid.UUID, familyID *uuid.UUID) (bool, error) {
	if familyID == nil {
		return false, nil
	}
	var count int64
	if err := tx.Model(&models.Student{}).Where("id = ? AND family_id = ?", studentID, *familyID).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "check family membership")
	}
	return count > 0, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
