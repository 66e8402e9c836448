package services

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"tutorbook-backend/models"
	"tutorbook-backend/utils"
)

// adjustLessonPaid moves a lesson's paid amount by deltaCents and keeps
// isPaid in step. The result is clamped to [0, price].
func adjustLessonPaid(tx *gorm.DB, lessonID uuid.UUID, deltaCents int64) error {
	var lesson models.Lesson
	if err := tx.Unscoped().First(&lesson, "id = ?", lessonID).Error; err != nil {
		return notFoundOr(err, "lesson")
	}

	price := utils.ToCents(lesson.Price)
	paid := utils.ToCents(lesson.PaidAmount) + deltaCents
	if paid < 0 {
		paid = 0
	}
	if paid > price {
		paid = price
	}

	return errors.Wrap(tx.Unscoped().Model(&models.Lesson{}).Where("id = ?", lessonID).
		Updates(map[string]interface{}{
			"paid_amount": utils.FromCents(paid),
			"is_paid":     paid >= price,
		}).Error, "update lesson paid amount")
}

// applyPlan records the allocations of plan against payment and sets its credit.
func applyPlan(tx *gorm.DB, payment *models.Payment, plan AllocationPlan) error {
	for _, a := range plan.Allocations {
		alloc := models.PaymentAllocation{
			PaymentID: payment.ID,
			LessonID:  a.LessonID,
			Amount:    utils.FromCents(a.Cents),
		}
		if err := tx.Create(&alloc).Error; err != nil {
			return errors.Wrap(err, "create allocation")
		}
		if err := adjustLessonPaid(tx, a.LessonID, a.Cents); err != nil {
			return err
		}
		payment.Allocations = append(payment.Allocations, alloc)
	}

	payment.CreditAmount = utils.FromCents(plan.CreditCents)
	return errors.Wrap(tx.Model(&models.Payment{}).Where("id = ?", payment.ID).
		Update("credit_amount", payment.CreditAmount).Error, "update payment credit")
}

// releaseAllocations detaches every allocation on the given lessons and turns
// the money back into credit on the originating payments.
func releaseAllocations(tx *gorm.DB, lessonIDs []uuid.UUID) error {
	if len(lessonIDs) == 0 {
		return nil
	}

	var allocs []models.PaymentAllocation
	if err := tx.Where("lesson_id IN ?", lessonIDs).Find(&allocs).Error; err != nil {
		return errors.Wrap(err, "load allocations")
	}

	for _, a := range allocs {
		cents := utils.ToCents(a.Amount)
		if err := tx.Model(&models.Payment{}).Where("id = ?", a.PaymentID).
			Update("credit_amount", gorm.Expr("credit_amount + ?", utils.FromCents(cents))).Error; err != nil {
			return errors.Wrap(err, "restore payment credit")
		}
		if err := adjustLessonPaid(tx, a.LessonID, -cents); err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(&models.PaymentAllocation{}, "id = ?", a.ID).Error; err != nil {
			return errors.Wrap(err, "delete allocation")
		}
	}
	return nil
}

// consumePackageHours draws hours from a student's active package.
func consumePackageHours(tx *gorm.DB, packageID, studentID uuid.UUID, hours float64) error {
	var pkg models.Package
	if err := tx.First(&pkg, "id = ?", packageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validationf("package not found")
		}
		return errors.Wrap(err, "load package")
	}
	if pkg.StudentID != studentID {
		return validationf("package belongs to another student")
	}
	if pkg.Status != models.PackageActive {
		return validationf("package is %s", pkg.Status)
	}
	if utils.ToCents(hours) > utils.ToCents(pkg.RemainingHours()) {
		return validationf("package has %.2f hours remaining, %.2f required", pkg.RemainingHours(), hours)
	}

	pkg.UsedHours = utils.RoundMoney(pkg.UsedHours + hours)
	if utils.ToCents(pkg.RemainingHours()) <= 0 {
		pkg.Status = models.PackageExhausted
	}
	return errors.Wrap(tx.Model(&pkg).Updates(map[string]interface{}{
		"used_hours": pkg.UsedHours,
		"status":     pkg.Status,
	}).Error, "update package usage")
}

func restorePackageHours(tx *gorm.DB, packageID uuid.UUID, hours float64) error {
	var pkg models.Package
	if err := tx.Unscoped().First(&pkg, "id = ?", packageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return errors.Wrap(err, "load package")
	}

	used := utils.RoundMoney(pkg.UsedHours - hours)
	if used < 0 {
		used = 0
	}
	pkg.UsedHours = used
	if pkg.Status == models.PackageExhausted && utils.ToCents(pkg.RemainingHours()) > 0 {
		pkg.Status = models.PackageActive
	}
	return errors.Wrap(tx.Unscoped().Model(&pkg).Updates(map[string]interface{}{
		"used_hours": pkg.UsedHours,
		"status":     pkg.Status,
	}).Error, "restore package usage")
}
