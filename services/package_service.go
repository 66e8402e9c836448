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

type PackageService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewPackageService(db *gorm.DB, logger *zap.Logger) *PackageService {
	return &PackageService{db: db, logger: logger}
}

type PackageInput struct {
	StudentID    uuid.UUID
	Name         string
	TotalHours   float64
	Price        *float64
	PurchaseDate time.Time
	ExpiryDate   *time.Time
	Notes        string
}

type PackagePatch struct {
	Name       *string
	TotalHours *float64
	Price      *float64
	ExpiryDate *time.Time
	Notes      *string
}

func (s *PackageService) Create(in PackageInput) (*models.Package, error) {
	if in.TotalHours <= 0 {
		return nil, validationf("total hours must be positive")
	}

	var student models.Student
	if err := s.db.First(&student, "id = ?", in.StudentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("student not found")
		}
		return nil, errors.Wrap(err, "load student")
	}

	price := student.PricePerPackage
	if in.Price != nil {
		price = *in.Price
	}
	if price < 0 {
		return nil, validationf("price cannot be negative")
	}
	if in.PurchaseDate.IsZero() {
		in.PurchaseDate = time.Now()
	}
	if in.ExpiryDate != nil && in.ExpiryDate.Before(in.PurchaseDate) {
		return nil, validationf("expiry date is before purchase date")
	}

	pkg := models.Package{
		StudentID:    in.StudentID,
		Name:         in.Name,
		TotalHours:   utils.RoundMoney(in.TotalHours),
		Price:        utils.RoundMoney(price),
		PurchaseDate: in.PurchaseDate,
		ExpiryDate:   in.ExpiryDate,
		Status:       models.PackageActive,
		Notes:        in.Notes,
	}
	if pkg.Name == "" {
		pkg.Name = student.FullName() + " package"
	}

	if err := s.db.Create(&pkg).Error; err != nil {
		return nil, errors.Wrap(err, "create package")
	}
	return &pkg, nil
}

func (s *PackageService) Get(id uuid.UUID) (*models.Package, error) {
	var pkg models.Package
	if err := s.db.Preload("Student").First(&pkg, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "package")
	}
	return &pkg, nil
}

func (s *PackageService) List(studentID *uuid.UUID, status string) ([]models.Package, error) {
	q := s.db.Preload("Student").Order("purchase_date DESC")
	if studentID != nil {
		q = q.Where("student_id = ?", *studentID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var pkgs []models.Package
	if err := q.Find(&pkgs).Error; err != nil {
		return nil, errors.Wrap(err, "list packages")
	}
	return pkgs, nil
}

func (s *PackageService) Update(id uuid.UUID, patch PackagePatch) (*models.Package, error) {
	var pkg models.Package
	if err := s.db.First(&pkg, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "package")
	}

	if patch.Name != nil {
		pkg.Name = *patch.Name
	}
	if patch.TotalHours != nil {
		if utils.ToCents(*patch.TotalHours) < utils.ToCents(pkg.UsedHours) {
			return nil, validationf("total hours cannot be lower than the %.2f hours already used", pkg.UsedHours)
		}
		pkg.TotalHours = utils.RoundMoney(*patch.TotalHours)
	}
	if patch.Price != nil {
		if pkg.IsPaid && utils.ToCents(*patch.Price) != utils.ToCents(pkg.Price) {
			return nil, validationf("price of a paid package cannot change")
		}
		pkg.Price = utils.RoundMoney(*patch.Price)
	}
	if patch.ExpiryDate != nil {
		pkg.ExpiryDate = patch.ExpiryDate
	}
	if patch.Notes != nil {
		pkg.Notes = *patch.Notes
	}
	pkg.Status = packageStatus(pkg, time.Now())

	if err := s.db.Save(&pkg).Error; err != nil {
		return nil, errors.Wrap(err, "save package")
	}
	return &pkg, nil
}

func (s *PackageService) Delete(id uuid.UUID) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var pkg models.Package
		if err := tx.First(&pkg, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "package")
		}
		var lessons int64
		if err := tx.Model(&models.Lesson{}).Where("package_id = ?", id).Count(&lessons).Error; err != nil {
			return errors.Wrap(err, "count package lessons")
		}
		if lessons > 0 {
			return validationf("package has %d lessons; delete them first", lessons)
		}
		if pkg.IsPaid {
			return validationf("package is paid; delete its payment first")
		}
		return errors.Wrap(tx.Delete(&pkg).Error, "delete package")
	})
}

// ExpirePackages marks active packages whose expiry date has passed.
func (s *PackageService) ExpirePackages(now time.Time) (int64, error) {
	result := s.db.Model(&models.Package{}).
		Where("status = ? AND expiry_date IS NOT NULL AND expiry_date < ?", models.PackageActive, now).
		Update("status", models.PackageExpired)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "expire packages")
	}
	if result.RowsAffected > 0 {
		s.logger.Info("Packages expired", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

func packageStatus(pkg models.Package, now time.Time) string {
	switch {
	case pkg.ExpiryDate != nil && pkg.ExpiryDate.Before(now):
		return models.PackageExpired
	case utils.ToCents(pkg.RemainingHours()) <= 0:
		return models.PackageExhausted
	default:
		return models.PackageActive
	}
}
