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

type PurchaseService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewPurchaseService(db *gorm.DB, logger *zap.Logger) *PurchaseService {
	return &PurchaseService{db: db, logger: logger}
}

type PurchaseInput struct {
	Description        string
	Category           string
	Vendor             string
	Amount             float64
	Date               time.Time
	Notes              string
	IsRecurring        bool
	RecurringFrequency string
	RecurringEndDate   *time.Time
}

type PurchasePatch struct {
	Description *string
	Category    *string
	Vendor      *string
	Amount      *float64
	Date        *time.Time
	Notes       *string
}

type PurchaseFilter struct {
	Category string
	From     *time.Time
	To       *time.Time
}

func (s *PurchaseService) Create(in PurchaseInput) ([]models.Purchase, error) {
	if in.Amount < 0 {
		return nil, validationf("amount cannot be negative")
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}
	if in.Category == "" {
		in.Category = "General"
	}

	template := models.Purchase{
		Description: in.Description,
		Category:    in.Category,
		Vendor:      in.Vendor,
		Amount:      utils.RoundMoney(in.Amount),
		Date:        in.Date,
		Notes:       in.Notes,
	}

	purchases := []models.Purchase{template}
	if in.IsRecurring {
		freq, err := ParseFrequency(in.RecurringFrequency)
		if err != nil {
			return nil, err
		}
		if in.RecurringEndDate == nil {
			return nil, validationf("recurring purchases require an end date")
		}
		if purchases, err = ExpandPurchases(template, freq, *in.RecurringEndDate); err != nil {
			return nil, err
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return errors.Wrap(tx.Create(&purchases).Error, "create purchases")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Purchases created", zap.Int("count", len(purchases)), zap.String("category", in.Category))
	return purchases, nil
}

func (s *PurchaseService) Get(id uuid.UUID) (*models.Purchase, error) {
	var p models.Purchase
	if err := s.db.First(&p, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "purchase")
	}
	return &p, nil
}

func (s *PurchaseService) List(f PurchaseFilter) ([]models.Purchase, error) {
	q := s.db.Order("date DESC")
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", *f.To)
	}
	var purchases []models.Purchase
	if err := q.Find(&purchases).Error; err != nil {
		return nil, errors.Wrap(err, "list purchases")
	}
	return purchases, nil
}

func (s *PurchaseService) Update(id uuid.UUID, patch PurchasePatch, scope Scope) ([]models.Purchase, error) {
	var updated []models.Purchase
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var target models.Purchase
		if err := tx.First(&target, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "purchase")
		}
		filter, err := ResolveScope(target.ID, &target, scope)
		if err != nil {
			return err
		}

		var shift utils.WallShift
		if patch.Date != nil {
			shift = utils.WallShiftBetween(target.Date, *patch.Date, time.Local)
		}
		if patch.Amount != nil && *patch.Amount < 0 {
			return validationf("amount cannot be negative")
		}

		var affected []models.Purchase
		if err := filter.apply(tx, "date").Find(&affected).Error; err != nil {
			return errors.Wrap(err, "load affected purchases")
		}
		for i := range affected {
			p := &affected[i]
			if patch.Description != nil {
				p.Description = *patch.Description
			}
			if patch.Category != nil {
				p.Category = *patch.Category
			}
			if patch.Vendor != nil {
				p.Vendor = *patch.Vendor
			}
			if patch.Amount != nil {
				p.Amount = utils.RoundMoney(*patch.Amount)
			}
			if patch.Notes != nil {
				p.Notes = *patch.Notes
			}
			p.Date = shift.Apply(p.Date, time.Local)
			if err := tx.Save(p).Error; err != nil {
				return errors.Wrap(err, "save purchase")
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

func (s *PurchaseService) Delete(id uuid.UUID, scope Scope) (int, error) {
	var removed int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var target models.Purchase
		if err := tx.First(&target, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "purchase")
		}
		filter, err := ResolveScope(target.ID, &target, scope)
		if err != nil {
			return err
		}
		result := filter.apply(tx, "date").Delete(&models.Purchase{})
		if result.Error != nil {
			return errors.Wrap(result.Error, "delete purchases")
		}
		removed = int(result.RowsAffected)
		return nil
	})
	return removed, err
}
