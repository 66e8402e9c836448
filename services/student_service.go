package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutorbook-backend/models"
)

type StudentService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewStudentService(db *gorm.DB, logger *zap.Logger) *StudentService {
	return &StudentService{db: db, logger: logger}
}

type StudentFilter struct {
	Search     string
	ActiveOnly bool
	FamilyID   *uuid.UUID
}

func (s *StudentService) Create(student *models.Student) error {
	student.ID = uuid.Nil
	student.IsActive = true
	if student.FamilyID != nil {
		// joining a family requires an existing member
		if _, err := s.Family(*student.FamilyID); err != nil {
			return err
		}
	}
	return errors.Wrap(s.db.Create(student).Error, "create student")
}

func (s *StudentService) Get(id uuid.UUID) (*models.Student, error) {
	var student models.Student
	if err := s.db.First(&student, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "student")
	}
	return &student, nil
}

func (s *StudentService) List(f StudentFilter) ([]models.Student, error) {
	q := s.db.Order("last_name ASC, first_name ASC")
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if f.FamilyID != nil {
		q = q.Where("family_id = ?", *f.FamilyID)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}

	var students []models.Student
	if err := q.Find(&students).Error; err != nil {
		return nil, errors.Wrap(err, "list students")
	}
	return students, nil
}

func (s *StudentService) Save(student *models.Student) error {
	return errors.Wrap(s.db.Save(student).Error, "save student")
}

func (s *StudentService) Delete(id uuid.UUID) error {
	result := s.db.Where("id = ?", id).Delete(&models.Student{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "delete student")
	}
	if result.RowsAffected == 0 {
		return errors.Wrap(ErrNotFound, "student")
	}
	return nil
}

// Family returns the members of a family.
func (s *StudentService) Family(familyID uuid.UUID) ([]models.Student, error) {
	var members []models.Student
	if err := s.db.Where("family_id = ?", familyID).Order("first_name ASC").Find(&members).Error; err != nil {
		return nil, errors.Wrap(err, "load family")
	}
	if len(members) == 0 {
		return nil, errors.Wrap(ErrNotFound, "family")
	}
	return members, nil
}

// LinkFamily groups students for joint billing. If any of them already
// belongs to a family the others join it; otherwise a new family is created.
func (s *StudentService) LinkFamily(studentIDs []uuid.UUID) (uuid.UUID, []models.Student, error) {
	studentIDs = uniqueIDs(studentIDs)
	if len(studentIDs) < 2 {
		return uuid.Nil, nil, validationf("a family needs at least two students")
	}

	var familyID uuid.UUID
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var students []models.Student
		if err := tx.Where("id IN ?", studentIDs).Find(&students).Error; err != nil {
			return errors.Wrap(err, "load students")
		}
		if len(students) != len(studentIDs) {
			return validationf("one or more students not found")
		}

		for _, st := range students {
			if st.FamilyID == nil {
				continue
			}
			if familyID != uuid.Nil && familyID != *st.FamilyID {
				return validationf("students belong to different families")
			}
			familyID = *st.FamilyID
		}
		if familyID == uuid.Nil {
			familyID = uuid.New()
		}

		return errors.Wrap(tx.Model(&models.Student{}).Where("id IN ?", studentIDs).
			Update("family_id", familyID).Error, "link family")
	})
	if err != nil {
		return uuid.Nil, nil, err
	}

	members, err := s.Family(familyID)
	return familyID, members, err
}

func (s *StudentService) UnlinkFamily(id uuid.UUID) (*models.Student, error) {
	student, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if student.FamilyID == nil {
		return student, nil
	}
	if err := s.db.Model(student).Update("family_id", nil).Error; err != nil {
		return nil, errors.Wrap(err, "unlink family")
	}
	student.FamilyID = nil
	return student, nil
}
