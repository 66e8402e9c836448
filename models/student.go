package models

import (
	"strings"

	"github.com/google/uuid"
)

type Student struct {
	Base

	FirstName   string `gorm:"not null" json:"firstName"`
	LastName    string `gorm:"not null" json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	ParentName  string `json:"parentName"`
	ParentEmail string `json:"parentEmail"`
	ParentPhone string `json:"parentPhone"`
	Subject     string `json:"subject"`
	Notes       string `gorm:"type:text" json:"notes"`

	PricePerLesson  float64 `gorm:"type:decimal(10,2);default:0" json:"pricePerLesson"`
	PricePerPackage float64 `gorm:"type:decimal(10,2);default:0" json:"pricePerPackage"`

	// Students sharing a FamilyID can be billed with one payment.
	FamilyID *uuid.UUID `gorm:"type:uuid;index" json:"familyId"`
	IsActive bool       `gorm:"default:true" json:"isActive"`
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// ContactPhone prefers the student's own number over the parent's.
func (s Student) ContactPhone() string {
	if s.Phone != "" {
		return s.Phone
	}
	return s.ParentPhone
}

func (s Student) ContactEmail() string {
	if s.Email != "" {
		return s.Email
	}
	return s.ParentEmail
}
