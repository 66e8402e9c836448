package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PackageActive    = "active"
	PackageExhausted = "exhausted"
	PackageExpired   = "expired"
)

// Package is a prepaid bundle of lesson hours for one student.
type Package struct {
	Base

	StudentID uuid.UUID `gorm:"type:uuid;index;not null" json:"studentId"`
	Student   *Student  `gorm:"foreignKey:StudentID" json:"student,omitempty"`

	Name         string     `json:"name"`
	TotalHours   float64    `gorm:"type:decimal(10,2);not null" json:"totalHours"`
	UsedHours    float64    `gorm:"type:decimal(10,2);default:0" json:"usedHours"`
	Price        float64    `gorm:"type:decimal(10,2);not null" json:"price"`
	PurchaseDate time.Time  `json:"purchaseDate"`
	ExpiryDate   *time.Time `json:"expiryDate,omitempty"`
	IsPaid       bool       `gorm:"default:false" json:"isPaid"`
	Status       string     `gorm:"type:varchar(20);default:'active'" json:"status"`
	Notes        string     `gorm:"type:text" json:"notes"`
}

func (p *Package) RemainingHours() float64 {
	return p.TotalHours - p.UsedHours
}
