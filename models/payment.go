package models

import (
	"time"

	"github.com/google/uuid"
)

type Payment struct {
	Base

	StudentID *uuid.UUID `gorm:"type:uuid;index" json:"studentId,omitempty"`
	Student   *Student   `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	FamilyID  *uuid.UUID `gorm:"type:uuid;index" json:"familyId,omitempty"`
	PackageID *uuid.UUID `gorm:"type:uuid;index" json:"packageId,omitempty"`

	Amount       float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	CreditAmount float64   `gorm:"type:decimal(10,2);default:0" json:"creditAmount"`
	Date         time.Time `gorm:"index;not null" json:"date"`
	Method       string    `gorm:"type:varchar(20)" json:"method"`
	Notes        string    `gorm:"type:text" json:"notes"`

	Allocations []PaymentAllocation `gorm:"foreignKey:PaymentID" json:"allocations,omitempty"`
}

// PaymentAllocation records the part of a payment applied to one lesson.
type PaymentAllocation struct {
	Base

	PaymentID uuid.UUID `gorm:"type:uuid;index;not null" json:"paymentId"`
	LessonID  uuid.UUID `gorm:"type:uuid;index;not null" json:"lessonId"`
	Amount    float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
}
