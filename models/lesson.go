package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	LessonScheduled = "scheduled"
	LessonCompleted = "completed"
	LessonCancelled = "cancelled"
)

type Lesson struct {
	Base

	StudentID uuid.UUID `gorm:"type:uuid;index;not null" json:"studentId"`
	Student   *Student  `gorm:"foreignKey:StudentID" json:"student,omitempty"`

	DateTime time.Time `gorm:"index;not null" json:"dateTime"`
	Duration int       `gorm:"not null" json:"duration"` // in minutes
	Price    float64   `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	Subject  string    `json:"subject"`
	Notes    string    `gorm:"type:text" json:"notes"`
	Status   string    `gorm:"type:varchar(20);default:'scheduled'" json:"status"`

	IsRecurring        bool       `gorm:"default:false" json:"isRecurring"`
	RecurringFrequency string     `gorm:"type:varchar(10)" json:"recurringFrequency,omitempty"`
	RecurringGroupID   *uuid.UUID `gorm:"type:uuid;index" json:"recurringGroupId,omitempty"`
	RecurringEndDate   *time.Time `json:"recurringEndDate,omitempty"`

	PaidAmount float64 `gorm:"type:decimal(10,2);default:0" json:"paidAmount"`
	IsPaid     bool    `gorm:"default:false" json:"isPaid"`

	PackageID *uuid.UUID `gorm:"type:uuid;index" json:"packageId,omitempty"`
}

func (l *Lesson) SeriesGroup() *uuid.UUID { return l.RecurringGroupID }
func (l *Lesson) SeriesTime() time.Time   { return l.DateTime }

// Hours is the lesson duration expressed in hours.
func (l *Lesson) Hours() float64 {
	return float64(l.Duration) / 60
}
