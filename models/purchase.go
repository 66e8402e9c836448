package models

import (
	"time"

	"github.com/google/uuid"
)

// Purchase is a business expense.
type Purchase struct {
	Base

	Description string    `gorm:"not null" json:"description"`
	Category    string    `gorm:"default:'General'" json:"category"`
	Vendor      string    `json:"vendor"`
	Amount      float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Date        time.Time `gorm:"index;not null" json:"date"`
	Notes       string    `gorm:"type:text" json:"notes"`

	IsRecurring        bool       `gorm:"default:false" json:"isRecurring"`
	RecurringFrequency string     `gorm:"type:varchar(10)" json:"recurringFrequency,omitempty"`
	RecurringGroupID   *uuid.UUID `gorm:"type:uuid;index" json:"recurringGroupId,omitempty"`
	RecurringEndDate   *time.Time `json:"recurringEndDate,omitempty"`
}

func (p *Purchase) SeriesGroup() *uuid.UUID { return p.RecurringGroupID }
func (p *Purchase) SeriesTime() time.Time   { return p.Date }
