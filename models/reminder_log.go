// models/reminder_log.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type ReminderLog struct {
	Base

	LessonID     uuid.UUID `gorm:"type:uuid;index;not null" json:"lessonId"`
	StudentID    uuid.UUID `gorm:"type:uuid;index;not null" json:"studentId"`
	Channel      string    `gorm:"type:varchar(20)" json:"channel"` // sms, email
	Recipient    string    `json:"recipient"`
	Message      string    `gorm:"type:text" json:"message"`
	Status       string    `gorm:"type:varchar(20)" json:"status"` // sent, failed
	ErrorMessage string    `gorm:"type:text" json:"errorMessage,omitempty"`
	SentAt       time.Time `json:"sentAt"`
}
