package models

// ReminderTemplate overrides the default reminder text for a channel.
// Message may use {name}, {subject}, {date}, {time}, {duration} and {business}.
type ReminderTemplate struct {
	Base

	Channel  string `gorm:"type:varchar(20);uniqueIndex;not null" json:"channel"` // sms, email
	Message  string `gorm:"type:text;not null" json:"message"`
	IsActive bool   `json:"isActive"`
}
