// services/reminder_service.go
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutorbook-backend/models"
)

const (
	ReminderSent   = "sent"
	ReminderFailed = "failed"
)

type ReminderService struct {
	db           *gorm.DB
	sms          Notifier
	email        Notifier
	logger       *zap.Logger
	businessName string
	window       time.Duration
}

func NewReminderService(db *gorm.DB, sms, email Notifier, businessName string, window time.Duration, logger *zap.Logger) *ReminderService {
	return &ReminderService{
		db:           db,
		sms:          sms,
		email:        email,
		logger:       logger,
		businessName: businessName,
		window:       window,
	}
}

type ReminderResult struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// SendUpcomingReminders notifies students of scheduled lessons starting
// within the reminder window. Lessons that already have a sent reminder are
// not notified again.
func (s *ReminderService) SendUpcomingReminders(ctx context.Context, now time.Time) (ReminderResult, error) {
	var result ReminderResult

	reminded := s.db.Model(&models.ReminderLog{}).Select("lesson_id").Where("status = ?", ReminderSent)
	var lessons []models.Lesson
	if err := s.db.Preload("Student").
		Where("status = ? AND date_time > ? AND date_time <= ?", models.LessonScheduled, now, now.Add(s.window)).
		Where("id NOT IN (?)", reminded).
		Order("date_time ASC").
		Find(&lessons).Error; err != nil {
		return result, errors.Wrap(err, "load upcoming lessons")
	}

	templates, err := s.activeTemplates()
	if err != nil {
		return result, err
	}

	for _, lesson := range lessons {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if lesson.Student == nil {
			result.Skipped++
			continue
		}

		notifier, recipient := s.route(*lesson.Student)
		if notifier == nil {
			s.logger.Debug("No reminder channel for student",
				zap.String("student_id", lesson.StudentID.String()))
			result.Skipped++
			continue
		}

		msg := Message{
			To:      recipient,
			Name:    lesson.Student.FullName(),
			Subject: fmt.Sprintf("%s: lesson reminder", s.businessName),
			Body:    s.reminderText(lesson, templates[notifier.Channel()]),
		}

		entry := models.ReminderLog{
			LessonID:  lesson.ID,
			StudentID: lesson.StudentID,
			Channel:   notifier.Channel(),
			Recipient: recipient,
			Message:   msg.Body,
			Status:    ReminderSent,
			SentAt:    time.Now(),
		}
		if err := notifier.Send(ctx, msg); err != nil {
			s.logger.Warn("Failed to send reminder",
				zap.String("lesson_id", lesson.ID.String()),
				zap.String("channel", notifier.Channel()),
				zap.Error(err))
			entry.Status = ReminderFailed
			entry.ErrorMessage = err.Error()
			result.Failed++
		} else {
			result.Sent++
		}

		if err := s.db.Create(&entry).Error; err != nil {
			s.logger.Error("Failed to log reminder", zap.String("lesson_id", lesson.ID.String()), zap.Error(err))
		}
	}

	s.logger.Info("Reminder run completed",
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// route picks SMS when a phone number is known, email otherwise.
func (s *ReminderService) route(student models.Student) (Notifier, string) {
	if phone := student.ContactPhone(); phone != "" && s.sms != nil {
		return s.sms, phone
	}
	if email := student.ContactEmail(); email != "" && s.email != nil {
		return s.email, email
	}
	return nil, ""
}

const defaultReminderText = "Hi {name}, this is a reminder of your {subject} with {business} on {date} at {time} ({duration} min)."

// reminderText fills the channel's active template, or the default text.
func (s *ReminderService) reminderText(lesson models.Lesson, template string) string {
	if template == "" {
		template = defaultReminderText
	}
	subject := lesson.Subject
	if subject == "" {
		subject = "lesson"
	}
	return strings.NewReplacer(
		"{name}", lesson.Student.FirstName,
		"{subject}", subject,
		"{business}", s.businessName,
		"{date}", lesson.DateTime.Format("Mon Jan 2"),
		"{time}", lesson.DateTime.Format("15:04"),
		"{duration}", strconv.Itoa(lesson.Duration),
	).Replace(template)
}

func (s *ReminderService) activeTemplates() (map[string]string, error) {
	var templates []models.ReminderTemplate
	if err := s.db.Where("is_active = ?", true).Find(&templates).Error; err != nil {
		return nil, errors.Wrap(err, "load reminder templates")
	}
	out := make(map[string]string, len(templates))
	for _, t := range templates {
		out[t.Channel] = t.Message
	}
	return out, nil
}

type ReminderLogFilter struct {
	StudentID *uuid.UUID
	LessonID  *uuid.UUID
	Status    string
	Limit     int
}

// Logs returns reminder attempts, newest first.
func (s *ReminderService) Logs(f ReminderLogFilter) ([]models.ReminderLog, error) {
	q := s.db.Order("sent_at DESC")
	if f.StudentID != nil {
		q = q.Where("student_id = ?", *f.StudentID)
	}
	if f.LessonID != nil {
		q = q.Where("lesson_id = ?", *f.LessonID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit <= 0 {
		f.Limit = 100
	}
	var logs []models.ReminderLog
	if err := q.Limit(f.Limit).Find(&logs).Error; err != nil {
		return nil, errors.Wrap(err, "list reminder logs")
	}
	return logs, nil
}

type ReminderTemplateInput struct {
	Channel  string
	Message  string
	IsActive *bool
}

func (s *ReminderService) Templates() ([]models.ReminderTemplate, error) {
	var templates []models.ReminderTemplate
	if err := s.db.Order("channel ASC").Find(&templates).Error; err != nil {
		return nil, errors.Wrap(err, "list reminder templates")
	}
	return templates, nil
}

// SaveTemplate creates or replaces the template for a channel.
func (s *ReminderService) SaveTemplate(in ReminderTemplateInput) (*models.ReminderTemplate, error) {
	if in.Channel != ChannelSMS && in.Channel != ChannelEmail {
		return nil, validationf("channel must be %s or %s", ChannelSMS, ChannelEmail)
	}
	if strings.TrimSpace(in.Message) == "" {
		return nil, validationf("message is required")
	}

	var template models.ReminderTemplate
	err := s.db.Where("channel = ?", in.Channel).First(&template).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "load reminder template")
	}
	template.Channel = in.Channel
	template.Message = in.Message
	template.IsActive = in.IsActive == nil || *in.IsActive

	if err := s.db.Save(&template).Error; err != nil {
		return nil, errors.Wrap(err, "save reminder template")
	}
	return &template, nil
}

func (s *ReminderService) DeleteTemplate(channel string) error {
	result := s.db.Unscoped().Where("channel = ?", channel).Delete(&models.ReminderTemplate{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "delete reminder template")
	}
	if result.RowsAffected == 0 {
		return errors.Wrap(ErrNotFound, "reminder template")
	}
	return nil
}
