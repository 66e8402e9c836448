// controllers/reminder.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tutorbook-backend/services"
	"tutorbook-backend/utils"
)

// ReminderController exposes reminder history and lets the reminder job be run on demand
type ReminderController struct {
	Reminders *services.ReminderService
}

// GetReminderLogs lists reminder attempts, newest first
func (rc *ReminderController) GetReminderLogs(c *gin.Context) {
	studentID, ok := parseOptionalID(c, "studentId", "student")
	if !ok {
		return
	}
	lessonID, ok := parseOptionalID(c, "lessonId", "lesson")
	if !ok {
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	logs, err := rc.Reminders.Logs(services.ReminderLogFilter{
		StudentID: studentID,
		LessonID:  lessonID,
		Status:    c.Query("status"),
		Limit:     limit,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve reminder logs")
		return
	}

	c.JSON(http.StatusOK, logs)
}

// SendReminders runs the reminder job immediately
func (rc *ReminderController) SendReminders(c *gin.Context) {
	result, err := rc.Reminders.SendUpcomingReminders(c.Request.Context(), time.Now())
	if err != nil {
		respondServiceError(c, err, "Failed to send reminders")
		return
	}

	c.JSON(http.StatusOK, result)
}

// SaveReminderTemplateInput defines the expected JSON structure for a channel's reminder text
type SaveReminderTemplateInput struct {
	Channel  string `json:"channel" binding:"required,oneof=sms email"`
	Message  string `json:"message" binding:"required"`
	IsActive *bool  `json:"isActive"`
}

// GetReminderTemplates lists the configured reminder templates
func (rc *ReminderController) GetReminderTemplates(c *gin.Context) {
	templates, err := rc.Reminders.Templates()
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve templates")
		return
	}

	c.JSON(http.StatusOK, templates)
}

// SaveReminderTemplate creates or replaces the template for a channel
func (rc *ReminderController) SaveReminderTemplate(c *gin.Context) {
	var input SaveReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	template, err := rc.Reminders.SaveTemplate(services.ReminderTemplateInput{
		Channel:  input.Channel,
		Message:  input.Message,
		IsActive: input.IsActive,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to save template")
		return
	}

	c.JSON(http.StatusOK, template)
}

// DeleteReminderTemplate removes a channel's template, restoring the default text
func (rc *ReminderController) DeleteReminderTemplate(c *gin.Context) {
	if err := rc.Reminders.DeleteTemplate(c.Param("channel")); err != nil {
		respondServiceError(c, err, "Failed to delete template")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}
