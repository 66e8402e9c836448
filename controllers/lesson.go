// controllers/lesson.go
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tutorbook-backend/config"
	"tutorbook-backend/services"
	"tutorbook-backend/utils"
)

// CreateLessonInput defines the expected JSON structure for creating a lesson or a recurring series
type CreateLessonInput struct {
	StudentID          uuid.UUID  `json:"studentId" binding:"required"`
	DateTime           time.Time  `json:"dateTime" binding:"required"`
	Duration           int        `json:"duration" binding:"required,min=1"` // in minutes
	Price              *float64   `json:"price" binding:"omitempty,min=0"`
	Subject            string     `json:"subject"`
	Notes              string     `json:"notes"`
	Status             string     `json:"status" binding:"omitempty,lesson_status"`
	IsRecurring        bool       `json:"isRecurring"`
	RecurringFrequency string     `json:"recurringFrequency" binding:"required_if=IsRecurring true,omitempty,frequency"`
	RecurringEndDate   *time.Time `json:"recurringEndDate" binding:"required_if=IsRecurring true"`
	PackageID          *uuid.UUID `json:"packageId"`
}

// UpdateLessonInput defines the expected JSON structure for updating lessons
type UpdateLessonInput struct {
	StudentID *uuid.UUID `json:"studentId"`
	DateTime  *time.Time `json:"dateTime"`
	Duration  *int       `json:"duration" binding:"omitempty,min=1"`
	Price     *float64   `json:"price" binding:"omitempty,min=0"`
	Subject   *string    `json:"subject"`
	Notes     *string    `json:"notes"`
	Status    *string    `json:"status" binding:"omitempty,lesson_status"`
}

func (in UpdateLessonInput) patch() services.LessonPatch {
	return services.LessonPatch{
		StudentID: in.StudentID,
		DateTime:  in.DateTime,
		Duration:  in.Duration,
		Price:     in.Price,
		Subject:   in.Subject,
		Notes:     in.Notes,
		Status:    in.Status,
	}
}

func lessonService() *services.LessonService {
	return services.NewLessonService(config.DB, config.Logger)
}

// CreateLesson creates a lesson; recurring input expands into one lesson per occurrence
func CreateLesson(c *gin.Context) {
	var input CreateLessonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	lessons, err := lessonService().Create(services.LessonInput{
		StudentID:          input.StudentID,
		DateTime:           input.DateTime,
		Duration:           input.Duration,
		Price:              input.Price,
		Subject:            input.Subject,
		Notes:              input.Notes,
		Status:             input.Status,
		IsRecurring:        input.IsRecurring,
		RecurringFrequency: input.RecurringFrequency,
		RecurringEndDate:   input.RecurringEndDate,
		PackageID:          input.PackageID,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create lesson")
		return
	}

	if !input.IsRecurring {
		c.JSON(http.StatusCreated, lessons[0])
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"recurringGroupId": lessons[0].RecurringGroupID,
		"count":            len(lessons),
		"lessons":          lessons,
	})
}

// GetLessons lists lessons with optional student, family, status, date and unpaid filters
func GetLessons(c *gin.Context) {
	studentID, ok := parseOptionalID(c, "studentId", "student")
	if !ok {
		return
	}
	familyID, ok := parseOptionalID(c, "familyId", "family")
	if !ok {
		return
	}
	from, ok := parseTimeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseTimeQuery(c, "to")
	if !ok {
		return
	}

	lessons, err := lessonService().List(services.LessonFilter{
		StudentID: studentID,
		FamilyID:  familyID,
		Status:    c.Query("status"),
		From:      from,
		To:        to,
		Unpaid:    c.Query("unpaid") == "true",
	})
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve lessons")
		return
	}

	c.JSON(http.StatusOK, lessons)
}

// GetLesson retrieves a specific lesson by ID
func GetLesson(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "lesson")
	if !ok {
		return
	}

	lesson, err := lessonService().Get(id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve lesson")
		return
	}

	c.JSON(http.StatusOK, lesson)
}

// GetLessonSeries lists every lesson of a recurring group
func GetLessonSeries(c *gin.Context) {
	groupID, ok := parseIDParam(c, "groupId", "recurring group")
	if !ok {
		return
	}

	lessons, err := lessonService().Series(groupID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve series")
		return
	}

	c.JSON(http.StatusOK, lessons)
}

// UpdateLesson updates only the addressed lesson
func UpdateLesson(c *gin.Context) {
	updateLessons(c, services.ScopeSingle)
}

// UpdateFutureLessons updates the lesson and every later lesson of its series
func UpdateFutureLessons(c *gin.Context) {
	updateLessons(c, services.ScopeFuture)
}

func updateLessons(c *gin.Context, scope services.Scope) {
	id, ok := parseIDParam(c, "id", "lesson")
	if !ok {
		return
	}

	var input UpdateLessonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	lessons, err := lessonService().Update(id, input.patch(), scope)
	if err != nil {
		respondServiceError(c, err, "Failed to update lesson")
		return
	}

	if scope == services.ScopeSingle {
		c.JSON(http.StatusOK, lessons[0])
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(lessons), "lessons": lessons})
}

// DeleteLesson deletes only the addressed lesson
func DeleteLesson(c *gin.Context) {
	deleteLessons(c, services.ScopeSingle)
}

// DeleteFutureLessons deletes the lesson and every later lesson of its series
func DeleteFutureLessons(c *gin.Context) {
	deleteLessons(c, services.ScopeFuture)
}

func deleteLessons(c *gin.Context, scope services.Scope) {
	id, ok := parseIDParam(c, "id", "lesson")
	if !ok {
		return
	}

	count, err := lessonService().Delete(id, scope)
	if err != nil {
		respondServiceError(c, err, "Failed to delete lesson")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Lesson deleted successfully", "count": count})
}
