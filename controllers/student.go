// controllers/student.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tutorbook-backend/config"
	"tutorbook-backend/models"
	"tutorbook-backend/services"
	"tutorbook-backend/utils"
)

// CreateStudentInput defines the expected JSON structure for creating a student
type CreateStudentInput struct {
	FirstName       string     `json:"firstName" binding:"required"`
	LastName        string     `json:"lastName" binding:"required"`
	Email           string     `json:"email" binding:"omitempty,email"`
	Phone           string     `json:"phone" binding:"omitempty,phone"`
	ParentName      string     `json:"parentName"`
	ParentEmail     string     `json:"parentEmail" binding:"omitempty,email"`
	ParentPhone     string     `json:"parentPhone" binding:"omitempty,phone"`
	Subject         string     `json:"subject"`
	Notes           string     `json:"notes"`
	PricePerLesson  float64    `json:"pricePerLesson" binding:"min=0"`
	PricePerPackage float64    `json:"pricePerPackage" binding:"min=0"`
	FamilyID        *uuid.UUID `json:"familyId"`
}

// UpdateStudentInput defines the expected JSON structure for updating a student
type UpdateStudentInput struct {
	FirstName       *string  `json:"firstName" binding:"omitempty,min=1"`
	LastName        *string  `json:"lastName" binding:"omitempty,min=1"`
	Email           *string  `json:"email" binding:"omitempty,email"`
	Phone           *string  `json:"phone" binding:"omitempty,phone"`
	ParentName      *string  `json:"parentName"`
	ParentEmail     *string  `json:"parentEmail" binding:"omitempty,email"`
	ParentPhone     *string  `json:"parentPhone" binding:"omitempty,phone"`
	Subject         *string  `json:"subject"`
	Notes           *string  `json:"notes"`
	PricePerLesson  *float64 `json:"pricePerLesson" binding:"omitempty,min=0"`
	PricePerPackage *float64 `json:"pricePerPackage" binding:"omitempty,min=0"`
	IsActive        *bool    `json:"isActive"`
}

type LinkFamilyInput struct {
	StudentIDs []uuid.UUID `json:"studentIds" binding:"required,min=2"`
}

func studentService() *services.StudentService {
	return services.NewStudentService(config.DB, config.Logger)
}

// CreateStudent creates a new student
func CreateStudent(c *gin.Context) {
	var input CreateStudentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	student := models.Student{
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		Email:           input.Email,
		Phone:           input.Phone,
		ParentName:      input.ParentName,
		ParentEmail:     input.ParentEmail,
		ParentPhone:     input.ParentPhone,
		Subject:         input.Subject,
		Notes:           input.Notes,
		PricePerLesson:  utils.RoundMoney(input.PricePerLesson),
		PricePerPackage: utils.RoundMoney(input.PricePerPackage),
		FamilyID:        input.FamilyID,
	}

	if err := studentService().Create(&student); err != nil {
		respondServiceError(c, err, "Failed to create student")
		return
	}

	c.JSON(http.StatusCreated, student)
}

// GetStudents lists students, optionally filtered by search term, family or active flag
func GetStudents(c *gin.Context) {
	familyID, ok := parseOptionalID(c, "familyId", "family")
	if !ok {
		return
	}

	students, err := studentService().List(services.StudentFilter{
		Search:     c.Query("search"),
		ActiveOnly: c.Query("active") == "true",
		FamilyID:   familyID,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve students")
		return
	}

	c.JSON(http.StatusOK, students)
}

// GetStudent retrieves a specific student by ID
func GetStudent(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "student")
	if !ok {
		return
	}

	student, err := studentService().Get(id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve student")
		return
	}

	c.JSON(http.StatusOK, student)
}

// UpdateStudent updates an existing student
func UpdateStudent(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "student")
	if !ok {
		return
	}

	var input UpdateStudentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	svc := studentService()
	student, err := svc.Get(id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve student")
		return
	}

	// Update fields if provided
	if input.FirstName != nil {
		student.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		student.LastName = *input.LastName
	}
	if input.Email != nil {
		student.Email = *input.Email
	}
	if input.Phone != nil {
		student.Phone = *input.Phone
	}
	if input.ParentName != nil {
		student.ParentName = *input.ParentName
	}
	if input.ParentEmail != nil {
		student.ParentEmail = *input.ParentEmail
	}
	if input.ParentPhone != nil {
		student.ParentPhone = *input.ParentPhone
	}
	if input.Subject != nil {
		student.Subject = *input.Subject
	}
	if input.Notes != nil {
		student.Notes = *input.Notes
	}
	if input.PricePerLesson != nil {
		student.PricePerLesson = utils.RoundMoney(*input.PricePerLesson)
	}
	if input.PricePerPackage != nil {
		student.PricePerPackage = utils.RoundMoney(*input.PricePerPackage)
	}
	if input.IsActive != nil {
		student.IsActive = *input.IsActive
	}

	if err := svc.Save(student); err != nil {
		respondServiceError(c, err, "Failed to update student")
		return
	}

	c.JSON(http.StatusOK, student)
}

// DeleteStudent soft deletes a student
func DeleteStudent(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "student")
	if !ok {
		return
	}

	if err := studentService().Delete(id); err != nil {
		respondServiceError(c, err, "Failed to delete student")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Student deleted successfully"})
}

// LinkFamily groups students under one family id
func LinkFamily(c *gin.Context) {
	var input LinkFamilyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	familyID, members, err := studentService().LinkFamily(input.StudentIDs)
	if err != nil {
		respondServiceError(c, err, "Failed to link family")
		return
	}

	c.JSON(http.StatusOK, gin.H{"familyId": familyID, "students": members})
}

func GetFamily(c *gin.Context) {
	familyID, ok := parseIDParam(c, "familyId", "family")
	if !ok {
		return
	}

	members, err := studentService().Family(familyID)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve family")
		return
	}

	c.JSON(http.StatusOK, gin.H{"familyId": familyID, "students": members})
}

func UnlinkFamily(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "student")
	if !ok {
		return
	}

	student, err := studentService().UnlinkFamily(id)
	if err != nil {
		respondServiceError(c, err, "Failed to unlink family")
		return
	}

	c.JSON(http.StatusOK, student)
}

// GetStudentStatement returns the student's statement for a period
func GetStudentStatement(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "student")
	if !ok {
		return
	}
	from, to, ok := parseRange(c)
	if !ok {
		return
	}

	statement, err := services.NewReportService(config.DB).Statement(id, from, to)
	if err != nil {
		respondServiceError(c, err, "Failed to build statement")
		return
	}

	c.JSON(http.StatusOK, statement)
}
