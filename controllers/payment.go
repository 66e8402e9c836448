// controllers/payment.go
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

// CreatePaymentInput defines the expected JSON structure for recording a payment
type CreatePaymentInput struct {
	StudentID uuid.UUID   `json:"studentId" binding:"required"`
	PackageID *uuid.UUID  `json:"packageId"`
	LessonIDs []uuid.UUID `json:"lessonIds"`
	Amount    float64     `json:"amount" binding:"required,gt=0"`
	Date      *time.Time  `json:"date"`
	Method    string      `json:"method" binding:"omitempty,payment_method"`
	Notes     string      `json:"notes"`
}

// FamilyPaymentInput defines the expected JSON structure for a payment covering a family
type FamilyPaymentInput struct {
	FamilyID  uuid.UUID  `json:"familyId" binding:"required"`
	StudentID *uuid.UUID `json:"studentId"`
	Amount    float64    `json:"amount" binding:"required,gt=0"`
	Date      *time.Time `json:"date"`
	Method    string     `json:"method" binding:"omitempty,payment_method"`
	Notes     string     `json:"notes"`
}

// LinkLessonInput moves payment credit onto a lesson. Amount defaults to all available credit.
type LinkLessonInput struct {
	LessonID uuid.UUID `json:"lessonId" binding:"required"`
	Amount   *float64  `json:"amount" binding:"omitempty,gt=0"`
}

// UpdatePaymentInput defines the expected JSON structure for editing a payment
type UpdatePaymentInput struct {
	Amount *float64   `json:"amount" binding:"omitempty,gt=0"`
	Date   *time.Time `json:"date"`
	Method *string    `json:"method" binding:"omitempty,payment_method"`
	Notes  *string    `json:"notes"`
}

func paymentService() *services.PaymentService {
	return services.NewPaymentService(config.DB, config.Logger)
}

func dateOrNow(t *time.Time) time.Time {
	if t == nil {
		return time.Now()
	}
	return *t
}

// CreatePayment records a payment for a student
func CreatePayment(c *gin.Context) {
	var input CreatePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	payment, err := paymentService().Create(services.PaymentInput{
		StudentID: &input.StudentID,
		PackageID: input.PackageID,
		LessonIDs: input.LessonIDs,
		Amount:    input.Amount,
		Date:      dateOrNow(input.Date),
		Method:    input.Method,
		Notes:     input.Notes,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create payment")
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// CreateFamilyPayment allocates one payment across the unpaid lessons of a family
func CreateFamilyPayment(c *gin.Context) {
	var input FamilyPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	payment, plan, err := paymentService().CreateFamilyPayment(services.FamilyPaymentInput{
		FamilyID:  input.FamilyID,
		StudentID: input.StudentID,
		Amount:    input.Amount,
		Date:      dateOrNow(input.Date),
		Method:    input.Method,
		Notes:     input.Notes,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create family payment")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment":      payment,
		"lessonsPaid":  len(plan.Allocations),
		"allocated":    utils.FromCents(plan.AllocatedCents()),
		"creditAmount": utils.FromCents(plan.CreditCents),
	})
}

// LinkPaymentLesson applies payment credit to a lesson
func LinkPaymentLesson(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "payment")
	if !ok {
		return
	}

	var input LinkLessonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	payment, err := paymentService().LinkLesson(id, input.LessonID, input.Amount)
	if err != nil {
		respondServiceError(c, err, "Failed to link lesson")
		return
	}

	c.JSON(http.StatusOK, payment)
}

// GetPayments lists payments with optional student, family and date filters
func GetPayments(c *gin.Context) {
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

	payments, err := paymentService().List(services.PaymentFilter{
		StudentID: studentID,
		FamilyID:  familyID,
		From:      from,
		To:        to,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve payments")
		return
	}

	c.JSON(http.StatusOK, payments)
}

// GetPayment retrieves a payment with its allocations
func GetPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "payment")
	if !ok {
		return
	}

	payment, err := paymentService().Get(id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve payment")
		return
	}

	c.JSON(http.StatusOK, payment)
}

// UpdatePayment edits payment metadata and amount
func UpdatePayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "payment")
	if !ok {
		return
	}

	var input UpdatePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	payment, err := paymentService().Update(id, services.PaymentPatch{
		Amount: input.Amount,
		Date:   input.Date,
		Method: input.Method,
		Notes:  input.Notes,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to update payment")
		return
	}

	c.JSON(http.StatusOK, payment)
}

// DeletePayment deletes a payment and reverses what it paid for
func DeletePayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "payment")
	if !ok {
		return
	}

	if err := paymentService().Delete(id); err != nil {
		respondServiceError(c, err, "Failed to delete payment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment deleted successfully"})
}
