// controllers/purchase.go
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tutorbook-backend/config"
	"tutorbook-backend/services"
	"tutorbook-backend/utils"
)

// CreatePurchaseInput defines the expected JSON structure for recording a business expense
type CreatePurchaseInput struct {
	Description        string     `json:"description" binding:"required"`
	Category           string     `json:"category"`
	Vendor             string     `json:"vendor"`
	Amount             float64    `json:"amount" binding:"min=0"`
	Date               *time.Time `json:"date"`
	Notes              string     `json:"notes"`
	IsRecurring        bool       `json:"isRecurring"`
	RecurringFrequency string     `json:"recurringFrequency" binding:"required_if=IsRecurring true,omitempty,frequency"`
	RecurringEndDate   *time.Time `json:"recurringEndDate" binding:"required_if=IsRecurring true"`
}

// UpdatePurchaseInput defines the expected JSON structure for updating purchases
type UpdatePurchaseInput struct {
	Description *string    `json:"description" binding:"omitempty,min=1"`
	Category    *string    `json:"category"`
	Vendor      *string    `json:"vendor"`
	Amount      *float64   `json:"amount" binding:"omitempty,min=0"`
	Date        *time.Time `json:"date"`
	Notes       *string    `json:"notes"`
}

func purchaseService() *services.PurchaseService {
	return services.NewPurchaseService(config.DB, config.Logger)
}

// CreatePurchase records a purchase; recurring input expands into one purchase per occurrence
func CreatePurchase(c *gin.Context) {
	var input CreatePurchaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	purchases, err := purchaseService().Create(services.PurchaseInput{
		Description:        input.Description,
		Category:           input.Category,
		Vendor:             input.Vendor,
		Amount:             input.Amount,
		Date:               dateOrNow(input.Date),
		Notes:              input.Notes,
		IsRecurring:        input.IsRecurring,
		RecurringFrequency: input.RecurringFrequency,
		RecurringEndDate:   input.RecurringEndDate,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create purchase")
		return
	}

	if !input.IsRecurring {
		c.JSON(http.StatusCreated, purchases[0])
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"recurringGroupId": purchases[0].RecurringGroupID,
		"count":            len(purchases),
		"purchases":        purchases,
	})
}

// GetPurchases lists purchases with optional category and date filters
func GetPurchases(c *gin.Context) {
	from, ok := parseTimeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseTimeQuery(c, "to")
	if !ok {
		return
	}

	purchases, err := purchaseService().List(services.PurchaseFilter{
		Category: c.Query("category"),
		From:     from,
		To:       to,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve purchases")
		return
	}

	c.JSON(http.StatusOK, purchases)
}

// GetPurchase retrieves a specific purchase by ID
func GetPurchase(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "purchase")
	if !ok {
		return
	}

	purchase, err := purchaseService().Get(id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve purchase")
		return
	}

	c.JSON(http.StatusOK, purchase)
}

// UpdatePurchase updates only the addressed purchase
func UpdatePurchase(c *gin.Context) {
	updatePurchases(c, services.ScopeSingle)
}

// UpdateFuturePurchases updates the purchase and every later purchase of its series
func UpdateFuturePurchases(c *gin.Context) {
	updatePurchases(c, services.ScopeFuture)
}

func updatePurchases(c *gin.Context, scope services.Scope) {
	id, ok := parseIDParam(c, "id", "purchase")
	if !ok {
		return
	}

	var input UpdatePurchaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	purchases, err := purchaseService().Update(id, services.PurchasePatch{
		Description: input.Description,
		Category:    input.Category,
		Vendor:      input.Vendor,
		Amount:      input.Amount,
		Date:        input.Date,
		Notes:       input.Notes,
	}, scope)
	if err != nil {
		respondServiceError(c, err, "Failed to update purchase")
		return
	}

	if scope == services.ScopeSingle {
		c.JSON(http.StatusOK, purchases[0])
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(purchases), "purchases": purchases})
}

// DeletePurchase deletes only the addressed purchase
func DeletePurchase(c *gin.Context) {
	deletePurchases(c, services.ScopeSingle)
}

// DeleteFuturePurchases deletes the purchase and every later purchase of its series
func DeleteFuturePurchases(c *gin.Context) {
	deletePurchases(c, services.ScopeFuture)
}

func deletePurchases(c *gin.Context, scope services.Scope) {
	id, ok := parseIDParam(c, "id", "purchase")
	if !ok {
		return
	}

	count, err := purchaseService().Delete(id, scope)
	if err != nil {
		respondServiceError(c, err, "Failed to delete purchase")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Purchase deleted successfully", "count": count})
}
