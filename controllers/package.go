// controllers/package.go
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

// CreatePackageInput defines the expected JSON structure for selling a lesson package
type CreatePackageInput struct {
	StudentID    uuid.UUID  `json:"studentId" binding:"required"`
	Name         string     `json:"name"`
	TotalHours   float64    `json:"totalHours" binding:"required,gt=0"`
	Price        *float64   `json:"price" binding:"omitempty,min=0"`
	PurchaseDate *time.Time `json:"purchaseDate"`
	ExpiryDate   *time.Time `json:"expiryDate"`
	Notes        string     `json:"notes"`
}

// UpdatePackageInput defines the expected JSON structure for updating a package
type UpdatePackageInput struct {
	Name       *string    `json:"name"`
	TotalHours *float64   `json:"totalHours" binding:"omitempty,gt=0"`
	Price      *float64   `json:"price" binding:"omitempty,min=0"`
	ExpiryDate *time.Time `json:"expiryDate"`
	Notes      *string    `json:"notes"`
}

func packageService() *services.PackageService {
	return services.NewPackageService(config.DB, config.Logger)
}

// CreatePackage creates a new prepaid package for a student
func CreatePackage(c *gin.Context) {
	var input CreatePackageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	pkg, err := packageService().Create(services.PackageInput{
		StudentID:    input.StudentID,
		Name:         input.Name,
		TotalHours:   input.TotalHours,
		Price:        input.Price,
		PurchaseDate: dateOrNow(input.PurchaseDate),
		ExpiryDate:   input.ExpiryDate,
		Notes:        input.Notes,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create package")
		return
	}

	c.JSON(http.StatusCreated, pkg)
}

// GetPackages lists packages, optionally filtered by student and status
func GetPackages(c *gin.Context) {
	studentID, ok := parseOptionalID(c, "studentId", "student")
	if !ok {
		return
	}

	pkgs, err := packageService().List(studentID, c.Query("status"))
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve packages")
		return
	}

	c.JSON(http.StatusOK, pkgs)
}

// GetPackage retrieves a specific package by ID
func GetPackage(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "package")
	if !ok {
		return
	}

	pkg, err := packageService().Get(id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve package")
		return
	}

	c.JSON(http.StatusOK, pkg)
}

// UpdatePackage updates an existing package
func UpdatePackage(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "package")
	if !ok {
		return
	}

	var input UpdatePackageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	pkg, err := packageService().Update(id, services.PackagePatch{
		Name:       input.Name,
		TotalHours: input.TotalHours,
		Price:      input.Price,
		ExpiryDate: input.ExpiryDate,
		Notes:      input.Notes,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to update package")
		return
	}

	c.JSON(http.StatusOK, pkg)
}

// DeletePackage deletes an unused, unpaid package
func DeletePackage(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "package")
	if !ok {
		return
	}

	if err := packageService().Delete(id); err != nil {
		respondServiceError(c, err, "Failed to delete package")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Package deleted successfully"})
}
