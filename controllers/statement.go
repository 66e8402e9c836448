// controllers/statement.go
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tutorbook-backend/config"
	"tutorbook-backend/services"
	"tutorbook-backend/utils"
)

// StatementController issues and serves shareable statement links
type StatementController struct {
	Secret string
	TTL    time.Duration
}

// CreateStatementLink signs a link to the student's statement for a period
func (sc *StatementController) CreateStatementLink(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "student")
	if !ok {
		return
	}
	from, to, ok := parseRange(c)
	if !ok {
		return
	}

	if _, err := studentService().Get(id); err != nil {
		respondServiceError(c, err, "Failed to create statement link")
		return
	}

	token, expires, err := utils.GenerateStatementToken(sc.Secret, id, from, to, sc.TTL)
	if err != nil {
		respondServiceError(c, err, "Failed to create statement link")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":     token,
		"path":      "/statements/" + token,
		"expiresAt": expires,
	})
}

// GetSharedStatement serves the statement a link token points to
func (sc *StatementController) GetSharedStatement(c *gin.Context) {
	claims, err := utils.ParseStatementToken(sc.Secret, c.Param("token"))
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	statement, err := services.NewReportService(config.DB).Statement(claims.StudentID, claims.From, claims.To)
	if err != nil {
		respondServiceError(c, err, "Failed to build statement")
		return
	}

	c.JSON(http.StatusOK, statement)
}
