// controllers/report.go
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tutorbook-backend/config"
	"tutorbook-backend/services"
	"tutorbook-backend/utils"
)

// ReportController handles all reporting functions
type ReportController struct{}

func (rc *ReportController) service() *services.ReportService {
	return services.NewReportService(config.DB)
}

// GetSummary returns lesson, revenue and expense totals for a period
func (rc *ReportController) GetSummary(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}

	summary, err := rc.service().Summary(from, to)
	if err != nil {
		respondServiceError(c, err, "Failed to build summary")
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetOutstanding returns per-student and per-family balances
func (rc *ReportController) GetOutstanding(c *gin.Context) {
	asOf := time.Now()
	if raw := c.Query("asOf"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid asOf date")
			return
		}
		if len(raw) == len(dateLayout) {
			t = utils.EndOfDay(t)
		}
		asOf = t
	}

	report, err := rc.service().Outstanding(asOf)
	if err != nil {
		respondServiceError(c, err, "Failed to build outstanding report")
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetPackageUtilization returns hours used against hours bought for every package
func (rc *ReportController) GetPackageUtilization(c *gin.Context) {
	usage, err := rc.service().PackageUtilization()
	if err != nil {
		respondServiceError(c, err, "Failed to build package report")
		return
	}

	c.JSON(http.StatusOK, usage)
}

// GetMonthlyStudent returns per-student lessons and billing for month=YYYY-MM
func (rc *ReportController) GetMonthlyStudent(c *gin.Context) {
	month := time.Now()
	if raw := c.Query("month"); raw != "" {
		t, err := time.ParseInLocation("2006-01", raw, time.Local)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid month, expected YYYY-MM")
			return
		}
		month = t
	}

	report, err := rc.service().MonthlyStudent(month)
	if err != nil {
		respondServiceError(c, err, "Failed to build monthly report")
		return
	}

	c.JSON(http.StatusOK, report)
}
