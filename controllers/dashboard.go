package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tutorbook-backend/config"
	"tutorbook-backend/services"
	"tutorbook-backend/utils"
)

type DashboardOverview struct {
	ActiveStudents   int               `json:"activeStudents"`
	LessonsToday     int               `json:"lessonsToday"`
	MonthPayments    float64           `json:"monthPayments"`
	MonthExpenses    float64           `json:"monthExpenses"`
	TotalOutstanding float64           `json:"totalOutstanding"`
	UpcomingLessons  []UpcomingLesson  `json:"upcomingLessons"`
	ExpiringPackages []ExpiringPackage `json:"expiringPackages"`
}

type UpcomingLesson struct {
	LessonID string `json:"lessonId"`
	Student  string `json:"student"`
	Subject  string `json:"subject"`
	Time     string `json:"time"`
	When     string `json:"when"` // e.g. "Today", "Tomorrow", "3 days"
}

type ExpiringPackage struct {
	PackageID      string  `json:"packageId"`
	Student        string  `json:"student"`
	Name           string  `json:"name"`
	RemainingHours float64 `json:"remainingHours"`
	Expires        string  `json:"expires"`
}

// relativeDay labels a date relative to today.
func relativeDay(t, now time.Time) string {
	days := utils.DaysBetween(now, t)
	switch {
	case days < 0:
		return "Expired"
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

func GetDashboardOverview(c *gin.Context) {
	now := time.Now()
	d, err := services.NewReportService(config.DB).Dashboard(now)
	if err != nil {
		respondServiceError(c, err, "Failed to load dashboard")
		return
	}

	overview := DashboardOverview{
		ActiveStudents:   d.ActiveStudents,
		LessonsToday:     d.LessonsToday,
		MonthPayments:    d.MonthPayments,
		MonthExpenses:    d.MonthExpenses,
		TotalOutstanding: d.TotalOutstanding,
		UpcomingLessons:  []UpcomingLesson{},
		ExpiringPackages: []ExpiringPackage{},
	}
	for _, l := range d.Upcoming {
		name := ""
		if l.Student != nil {
			name = l.Student.FullName()
		}
		overview.UpcomingLessons = append(overview.UpcomingLessons, UpcomingLesson{
			LessonID: l.ID.String(),
			Student:  name,
			Subject:  l.Subject,
			Time:     l.DateTime.Format("15:04"),
			When:     relativeDay(l.DateTime, now),
		})
	}
	for _, p := range d.ExpiringPackages {
		name := ""
		if p.Student != nil {
			name = p.Student.FullName()
		}
		overview.ExpiringPackages = append(overview.ExpiringPackages, ExpiringPackage{
			PackageID:      p.ID.String(),
			Student:        name,
			Name:           p.Name,
			RemainingHours: p.RemainingHours(),
			Expires:        relativeDay(*p.ExpiryDate, now),
		})
	}

	c.JSON(http.StatusOK, overview)
}
