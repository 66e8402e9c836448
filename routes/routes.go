package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tutorbook-backend/config"
	"tutorbook-backend/controllers"
	"tutorbook-backend/services"
	"tutorbook-backend/utils"
)

func SetupRouter(cfg *config.Config, reminders *services.ReminderService) *gin.Engine {
	if err := utils.RegisterValidators(); err != nil {
		config.Logger.Fatal("Failed to register validators", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(config.PerformanceLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	statementController := controllers.StatementController{
		Secret: cfg.StatementSecret,
		TTL:    time.Duration(cfg.StatementLinkTTL) * time.Hour,
	}
	if cfg.StatementSecret != "" {
		r.GET("/statements/:token", statementController.GetSharedStatement)
	}

	api := r.Group("/api")
	{
		// Student routes
		students := api.Group("/students")
		{
			students.POST("", controllers.CreateStudent)
			students.GET("", controllers.GetStudents)
			students.GET("/:id", controllers.GetStudent)
			students.PUT("/:id", controllers.UpdateStudent)
			students.DELETE("/:id", controllers.DeleteStudent)
			students.GET("/:id/statement", controllers.GetStudentStatement)
			if cfg.StatementSecret != "" {
				students.POST("/:id/statement/link", statementController.CreateStatementLink)
			}
			students.DELETE("/:id/family", controllers.UnlinkFamily)
		}

		// Family routes
		families := api.Group("/families")
		{
			families.POST("", controllers.LinkFamily)
			families.GET("/:familyId", controllers.GetFamily)
		}

		// Lesson routes
		lessons := api.Group("/lessons")
		{
			lessons.POST("", controllers.CreateLesson)
			lessons.GET("", controllers.GetLessons)
			lessons.GET("/series/:groupId", controllers.GetLessonSeries)
			lessons.GET("/:id", controllers.GetLesson)
			lessons.PUT("/:id", controllers.UpdateLesson)
			lessons.DELETE("/:id", controllers.DeleteLesson)
			lessons.PUT("/:id/recurring-future", controllers.UpdateFutureLessons)
			lessons.DELETE("/:id/recurring-future", controllers.DeleteFutureLessons)
		}

		// Payment routes
		payments := api.Group("/payments")
		{
			payments.POST("", controllers.CreatePayment)
			payments.POST("/family", controllers.CreateFamilyPayment)
			payments.GET("", controllers.GetPayments)
			payments.GET("/:id", controllers.GetPayment)
			payments.PUT("/:id", controllers.UpdatePayment)
			payments.DELETE("/:id", controllers.DeletePayment)
			payments.POST("/:id/link-lesson", controllers.LinkPaymentLesson)
		}

		// Package routes
		packages := api.Group("/packages")
		{
			packages.POST("", controllers.CreatePackage)
			packages.GET("", controllers.GetPackages)
			packages.GET("/:id", controllers.GetPackage)
			packages.PUT("/:id", controllers.UpdatePackage)
			packages.DELETE("/:id", controllers.DeletePackage)
		}

		// Purchase routes
		purchases := api.Group("/purchases")
		{
			purchases.POST("", controllers.CreatePurchase)
			purchases.GET("", controllers.GetPurchases)
			purchases.GET("/:id", controllers.GetPurchase)
			purchases.PUT("/:id", controllers.UpdatePurchase)
			purchases.DELETE("/:id", controllers.DeletePurchase)
			purchases.PUT("/:id/recurring-future", controllers.UpdateFuturePurchases)
			purchases.DELETE("/:id/recurring-future", controllers.DeleteFuturePurchases)
		}

		// Report routes
		reportController := controllers.ReportController{}
		reports := api.Group("/reports")
		{
			reports.GET("/summary", reportController.GetSummary)
			reports.GET("/outstanding", reportController.GetOutstanding)
			reports.GET("/packages", reportController.GetPackageUtilization)
			reports.GET("/monthly-student", reportController.GetMonthlyStudent)
		}

		// Dashboard routes
		api.GET("/dashboard", controllers.GetDashboardOverview)

		// Reminder routes
		if reminders != nil {
			reminderController := controllers.ReminderController{Reminders: reminders}
			api.GET("/reminders", reminderController.GetReminderLogs)
			api.POST("/reminders/send", reminderController.SendReminders)
			api.GET("/reminders/templates", reminderController.GetReminderTemplates)
			api.PUT("/reminders/templates", reminderController.SaveReminderTemplate)
			api.DELETE("/reminders/templates/:channel", reminderController.DeleteReminderTemplate)
		}
	}

	return r
}
