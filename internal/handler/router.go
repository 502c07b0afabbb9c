package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tms-admin/tms-api/internal/middleware"
	"github.com/tms-admin/tms-api/internal/models"
	"github.com/tms-admin/tms-api/internal/service"
	"github.com/tms-admin/tms-api/pkg/config"
	"github.com/tms-admin/tms-api/pkg/logger"
	"github.com/tms-admin/tms-api/pkg/middleware/cors"
	"github.com/tms-admin/tms-api/pkg/middleware/requestid"
)

// Services bundles everything the router mounts.
type Services struct {
	Auth         *service.AuthService
	Participants *service.ParticipantService
	Trainings    *service.TrainingService
	Enrollments  *service.EnrollmentService
	Allowances   *service.AllowanceService
	Exports      *service.ExportService
	Metrics      *service.MetricsService

	Departments       *service.LookupService[models.Department, *models.Department]
	Facilities        *service.LookupService[models.Facility, *models.Facility]
	Designations      *service.LookupService[models.Designation, *models.Designation]
	SalaryScales      *service.LookupService[models.SalaryScale, *models.SalaryScale]
	Sponsors          *service.LookupService[models.Sponsor, *models.Sponsor]
	AllowanceTypes    *service.LookupService[models.AllowanceType, *models.AllowanceType]
	AllowanceStatuses *service.LookupService[models.AllowanceStatus, *models.AllowanceStatus]
}

// NewRouter assembles the gin engine with the full route table.
func NewRouter(cfg *config.Config, log *zap.Logger, svcs Services) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestid.Middleware())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(cors.New(cfg.CORS.AllowedOrigins))
	engine.Use(middleware.Metrics(svcs.Metrics))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	engine.GET("/metrics", gin.WrapH(svcs.Metrics.Handler()))

	api := engine.Group(cfg.APIPrefix)

	authHandler := NewAuthHandler(svcs.Auth)
	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	authed := auth.Group("")
	authed.Use(middleware.JWT(svcs.Auth))
	authed.POST("/logout", authHandler.Logout)
	authed.POST("/change-password", authHandler.ChangePassword)
	authed.GET("/me", authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(svcs.Auth))

	write := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)

	participantHandler := NewParticipantHandler(svcs.Participants)
	participants := protected.Group("/participants")
	participants.GET("", participantHandler.List)
	participants.GET("/search", participantHandler.Search)
	participants.GET("/:id", participantHandler.Get)
	participants.GET("/:id/transfers", participantHandler.ListTransfers)
	participants.POST("", write, participantHandler.Create)
	participants.PUT("/:id", write, participantHandler.Update)
	participants.DELETE("/:id", write, participantHandler.Delete)
	participants.POST("/:id/next-of-kin", write, participantHandler.AddNextOfKin)
	participants.PUT("/:id/next-of-kin/:kinId", write, participantHandler.UpdateNextOfKin)
	participants.DELETE("/:id/next-of-kin/:kinId", write, participantHandler.DeleteNextOfKin)
	participants.POST("/:id/transfers", write, participantHandler.Transfer)

	trainingHandler := NewTrainingHandler(svcs.Trainings)
	trainings := protected.Group("/trainings")
	trainings.GET("", trainingHandler.List)
	trainings.GET("/:id", trainingHandler.Get)
	trainings.GET("/:id/budgets/total", trainingHandler.TotalBudget)
	trainings.POST("", write, trainingHandler.Create)
	trainings.PUT("/:id", write, trainingHandler.Update)
	trainings.DELETE("/:id", write, trainingHandler.Delete)
	trainings.POST("/:id/budgets", write, trainingHandler.AddBudget)
	trainings.DELETE("/:id/budgets/:budgetId", write, trainingHandler.DeleteBudget)
	trainings.POST("/:id/reports", write, trainingHandler.AddReport)
	trainings.DELETE("/:id/reports/:reportId", write, trainingHandler.DeleteReport)

	enrollmentHandler := NewEnrollmentHandler(svcs.Enrollments)
	enrollments := protected.Group("/enrollments")
	enrollments.GET("", enrollmentHandler.List)
	enrollments.GET("/:id", enrollmentHandler.Get)
	enrollments.POST("", write, enrollmentHandler.Create)
	enrollments.PUT("/:id", write, enrollmentHandler.Update)
	enrollments.DELETE("/:id", write, enrollmentHandler.Delete)

	allowanceHandler := NewAllowanceHandler(svcs.Allowances, svcs.Exports)
	allowances := protected.Group("/allowances")
	allowances.GET("", allowanceHandler.List)
	allowances.GET("/:id", allowanceHandler.Get)
	allowances.POST("", write, allowanceHandler.Create)
	allowances.PUT("/:id", write, allowanceHandler.Update)
	allowances.DELETE("/:id", write, allowanceHandler.Delete)
	participants.GET("/:id/allowances/summary", allowanceHandler.Summary)
	participants.GET("/:id/allowances/statement", allowanceHandler.Statement)

	lookups := protected.Group("/lookups")
	NewLookupHandler(svcs.Departments).Register(lookups, "/departments", write)
	NewLookupHandler(svcs.Facilities).Register(lookups, "/facilities", write)
	NewLookupHandler(svcs.Designations).Register(lookups, "/designations", write)
	NewLookupHandler(svcs.SalaryScales).Register(lookups, "/salary-scales", write)
	NewLookupHandler(svcs.Sponsors).Register(lookups, "/sponsors", write)
	NewLookupHandler(svcs.AllowanceTypes).Register(lookups, "/allowance-types", write)
	NewLookupHandler(svcs.AllowanceStatuses).Register(lookups, "/allowance-statuses", write)

	return engine
}
