package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/evaluation-console/internal/metrics"
	"github.com/SAP-F-2025/evaluation-console/internal/services"
	"github.com/SAP-F-2025/evaluation-console/internal/utils"
	"github.com/SAP-F-2025/evaluation-console/internal/validator"
)

const serviceName = "evaluation-console"

type HandlerManager struct {
	sessionHandler *SessionHandler
	entityHandler  *EntityHandler
	historyHandler *HistoryHandler
	serviceManager services.ServiceManager
	logger         utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(serviceManager.Sessions(), logger),
		entityHandler:  NewEntityHandler(serviceManager.Entities(), logger),
		historyHandler: NewHistoryHandler(serviceManager.History(), validator, logger),
		serviceManager: serviceManager,
		logger:         logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		// Evaluation workflow sessions
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.CreateSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.DELETE("/:id", hm.sessionHandler.DeleteSession)

			// Step 1
			sessions.POST("/:id/model-answer", hm.sessionHandler.SubmitModelAnswer)

			// Step 2
			sessions.POST("/:id/back", hm.sessionHandler.Back)
			sessions.POST("/:id/student-file", hm.sessionHandler.AttachStudentFile)
			sessions.PUT("/:id/details", hm.sessionHandler.UpdateDetails)
			sessions.POST("/:id/teachers", hm.sessionHandler.CreateTeacher)
			sessions.POST("/:id/students", hm.sessionHandler.CreateStudent)
			sessions.POST("/:id/submit", hm.sessionHandler.Submit)

			// Step 3
			sessions.POST("/:id/reset", hm.sessionHandler.Reset)
			sessions.GET("/:id/report", hm.sessionHandler.Report)
		}

		teachers := v1.Group("/teachers")
		{
			teachers.GET("", hm.entityHandler.ListTeachers)
			teachers.POST("", hm.entityHandler.CreateTeacher)
			teachers.DELETE("/:id", hm.entityHandler.DeleteTeacher)
		}

		students := v1.Group("/students")
		{
			students.GET("", hm.entityHandler.ListStudents)
			students.POST("", hm.entityHandler.CreateStudent)
			students.DELETE("/:id", hm.entityHandler.DeleteStudent)
			students.GET("/:id/statistics", hm.entityHandler.GetStudentStatistics)
		}

		// Evaluation history
		evaluations := v1.Group("/evaluations")
		{
			evaluations.GET("", hm.historyHandler.ListEvaluations)
			evaluations.GET("/recent", hm.historyHandler.RecentEvaluations)
			evaluations.GET("/export.xlsx", hm.historyHandler.Export)
			evaluations.POST("/refresh", hm.historyHandler.Refresh)
			evaluations.GET("/:id", hm.historyHandler.GetEvaluation)
			evaluations.DELETE("/:id", hm.historyHandler.DeleteEvaluation)
			evaluations.GET("/:id/report", hm.historyHandler.Report)
		}
	}

	router.GET("/health", hm.health)
	router.GET("/metrics", metrics.PrometheusHandler())
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		utils.FromContext(c, hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": serviceName,
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}
