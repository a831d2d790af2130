package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/pte-scoring-service/internal/metrics"
	"github.com/SAP-F-2025/pte-scoring-service/internal/models"
	"github.com/SAP-F-2025/pte-scoring-service/internal/repositories"
	"github.com/SAP-F-2025/pte-scoring-service/internal/services"
	"github.com/SAP-F-2025/pte-scoring-service/internal/utils"
)

type HandlerManager struct {
	sessionHandler   *SessionHandler
	attemptHandler   *AttemptHandler
	exportHandler    *ExportHandler
	timingHandler    *TimingHandler
	dashboardHandler *DashboardHandler
	userHandler      *UserHandler
	questionHandler  *QuestionHandler

	serviceManager services.ServiceManager
	metrics        *metrics.Metrics
	auth           gin.HandlerFunc
	logger         utils.Logger
}

// NewHandlerManager builds every handler. auth guards the /api/v1 group; in production it is
// CasdoorAuthMiddleware.AuthMiddleware.
func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	auth gin.HandlerFunc,
	userRepo repositories.UserRepository,
	m *metrics.Metrics,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler:   NewSessionHandler(serviceManager.Session(), logger),
		attemptHandler:   NewAttemptHandler(serviceManager.Attempt(), logger),
		exportHandler:    NewExportHandler(serviceManager.Attempt(), logger),
		timingHandler:    NewTimingHandler(logger),
		dashboardHandler: NewDashboardHandler(serviceManager.Dashboard(), logger),
		userHandler:      NewUserHandler(userRepo, logger),
		questionHandler:  NewQuestionHandler(serviceManager.Question(), logger),
		serviceManager:   serviceManager,
		metrics:          m,
		auth:             auth,
		logger:           logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.health)
	if hm.metrics != nil {
		router.GET("/metrics", gin.WrapH(hm.metrics.Handler()))
	}

	// timing catalogue is public
	public := router.Group("/api/v1")
	public.GET("/timing/:section/:type", hm.timingHandler.GetTiming)

	v1 := router.Group("/api/v1")
	if hm.auth != nil {
		v1.Use(hm.auth)
	}
	v1.Use(RequireJSON())
	{
		v1.POST("/sessions", hm.sessionHandler.StartSession)

		v1.POST("/:section/attempts", hm.attemptHandler.ScoreAttempt)
		v1.GET("/:section/attempts", hm.attemptHandler.ListAttempts)

		attempts := v1.Group("/attempts")
		{
			attempts.GET("/export", hm.exportHandler.ExportAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
		}

		questions := v1.Group("/questions")
		{
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.POST("", RequireRoleMiddleware(models.RoleTeacher), hm.questionHandler.CreateQuestion)
		}

		me := v1.Group("/me")
		{
			me.GET("", hm.userHandler.GetMe)
			me.GET("/progress", hm.dashboardHandler.GetProgress)
		}
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		utils.FromContext(c.Request.Context(), hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "pte-scoring-service",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pte-scoring-service",
	})
}
