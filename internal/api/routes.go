package api

import (
	"net/http"

	"gymplatform/backend/internal/domain"
	"gymplatform/backend/internal/service"
	"gymplatform/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	trackingService service.TrackingService,
	dashboardService service.DashboardService,
	planService service.PlanService,
	fileStorage storage.FileStorage,
) {
	clientHandler := NewClientHandler(trackingService, dashboardService, planService, fileStorage)
	trainerHandler := NewTrainerHandler(planService, dashboardService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Client Routes ---
		clientGroup := protected.Group("/client")
		clientGroup.Use(RoleMiddleware(domain.RoleClient))
		{
			clientGroup.POST("/workouts/daily-status", clientHandler.RecordDailyStatus)
			clientGroup.POST("/workouts/logs", clientHandler.RecordSessionLog)
			clientGroup.GET("/workouts/logs", clientHandler.GetLogHistory)
			clientGroup.GET("/workouts/dashboard", clientHandler.GetDashboard)
			clientGroup.GET("/workouts/calendar", clientHandler.GetCalendar)
			clientGroup.GET("/workouts/today", clientHandler.GetTodayWorkout)

			clientGroup.GET("/plans", clientHandler.GetMyPlans)
			clientGroup.GET("/plans/:planId", clientHandler.GetMyPlan)
			clientGroup.GET("/plans/:planId/stats", clientHandler.GetPlanStats)

			clientGroup.GET("/stats", clientHandler.GetMyStats)
			clientGroup.POST("/proofs/upload-url", clientHandler.GetProofUploadURL)
			clientGroup.GET("/proofs/download-url", clientHandler.GetProofDownloadURL)
		}

		// --- Trainer Routes ---
		trainerGroup := protected.Group("/trainer")
		trainerGroup.Use(RoleMiddleware(domain.RoleTrainer))
		{
			trainerGroup.POST("/plans", trainerHandler.CreatePlan)
			trainerGroup.GET("/plans", trainerHandler.GetPlans)
			trainerGroup.GET("/plans/:planId", trainerHandler.GetPlan)
			trainerGroup.PUT("/plans/:planId", trainerHandler.UpdatePlan)
			trainerGroup.PATCH("/plans/:planId/active", trainerHandler.SetPlanActive)

			trainerGroup.GET("/clients/:clientId/dashboard", trainerHandler.GetClientDashboard)
			trainerGroup.GET("/stats", trainerHandler.GetStats)
		}
	}
}
