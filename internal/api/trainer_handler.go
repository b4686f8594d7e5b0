package api

import (
	"errors"
	"net/http"
	"time"

	"gymplatform/backend/internal/domain"
	"gymplatform/backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TrainerHandler struct {
	planService      service.PlanService
	dashboardService service.DashboardService
}

func NewTrainerHandler(planService service.PlanService, dashboardService service.DashboardService) *TrainerHandler {
	return &TrainerHandler{
		planService:      planService,
		dashboardService: dashboardService,
	}
}

// --- DTOs for Plan Management ---

// SessionRequest is one session template within a plan payload.
type SessionRequest struct {
	DayOfWeek         domain.DayOfWeek              `json:"dayOfWeek" binding:"required"`
	Exercises         []domain.ExercisePrescription `json:"exercises"`
	EstimatedDuration int                           `json:"estimatedDuration"`
	Difficulty        string                        `json:"difficulty"`
}

// PlanRequest creates or fully replaces a workout plan. On update the
// session set is replaced wholesale.
type PlanRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	ClientID    string           `json:"clientId"` // required on create, ignored on update
	Frequency   string           `json:"frequency" binding:"required"`
	StartDate   time.Time        `json:"startDate" binding:"required"`
	EndDate     *time.Time       `json:"endDate"`
	Goals       []string         `json:"goals"`
	Level       string           `json:"level"`
	Notes       string           `json:"notes"`
	TotalWeeks  int              `json:"totalWeeks" binding:"required"`
	Sessions    []SessionRequest `json:"sessions" binding:"required"`
}

// SetActiveRequest toggles a plan's active flag.
type SetActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

type PlanListResponse struct {
	Plans      []domain.WorkoutPlan `json:"plans"`
	Pagination service.Pagination   `json:"pagination"`
}

func mapSessionInputs(sessions []SessionRequest) []service.SessionInput {
	inputs := make([]service.SessionInput, len(sessions))
	for i, s := range sessions {
		inputs[i] = service.SessionInput{
			DayOfWeek:         s.DayOfWeek,
			Exercises:         s.Exercises,
			EstimatedDuration: s.EstimatedDuration,
			Difficulty:        s.Difficulty,
		}
	}
	return inputs
}

// --- Handler Methods ---

// CreatePlan godoc
// @Summary Create a workout plan for a client
// @Description Creates a multi-week plan with its session templates for a client assigned to the authenticated trainer.
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planRequest body PlanRequest true "Plan definition"
// @Success 201 {object} service.PlanWithSessions "Created plan"
// @Failure 400 {object} gin.H "Validation error"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Client not assigned to this trainer"
// @Failure 404 {object} gin.H "Client not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /trainer/plans [post]
func (h *TrainerHandler) CreatePlan(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	clientID, err := primitive.ObjectIDFromHex(req.ClientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format.")
		return
	}

	plan, err := h.planService.CreatePlan(c.Request.Context(), trainerID, service.PlanInput{
		Name:        req.Name,
		Description: req.Description,
		ClientID:    clientID,
		Frequency:   req.Frequency,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Goals:       req.Goals,
		Level:       req.Level,
		Notes:       req.Notes,
		TotalWeeks:  req.TotalWeeks,
		Sessions:    mapSessionInputs(req.Sessions),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClientNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrClientNotRole), errors.Is(err, service.ErrClientNotAssigned):
			abortWithError(c, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrInvalidTotalWeeks),
			errors.Is(err, service.ErrNoSessions),
			errors.Is(err, service.ErrInvalidDayOfWeek):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to create plan.")
		}
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// UpdatePlan godoc
// @Summary Replace a workout plan
// @Description Updates the plan's fields and replaces its whole session set. Completion counters are preserved; the planned baseline is re-derived.
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ObjectID Hex"
// @Param planRequest body PlanRequest true "Plan definition"
// @Success 200 {object} service.PlanWithSessions "Updated plan"
// @Failure 400 {object} gin.H "Validation error"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "Plan not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /trainer/plans/{planId} [put]
func (h *TrainerHandler) UpdatePlan(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}
	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	plan, err := h.planService.UpdatePlan(c.Request.Context(), trainerID, planID, service.PlanInput{
		Name:        req.Name,
		Description: req.Description,
		Frequency:   req.Frequency,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Goals:       req.Goals,
		Level:       req.Level,
		Notes:       req.Notes,
		TotalWeeks:  req.TotalWeeks,
		Sessions:    mapSessionInputs(req.Sessions),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidTotalWeeks),
			errors.Is(err, service.ErrNoSessions),
			errors.Is(err, service.ErrInvalidDayOfWeek):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update plan.")
		}
		return
	}
	c.JSON(http.StatusOK, plan)
}

// SetPlanActive godoc
// @Summary Activate or deactivate a plan
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ObjectID Hex"
// @Param activeRequest body SetActiveRequest true "Active flag"
// @Success 200 {object} gin.H "Updated"
// @Failure 400 {object} gin.H "Validation error"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "Plan not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /trainer/plans/{planId}/active [patch]
func (h *TrainerHandler) SetPlanActive(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}
	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.planService.SetPlanActive(c.Request.Context(), trainerID, planID, *req.IsActive); err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update plan.")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"isActive": *req.IsActive})
}

// GetPlans godoc
// @Summary List the trainer's plans
// @Description Lists plans created by the authenticated trainer with filtering, search and pagination.
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param clientId query string false "Filter by client"
// @Param isActive query bool false "Filter by active flag"
// @Param frequency query string false "Filter by frequency (e.g. 3x)"
// @Param level query string false "Filter by level"
// @Param search query string false "Case-insensitive name/description search"
// @Param sortBy query string false "Sort field (default createdAt)"
// @Param sortAsc query bool false "Sort ascending"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} PlanListResponse "Plans page"
// @Failure 400 {object} gin.H "Invalid filter"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /trainer/plans [get]
func (h *TrainerHandler) GetPlans(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	filter := service.PlanListFilter{
		Frequency: c.Query("frequency"),
		Level:     c.Query("level"),
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortAsc:   c.Query("sortAsc") == "true",
		Page:      intQuery(c, "page", 1),
		Limit:     intQuery(c, "limit", 10),
	}
	if clientIDHex := c.Query("clientId"); clientIDHex != "" {
		clientID, err := primitive.ObjectIDFromHex(clientIDHex)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid client ID format.")
			return
		}
		filter.ClientID = clientID
	}
	if isActiveRaw := c.Query("isActive"); isActiveRaw != "" {
		isActive := isActiveRaw == "true"
		filter.IsActive = &isActive
	}

	plans, pagination, err := h.planService.GetTrainerPlans(c.Request.Context(), trainerID, filter)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plans.")
		return
	}
	if plans == nil {
		plans = []domain.WorkoutPlan{}
	}
	c.JSON(http.StatusOK, PlanListResponse{Plans: plans, Pagination: pagination})
}

// GetPlan godoc
// @Summary Get one of the trainer's plans with its sessions
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ObjectID Hex"
// @Success 200 {object} service.PlanWithSessions "Plan with sessions"
// @Failure 400 {object} gin.H "Invalid plan ID format"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "Plan not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /trainer/plans/{planId} [get]
func (h *TrainerHandler) GetPlan(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}
	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	plan, err := h.planService.GetTrainerPlan(c.Request.Context(), trainerID, planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plan.")
		}
		return
	}
	c.JSON(http.StatusOK, plan)
}

// GetClientDashboard godoc
// @Summary Get a client's completion dashboard
// @Description Builds the weekly/monthly completion dashboard for one of the trainer's assigned clients, scoped to workouts recorded under this trainer's plans.
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ObjectID Hex"
// @Param months query int false "Window length in months (default 6)"
// @Success 200 {object} service.TimeSeries "Dashboard data"
// @Failure 400 {object} gin.H "Invalid client ID format"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Client not assigned to this trainer"
// @Failure 404 {object} gin.H "Client not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /trainer/clients/{clientId}/dashboard [get]
func (h *TrainerHandler) GetClientDashboard(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}
	clientID, err := primitive.ObjectIDFromHex(c.Param("clientId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format.")
		return
	}

	if err := h.planService.VerifyTrainerClient(c.Request.Context(), trainerID, clientID); err != nil {
		switch {
		case errors.Is(err, service.ErrClientNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrClientNotRole), errors.Is(err, service.ErrClientNotAssigned):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to verify client.")
		}
		return
	}

	months := intQuery(c, "months", 6)
	series, err := h.dashboardService.BuildTimeSeries(c.Request.Context(), clientID, trainerID, months)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to build dashboard.")
		return
	}
	c.JSON(http.StatusOK, series)
}

// GetStats godoc
// @Summary Get the trainer's aggregate plan statistics
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Success 200 {object} repository.TrainerPlanStats "Trainer stats"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /trainer/stats [get]
func (h *TrainerHandler) GetStats(c *gin.Context) {
	trainerID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify trainer from token.")
		return
	}

	stats, err := h.dashboardService.GetTrainerStats(c.Request.Context(), trainerID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve stats.")
		return
	}
	c.JSON(http.StatusOK, stats)
}
