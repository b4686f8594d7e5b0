package api

import (
	"errors"
	"net/http"
	"time"

	"gymplatform/backend/internal/domain"
	"gymplatform/backend/internal/schedule"
	"gymplatform/backend/internal/service"
	"gymplatform/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ClientHandler struct {
	trackingService  service.TrackingService
	dashboardService service.DashboardService
	planService      service.PlanService
	fileStorage      storage.FileStorage
}

func NewClientHandler(
	trackingService service.TrackingService,
	dashboardService service.DashboardService,
	planService service.PlanService,
	fileStorage storage.FileStorage,
) *ClientHandler {
	return &ClientHandler{
		trackingService:  trackingService,
		dashboardService: dashboardService,
		planService:      planService,
		fileStorage:      fileStorage,
	}
}

// --- DTOs ---

// DailyStatusRequest marks one calendar day of the active plan as completed
// or missed.
type DailyStatusRequest struct {
	Date        *time.Time                 `json:"date"` // defaults to today
	IsCompleted *bool                      `json:"isCompleted" binding:"required"`
	Reason      domain.NonCompletionReason `json:"reason"`
	Notes       string                     `json:"notes"`
	ProofImage  string                     `json:"proofImage"`
}

type DailyStatusResponse struct {
	Log    *domain.WorkoutLog        `json:"log"`
	Result service.DailyStatusResult `json:"result"`
}

// SessionLogRequest is the detailed logging payload with an explicit plan,
// session and week.
type SessionLogRequest struct {
	PlanID         string                     `json:"planId" binding:"required"`
	SessionID      string                     `json:"sessionId" binding:"required"`
	Week           int                        `json:"week" binding:"required"`
	IsCompleted    *bool                      `json:"isCompleted" binding:"required"`
	Reason         domain.NonCompletionReason `json:"reason"`
	Notes          string                     `json:"notes"`
	ProofImage     string                     `json:"proofImage"`
	ActualDuration int                        `json:"actualDuration"`
	Exercises      []domain.ExerciseResult    `json:"exercises"`
	OverallNotes   string                     `json:"overallNotes"`
	Difficulty     int                        `json:"difficulty"`
	Energy         int                        `json:"energy"`
	Mood           int                        `json:"mood"`
	PainLevel      int                        `json:"painLevel"`
}

type LogHistoryResponse struct {
	Logs       []domain.WorkoutLog `json:"logs"`
	Pagination service.Pagination  `json:"pagination"`
}

// ProofUploadRequest asks for a presigned URL to upload a proof image.
type ProofUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ProofUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

type ProofDownloadResponse struct {
	DownloadURL string `json:"downloadUrl"`
	ObjectKey   string `json:"objectKey"`
}

// --- Handler Methods ---

// RecordDailyStatus godoc
// @Summary Record today's (or a given day's) workout completion status
// @Description Marks one calendar day of the client's active plan as completed or missed. Resubmitting for the same day overwrites the earlier status.
// @Tags Client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param statusRequest body DailyStatusRequest true "Completion status"
// @Success 200 {object} DailyStatusResponse "Recorded status"
// @Failure 400 {object} gin.H "Validation error or no session scheduled for that day"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "No active workout plan"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /client/workouts/daily-status [post]
func (h *ClientHandler) RecordDailyStatus(c *gin.Context) {
	clientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client.")
		return
	}

	var req DailyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	logEntry, result, err := h.trackingService.RecordDailyStatus(c.Request.Context(), clientID, service.DailyStatusInput{
		Date:        req.Date,
		IsCompleted: *req.IsCompleted,
		Reason:      req.Reason,
		Notes:       req.Notes,
		ProofImage:  req.ProofImage,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActivePlan):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNoScheduledSession),
			errors.Is(err, service.ErrMissingReason),
			errors.Is(err, service.ErrInvalidReason),
			errors.Is(err, service.ErrMissingNotes):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to record workout status.")
		}
		return
	}

	c.JSON(http.StatusOK, DailyStatusResponse{Log: logEntry, Result: result})
}

// RecordSessionLog godoc
// @Summary Record a detailed workout log
// @Description Creates a detailed log entry for an explicit plan, session and week. Always creates a new record.
// @Tags Client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param logRequest body SessionLogRequest true "Workout log"
// @Success 201 {object} domain.WorkoutLog "Created log"
// @Failure 400 {object} gin.H "Validation error"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "Plan or session not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /client/workouts/logs [post]
func (h *ClientHandler) RecordSessionLog(c *gin.Context) {
	clientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client.")
		return
	}

	var req SessionLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	planID, err := primitive.ObjectIDFromHex(req.PlanID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(req.SessionID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	logEntry, err := h.trackingService.RecordSessionLog(c.Request.Context(), clientID, service.SessionLogInput{
		PlanID:         planID,
		SessionID:      sessionID,
		Week:           req.Week,
		IsCompleted:    *req.IsCompleted,
		Reason:         req.Reason,
		Notes:          req.Notes,
		ProofImage:     req.ProofImage,
		ActualDuration: req.ActualDuration,
		Exercises:      req.Exercises,
		OverallNotes:   req.OverallNotes,
		Difficulty:     req.Difficulty,
		Energy:         req.Energy,
		Mood:           req.Mood,
		PainLevel:      req.PainLevel,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrSessionNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidWeek),
			errors.Is(err, service.ErrMissingReason),
			errors.Is(err, service.ErrInvalidReason),
			errors.Is(err, service.ErrMissingNotes):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to record workout log.")
		}
		return
	}

	c.JSON(http.StatusCreated, logEntry)
}

// GetLogHistory godoc
// @Summary Get my workout log history
// @Description Retrieves the client's logs, newest first, with optional week, day and date-range filters.
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Param week query int false "Plan week filter"
// @Param dayOfWeek query string false "Weekday filter (e.g. monday)"
// @Param startDate query string false "Range start (YYYY-MM-DD)"
// @Param endDate query string false "Range end (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} LogHistoryResponse "Log history page"
// @Failure 400 {object} gin.H "Invalid filter"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /client/workouts/logs [get]
func (h *ClientHandler) GetLogHistory(c *gin.Context) {
	clientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client.")
		return
	}

	var filter service.HistoryFilter
	filter.Week = intQuery(c, "week", 0)
	filter.Page = intQuery(c, "page", 1)
	filter.Limit = intQuery(c, "limit", 10)

	if day := c.Query("dayOfWeek"); day != "" {
		d := domain.DayOfWeek(day)
		if !d.IsValid() {
			abortWithError(c, http.StatusBadRequest, "Invalid dayOfWeek filter.")
			return
		}
		filter.DayOfWeek = d
	}
	if from, ok, err := dateQuery(c, "startDate"); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid startDate, expected YYYY-MM-DD.")
		return
	} else if ok {
		filter.From = &from
	}
	if to, ok, err := dateQuery(c, "endDate"); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid endDate, expected YYYY-MM-DD.")
		return
	} else if ok {
		end := schedule.EndOfDay(to)
		filter.To = &end
	}

	logs, pagination, err := h.trackingService.GetLogHistory(c.Request.Context(), clientID, filter)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve workout logs.")
		return
	}
	if logs == nil {
		logs = []domain.WorkoutLog{}
	}
	c.JSON(http.StatusOK, LogHistoryResponse{Logs: logs, Pagination: pagination})
}

// GetDashboard godoc
// @Summary Get my completion dashboard
// @Description Aggregates the client's logs over a trailing window into weekly and monthly buckets with summary statistics.
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Param months query int false "Window length in months (default 6)"
// @Success 200 {object} service.TimeSeries "Dashboard data"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /client/workouts/dashboard [get]
func (h *ClientHandler) GetDashboard(c *gin.Context) {
	clientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client.")
		return
	}

	months := intQuery(c, "months", 6)
	series, err := h.dashboardService.BuildTimeSeries(c.Request.Context(), clientID, primitive.NilObjectID, months)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to build dashboard.")
		return
	}
	c.JSON(http.StatusOK, series)
}

// GetCalendar godoc
// @Summary Get my workout calendar
// @Description Overlays the active plan's schedule with recorded logs for each day in the requested range. Defaults to the current month.
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "Range start (YYYY-MM-DD)"
// @Param endDate query string false "Range end (YYYY-MM-DD)"
// @Param month query int false "Calendar month (1-12), used with year instead of an explicit range"
// @Param year query int false "Calendar year, used with month"
// @Success 200 {object} service.CalendarView "Calendar"
// @Failure 400 {object} gin.H "Invalid range"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /client/workouts/calendar [get]
func (h *ClientHandler) GetCalendar(c *gin.Context) {
	clientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client.")
		return
	}

	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	if c.Query("month") != "" || c.Query("year") != "" {
		month := intQuery(c, "month", int(now.Month()))
		year := intQuery(c, "year", now.Year())
		if month < 1 || month > 12 {
			abortWithError(c, http.StatusBadRequest, "month must be between 1 and 12.")
			return
		}
		from = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		to = from.AddDate(0, 1, -1)
	}

	if v, ok, err := dateQuery(c, "startDate"); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid startDate, expected YYYY-MM-DD.")
		return
	} else if ok {
		from = v
	}
	if v, ok, err := dateQuery(c, "endDate"); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid endDate, expected YYYY-MM-DD.")
		return
	} else if ok {
		to = v
	}
	if to.Before(from) {
		abortWithError(c, http.StatusBadRequest, "endDate must not be before startDate.")
		return
	}

	view, err := h.dashboardService.BuildCalendar(c.Request.Context(), clientID, from, to)
	if err != nil {
		if errors.Is(err, service.ErrCalendarRangeTooLarge) {
			abortWithError(c, http.StatusBadRequest, "Requested calendar range must not exceed one year.")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to build calendar.")
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetMyPlans godoc
// @Summary Get my workout plans
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.WorkoutPlan "List of plans"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /client/plans [get]
func (h *ClientHandler) GetMyPlans(c *gin.Context) {
	clientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client.")
		return
	}

	plans, err := h.planService.GetClientPlans(c.Request.Context(), clientID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plans.")
		return
	}
	if plans == nil {
		plans = []domain.WorkoutPlan{}
	}
	c.JSON(http.StatusOK, plans)
}

// GetMyPlan godoc
// @Summary Get one of my plans with its sessions
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ObjectID Hex"
// @Success 200 {object} service.PlanWithSessions "Plan with sessions"
// @Failure 400 {object} gin.H "Invalid plan ID format"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "Plan not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /client/plans/{planId} [get]
func (h *ClientHandler) GetMyPlan(c *gin.Context) {
	clientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client.")
		return
	}
	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	plan, err := h.planService.GetClientPlan(c.Request.Context(), clientID, planID)
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

// GetPlanStats godoc
// @Summary Get completion stats for one of my plans
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ObjectID Hex"
// @Success 200 {object} domain.PlanStats "Plan stats"
// @Failure 400 {object} gin.H "Invalid plan ID format"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "Plan not found"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /client/plans/{planId}/stats [get]
func (h *ClientHandler) GetPlanStats(c *gin.Context) {
	clientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client.")
		return
	}
	planID, err := primitive.ObjectIDFromHex(c.Param("planId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
		return
	}

	stats, err := h.trackingService.GetPlanStats(c.Request.Context(), clientID, planID)
	if err != nil {
		if errors.Is(err, service.ErrPlanNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve plan stats.")
		}
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetTodayWorkout godoc
// @Summary Get today's scheduled workout
// @Description Resolves the active plan's session for the current weekday, plus today's log if one exists.
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.TodayWorkout "Today's workout"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "No active plan or nothing scheduled today"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /client/workouts/today [get]
func (h *ClientHandler) GetTodayWorkout(c *gin.Context) {
	clientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client.")
		return
	}

	today, err := h.planService.GetTodayWorkout(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, service.ErrNoActivePlan) || errors.Is(err, service.ErrNoWorkoutScheduled) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve today's workout.")
		}
		return
	}
	c.JSON(http.StatusOK, today)
}

// GetMyStats godoc
// @Summary Get my all-time workout summary
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.ClientOverview "Client summary"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /client/stats [get]
func (h *ClientHandler) GetMyStats(c *gin.Context) {
	clientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client.")
		return
	}

	overview, err := h.dashboardService.GetClientOverview(c.Request.Context(), clientID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve stats.")
		return
	}
	c.JSON(http.StatusOK, overview)
}

// GetProofUploadURL godoc
// @Summary Get a presigned URL for uploading a workout proof image
// @Description Returns a short-lived PUT URL and the object key to store on the log's proofImage field.
// @Tags Client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param uploadRequest body ProofUploadRequest true "Image content type"
// @Success 200 {object} ProofUploadResponse "Presigned upload URL"
// @Failure 400 {object} gin.H "Unsupported content type"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /client/proofs/upload-url [post]
func (h *ClientHandler) GetProofUploadURL(c *gin.Context) {
	clientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client.")
		return
	}

	var req ProofUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	objectKey, err := storage.ProofImageKey(clientID, req.ContentType)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	uploadURL, err := h.fileStorage.GeneratePresignedUploadURL(c.Request.Context(), objectKey, req.ContentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL.")
		return
	}
	c.JSON(http.StatusOK, ProofUploadResponse{UploadURL: uploadURL, ObjectKey: objectKey})
}

// GetProofDownloadURL godoc
// @Summary Get a presigned URL for viewing a workout proof image
// @Description Returns a short-lived GET URL for an object key previously stored on one of the client's logs. Keys outside the client's own proof prefix are rejected.
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Param key query string true "Object key from the log's proofImage field"
// @Success 200 {object} ProofDownloadResponse "Presigned download URL"
// @Failure 400 {object} gin.H "Missing key"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Key belongs to another client"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /client/proofs/download-url [get]
func (h *ClientHandler) GetProofDownloadURL(c *gin.Context) {
	clientID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client.")
		return
	}

	objectKey := c.Query("key")
	if objectKey == "" {
		abortWithError(c, http.StatusBadRequest, "key query parameter is required.")
		return
	}
	if err := storage.ValidateProofImageKey(clientID, objectKey); err != nil {
		abortWithError(c, http.StatusForbidden, "Access denied to this object.")
		return
	}

	downloadURL, err := h.fileStorage.GeneratePresignedDownloadURL(c.Request.Context(), objectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to generate download URL.")
		return
	}
	c.JSON(http.StatusOK, ProofDownloadResponse{DownloadURL: downloadURL, ObjectKey: objectKey})
}
