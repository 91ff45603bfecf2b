package api

import (
	"alcyxob/fitlog/internal/metrics"
	"alcyxob/fitlog/internal/service"
	"alcyxob/fitlog/internal/session"
	"alcyxob/fitlog/internal/view"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles what the routes need.
type Services struct {
	Auth        service.AuthService
	Entries     service.EntryService
	Workouts    service.WorkoutService
	Goals       service.GoalService
	Summary     service.SummaryService
	Reports     service.ReportService
	Preferences service.PreferenceService
	Devices     DeviceRegistrar
	Notifier    Notifier
	Sessions    *session.Manager
	Metrics     *metrics.Metrics
	Registry    *prometheus.Registry // served on /metrics when set
}

func SetupRoutes(router *gin.Engine, svc Services) {
	authHandler := NewAuthHandler(svc.Auth)
	entryHandler := NewEntryHandler(svc.Entries, svc.Notifier)
	workoutHandler := NewWorkoutHandler(svc.Workouts, svc.Notifier)
	goalHandler := NewGoalHandler(svc.Goals)
	summaryHandler := NewSummaryHandler(svc.Summary, svc.Reports)
	preferenceHandler := NewPreferenceHandler(svc.Preferences)
	deviceHandler := NewDeviceHandler(svc.Devices)
	viewHandler := NewViewHandler(view.Deps{
		Auth:     svc.Auth,
		Entries:  svc.Entries,
		Summary:  svc.Summary,
		Prefs:    svc.Preferences,
		Notifier: svc.Notifier,
		Metrics:  svc.Metrics,
	}, svc.Sessions, svc.Auth)

	authMiddleware := AuthMiddleware(svc.Auth)
	router.Use(MetricsMiddleware(svc.Metrics))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if svc.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(svc.Registry, promhttp.HandlerOpts{})))
	}

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.SignUp)
			authGroup.POST("/signin", authHandler.SignIn)
			authGroup.POST("/signout", authMiddleware, authHandler.SignOut)
		}

		// Preferences belong to the app instance, not the user
		apiV1.GET("/preferences", preferenceHandler.GetPreference)
		apiV1.PUT("/preferences", preferenceHandler.UpdatePreference)

		// GET /api/v1/views/{view}/ws?instance=...&token=...
		apiV1.GET("/views/:view/ws", viewHandler.ServeView)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		// --- Entry Routes ---
		protected.POST("/entries", entryHandler.CreateEntry)
		protected.GET("/entries/recent", entryHandler.GetRecentEntries)

		protected.POST("/workouts", workoutHandler.LogWorkout)
		protected.GET("/workouts/recent", workoutHandler.GetRecentWorkouts)

		protected.GET("/goals", goalHandler.GetGoals)
		protected.PUT("/goals", goalHandler.UpdateGoals)

		// --- Summary Routes ---
		protected.GET("/summary", summaryHandler.GetSummary)
		protected.POST("/summary/export", summaryHandler.ExportSummary)

		protected.POST("/devices", deviceHandler.RegisterDevice)
	}
}
