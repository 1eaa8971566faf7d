package api

import (
	"allfit/allfit-backend/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires all HTTP routes onto the router.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	userService service.UserService,
	schedulingService service.SchedulingService,
	workoutService service.WorkoutService,
	analyticsService service.AnalyticsService,
) {
	authHandler := NewAuthHandler(authService)
	userHandler := NewUserHandler(userService)
	appointmentHandler := NewAppointmentHandler(schedulingService)
	workoutHandler := NewWorkoutHandler(workoutService)
	analyticsHandler := NewAnalyticsHandler(analyticsService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			caller, err := getCallerFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user identity from token")
				return
			}
			c.JSON(http.StatusOK, gin.H{"userId": caller.ID.Hex(), "role": caller.Role})
		})

		// --- User Routes ---
		userGroup := protected.Group("/users")
		{
			userGroup.GET("", RequireElevatedAccess(), userHandler.GetUsers)
			userGroup.POST("", RequireElevatedAccess(), userHandler.CreateUser)
			userGroup.GET("/:id", userHandler.GetUser)
			userGroup.PUT("/:id", userHandler.UpdateUser)
			userGroup.DELETE("/:id", RequireElevatedAccess(), userHandler.DeleteUser)
		}

		// --- Appointment Routes ---
		appointmentGroup := protected.Group("/appointments")
		{
			appointmentGroup.POST("", appointmentHandler.CreateAppointment)
			appointmentGroup.GET("", appointmentHandler.GetAppointments)
			appointmentGroup.GET("/:id", appointmentHandler.GetAppointment)
			appointmentGroup.PUT("/:id", appointmentHandler.UpdateAppointment)
			appointmentGroup.DELETE("/:id", RequireElevatedAccess(), appointmentHandler.DeleteAppointment)
		}

		// --- Workout Routes ---
		workoutGroup := protected.Group("/workouts")
		{
			workoutGroup.POST("", workoutHandler.CreateWorkout)
			workoutGroup.GET("", workoutHandler.GetWorkouts)
			workoutGroup.GET("/:id", workoutHandler.GetWorkout)
			workoutGroup.PUT("/:id", workoutHandler.UpdateWorkout)
			workoutGroup.DELETE("/:id", workoutHandler.DeleteWorkout)
		}

		// --- Analytics Routes ---
		analyticsGroup := protected.Group("/analytics")
		{
			analyticsGroup.GET("/dashboard/:userId", analyticsHandler.GetDashboard)
			analyticsGroup.GET("/progress/:userId", analyticsHandler.GetProgress)
			analyticsGroup.POST("/body-metrics", analyticsHandler.RecordBodyMetrics)
			analyticsGroup.GET("/body-metrics/:userId", analyticsHandler.GetBodyMetricsHistory)

			// Progress photo flow: presigned upload, attach, presigned download.
			analyticsGroup.POST("/metrics/:metricId/photos/upload-url", analyticsHandler.RequestPhotoUpload)
			analyticsGroup.POST("/metrics/:metricId/photos", analyticsHandler.AttachPhoto)
			analyticsGroup.GET("/metrics/:metricId/photos/download-url", analyticsHandler.GetPhotoURL)
		}
	}
}
