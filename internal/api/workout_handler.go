package api

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/service"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// WorkoutHandler logs workouts of the signed-in user.
type WorkoutHandler struct {
	workoutService service.WorkoutService
	notifier       Notifier
}

func NewWorkoutHandler(workoutService service.WorkoutService, notifier Notifier) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService, notifier: notifier}
}

type LogWorkoutRequest struct {
	Exercise string   `json:"exercise"`
	Sets     FreeText `json:"sets"`
	Reps     FreeText `json:"reps"`
	Calories FreeText `json:"calories"`
}

// LogWorkout godoc
// @Summary Log an exercise with sets, reps and calories burned
// @Tags Workouts
// @Accept json
// @Produce json
// @Param workout body LogWorkoutRequest true "Workout form"
// @Success 201 {object} domain.Workout
// @Failure 400 {object} gin.H "A field is missing or not a whole number"
// @Security BearerAuth
// @Router /workouts [post]
func (h *WorkoutHandler) LogWorkout(c *gin.Context) {
	sess, err := getSessionFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get session from token")
		return
	}

	var req LogWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	workout, err := h.workoutService.Log(c.Request.Context(), sess, domain.WorkoutInput{
		Exercise: req.Exercise,
		Sets:     string(req.Sets),
		Reps:     string(req.Reps),
		Calories: string(req.Calories),
	})
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ve.Message, "fields": ve.Fields})
			return
		}
		log.Printf("ERROR: failed to save workout for %s: %v", sess.Email, err)
		abortWithError(c, http.StatusServiceUnavailable, "Failed to save workout")
		return
	}

	h.notifier.Fire(sess.UserID, nil)
	c.JSON(http.StatusCreated, workout)
}

// GetRecentWorkouts godoc
// @Summary List the current user's workouts, newest first
// @Tags Workouts
// @Produce json
// @Param limit query int false "At most 10"
// @Success 200 {array} domain.Workout
// @Security BearerAuth
// @Router /workouts/recent [get]
func (h *WorkoutHandler) GetRecentWorkouts(c *gin.Context) {
	sess, err := getSessionFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get session from token")
		return
	}

	limit := service.RecentWorkoutsLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			abortWithError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}

	workouts, err := h.workoutService.Recent(c.Request.Context(), sess, limit)
	if err != nil {
		log.Printf("ERROR: failed to read workouts of %s: %v", sess.Email, err)
		abortWithError(c, http.StatusServiceUnavailable, "Failed to load workouts")
		return
	}
	c.JSON(http.StatusOK, workouts)
}
