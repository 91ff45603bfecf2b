package api

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/service"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GoalHandler serves the daily targets of the signed-in user.
type GoalHandler struct {
	goalService service.GoalService
}

func NewGoalHandler(goalService service.GoalService) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

type UpdateGoalRequest struct {
	Steps    *float64 `json:"steps" binding:"required"`
	Calories *float64 `json:"calories" binding:"required"`
	Water    *float64 `json:"water" binding:"required"`
}

// GetGoals godoc
// @Summary Get the daily goals of the current user
// @Tags Goals
// @Produce json
// @Success 200 {object} domain.Goal
// @Security BearerAuth
// @Router /goals [get]
func (h *GoalHandler) GetGoals(c *gin.Context) {
	sess, err := getSessionFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get session from token")
		return
	}
	goal, err := h.goalService.Get(c.Request.Context(), sess)
	if err != nil {
		log.Printf("ERROR: failed to read goals of %s: %v", sess.Email, err)
		abortWithError(c, http.StatusServiceUnavailable, "Failed to load goals")
		return
	}
	c.JSON(http.StatusOK, goal)
}

// UpdateGoals godoc
// @Summary Replace the daily goals of the current user
// @Tags Goals
// @Accept json
// @Produce json
// @Param goals body UpdateGoalRequest true "Steps, calories and water targets"
// @Success 200 {object} domain.Goal
// @Failure 400 {object} gin.H "A target is missing or negative"
// @Security BearerAuth
// @Router /goals [put]
func (h *GoalHandler) UpdateGoals(c *gin.Context) {
	sess, err := getSessionFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get session from token")
		return
	}

	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	goal, err := h.goalService.Update(c.Request.Context(), sess, service.GoalInput{
		Steps:    *req.Steps,
		Calories: *req.Calories,
		Water:    *req.Water,
	})
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ve.Message, "fields": ve.Fields})
			return
		}
		log.Printf("ERROR: failed to save goals of %s: %v", sess.Email, err)
		abortWithError(c, http.StatusServiceUnavailable, "Failed to save goals")
		return
	}
	c.JSON(http.StatusOK, goal)
}
