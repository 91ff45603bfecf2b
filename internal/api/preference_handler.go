package api

import (
	"alcyxob/fitlog/internal/service"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PreferenceHandler serves the dark mode flag of an app instance. It is keyed
// by instance, not by user, and needs no token.
type PreferenceHandler struct {
	preferenceService service.PreferenceService
}

func NewPreferenceHandler(preferenceService service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{preferenceService: preferenceService}
}

type UpdatePreferenceRequest struct {
	DarkMode *bool `json:"darkMode" binding:"required"`
}

func (h *PreferenceHandler) GetPreference(c *gin.Context) {
	pref, err := h.preferenceService.Get(c.Request.Context(), c.Query("instanceId"))
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, pref)
}

func (h *PreferenceHandler) UpdatePreference(c *gin.Context) {
	var req UpdatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	pref, err := h.preferenceService.SetDarkMode(c.Request.Context(), c.Query("instanceId"), *req.DarkMode)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, pref)
}

func (h *PreferenceHandler) abort(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInstanceRequired) {
		abortWithError(c, http.StatusBadRequest, "instanceId query parameter is required")
		return
	}
	log.Printf("ERROR: preference store failed: %v", err)
	abortWithError(c, http.StatusServiceUnavailable, "Failed to access preferences")
}
