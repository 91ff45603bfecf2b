package api

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/notify"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DeviceRegistrar turns a client's push token into a delivery target.
type DeviceRegistrar interface {
	RegisterDevice(ctx context.Context, userID, platform, token string) (*domain.Device, error)
}

type DeviceHandler struct {
	registrar DeviceRegistrar
}

func NewDeviceHandler(registrar DeviceRegistrar) *DeviceHandler {
	return &DeviceHandler{registrar: registrar}
}

type RegisterDeviceRequest struct {
	Platform string `json:"platform" binding:"required,oneof=android ios web"`
	Token    string `json:"token" binding:"required"`
}

// RegisterDevice godoc
// @Summary Register an FCM token for workout reminders
// @Tags Devices
// @Accept json
// @Produce json
// @Param device body RegisterDeviceRequest true "Device"
// @Success 201 {object} domain.Device
// @Failure 503 {object} gin.H "Push is not configured"
// @Security BearerAuth
// @Router /devices [post]
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	sess, err := getSessionFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get session from token")
		return
	}

	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	device, err := h.registrar.RegisterDevice(c.Request.Context(), sess.UserID, req.Platform, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, notify.ErrNotAvailable):
			abortWithError(c, http.StatusServiceUnavailable, "Push notifications are not configured")
		case errors.Is(err, notify.ErrUnknownPlatform):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("ERROR: device registration for %s failed: %v", sess.Email, err)
			abortWithError(c, http.StatusInternalServerError, "Failed to register device")
		}
		return
	}
	c.JSON(http.StatusCreated, device)
}
