package api

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/notify"
	"alcyxob/fitlog/internal/service"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Notifier fires the post-save reminder.
type Notifier interface {
	Fire(userID string, local notify.LocalSink)
}

// EntryHandler serves the fitness entries of the signed-in user.
type EntryHandler struct {
	entryService service.EntryService
	notifier     Notifier
}

func NewEntryHandler(entryService service.EntryService, notifier Notifier) *EntryHandler {
	return &EntryHandler{entryService: entryService, notifier: notifier}
}

// FreeText accepts a JSON string or number and keeps it as typed text, so
// "1200" and 1200 are both valid form input.
type FreeText string

func (f *FreeText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FreeText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected a string or a number, got %s", data)
	}
	*f = FreeText(n.String())
	return nil
}

type CreateEntryRequest struct {
	Steps       FreeText `json:"steps"`
	WaterIntake FreeText `json:"waterIntake"`
	Calories    FreeText `json:"calories"`
}

// CreateEntry godoc
// @Summary Record today's steps, water intake and calories
// @Tags Entries
// @Accept json
// @Produce json
// @Param entry body CreateEntryRequest true "Entry form"
// @Success 201 {object} domain.Entry
// @Failure 400 {object} gin.H "A field is missing or not a number"
// @Failure 503 {object} gin.H "The entry could not be saved"
// @Security BearerAuth
// @Router /entries [post]
func (h *EntryHandler) CreateEntry(c *gin.Context) {
	sess, err := getSessionFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get session from token")
		return
	}

	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	entry, err := h.entryService.Record(c.Request.Context(), sess, domain.EntryInput{
		Steps:       string(req.Steps),
		WaterIntake: string(req.WaterIntake),
		Calories:    string(req.Calories),
	})
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ve.Message, "fields": ve.Fields})
			return
		}
		log.Printf("ERROR: failed to save entry for %s: %v", sess.Email, err)
		abortWithError(c, http.StatusServiceUnavailable, "Failed to save entry")
		return
	}

	h.notifier.Fire(sess.UserID, nil)
	c.JSON(http.StatusCreated, entry)
}

// GetRecentEntries godoc
// @Summary List the newest entries, newest first
// @Tags Entries
// @Produce json
// @Param limit query int false "At most 5"
// @Success 200 {array} domain.Entry
// @Security BearerAuth
// @Router /entries/recent [get]
func (h *EntryHandler) GetRecentEntries(c *gin.Context) {
	sess, err := getSessionFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get session from token")
		return
	}

	limit := domain.RecentEntriesLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			abortWithError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}

	entries, err := h.entryService.Recent(c.Request.Context(), sess, limit)
	if err != nil {
		log.Printf("ERROR: failed to read recent entries: %v", err)
		abortWithError(c, http.StatusServiceUnavailable, "Failed to load entries")
		return
	}
	c.JSON(http.StatusOK, entries)
}
