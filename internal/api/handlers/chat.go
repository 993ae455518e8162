// backend/internal/api/handlers/chat.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/arogya-app/arogya/backend/internal/models"
	"github.com/arogya-app/arogya/backend/internal/services"
	"github.com/arogya-app/arogya/backend/pkg/utils"
)

const maxQueryLength = 2000

// ChatHandler exposes the assistant pipeline over HTTP. Authentication
// happens upstream; the authenticated user ID arrives in X-User-ID.
type ChatHandler struct {
	chatService    *services.ChatService
	summaryService *services.SummaryService
	summaryWorker  *services.SummaryWorker
	logger         *logrus.Logger
}

func NewChatHandler(
	chatService *services.ChatService,
	summaryService *services.SummaryService,
	summaryWorker *services.SummaryWorker,
	logger *logrus.Logger,
) *ChatHandler {
	return &ChatHandler{
		chatService:    chatService,
		summaryService: summaryService,
		summaryWorker:  summaryWorker,
		logger:         logger,
	}
}

// HandleChat processes one assistant turn
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid chat request")
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		utils.ErrorResponse(c, http.StatusBadRequest, "Query cannot be empty", nil)
		return
	}
	if len(req.Query) > maxQueryLength {
		utils.ErrorResponse(c, http.StatusBadRequest, "Query too long (max 2000 characters)", nil)
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"mode":    req.Mode,
	}).Info("Processing chat request")

	response, err := h.chatService.Ask(c.Request.Context(), userID, req)
	if err != nil {
		if errors.Is(err, services.ErrNotAuthorized) {
			utils.ErrorResponse(c, http.StatusForbidden, "Family member not found", nil)
			return
		}
		h.logger.WithError(err).Error("Chat turn failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Chat failed", nil)
		return
	}

	if response.Status == models.ChatStatusUnavailable {
		c.JSON(http.StatusServiceUnavailable, utils.APIResponse{
			Success: false,
			Message: "Assistant unavailable",
			Data:    response,
		})
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Chat completed", response)
}

// HandleSummarize generates (or serves the cached) summary for a record.
func (h *ChatHandler) HandleSummarize(c *gin.Context) {
	recordID, ok := h.recordID(c)
	if !ok {
		return
	}

	if c.Query("async") == "true" {
		job := h.summaryWorker.Enqueue(recordID)
		utils.SuccessResponse(c, http.StatusAccepted, "Summary generation scheduled", job)
		return
	}

	summary, err := h.summaryService.Summarize(c.Request.Context(), recordID)
	if err != nil {
		h.logger.WithError(err).WithField("record_id", recordID).Error("Summary generation failed")
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Summary is unavailable right now, please try again later", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Summary generated", gin.H{
		"record_id": recordID,
		"summary":   summary,
	})
}

// HandleSummaryJob returns the state of a background summary job.
func (h *ChatHandler) HandleSummaryJob(c *gin.Context) {
	job, ok := h.summaryWorker.Get(c.Param("job_id"))
	if !ok {
		utils.ErrorResponse(c, http.StatusNotFound, "Summary job not found", nil)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Summary job state", job)
}

func (h *ChatHandler) userID(c *gin.Context) (uint, bool) {
	raw := c.GetHeader("X-User-ID")
	if raw == "" {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Missing user identity", nil)
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid user identity", nil)
		return 0, false
	}
	return uint(id), true
}

func (h *ChatHandler) recordID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid record id", nil)
		return 0, false
	}
	return uint(id), true
}
