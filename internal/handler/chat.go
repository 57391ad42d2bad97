package handler

import (
	"errors"
	"net/http"

	"assistant-client/internal/config"
	"assistant-client/internal/health"
	"assistant-client/internal/model"
	"assistant-client/internal/notify"
	"assistant-client/internal/render"
	"assistant-client/internal/service"
	"assistant-client/internal/storage"
	"assistant-client/pkg/logger"

	"github.com/gin-gonic/gin"
)

// sessionBadgeLen is how much of the session id the page shows.
const sessionBadgeLen = 8

type ChatHandler struct {
	chatService *service.ChatService
	checker     *health.Checker
	notifier    *notify.Center
	ui          config.UIConfig
}

func NewChatHandler(chatService *service.ChatService, checker *health.Checker, notifier *notify.Center, ui config.UIConfig) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		checker:     checker,
		notifier:    notifier,
		ui:          ui,
	}
}

type pageData struct {
	Title          string
	Messages       []*model.Message
	Stats          model.SessionStats
	AvgConfidence  string
	SessionBadge   string
	Status         health.Report
	QuickQuestions []string
	Notifications  []notify.Notification
	Busy           bool
}

// Index renders the chat page.
func (h *ChatHandler) Index(c *gin.Context) {
	messages, err := h.chatService.Transcript()
	if err != nil {
		logger.Errorf("Failed to load transcript: %v", err)
	}

	stats := h.chatService.Stats()
	data := pageData{
		Title:          h.ui.Title,
		Messages:       messages,
		Stats:          stats,
		AvgConfidence:  render.Percent(stats.AvgConfidence),
		Status:         h.checker.Check(c.Request.Context()),
		QuickQuestions: h.ui.QuickQuestions,
		Notifications:  h.notifier.Active(),
		Busy:           h.chatService.State() == service.StateAwaitingResponse,
	}
	if id, ok := h.chatService.SessionID(); ok {
		data.SessionBadge = sessionBadge(id)
	}

	c.HTML(http.StatusOK, "index.html", data)
}

// sessionBadge shortens id to its first sessionBadgeLen characters.
func sessionBadge(id string) string {
	r := []rune(id)
	if len(r) > sessionBadgeLen {
		return string(r[:sessionBadgeLen])
	}
	return id
}

// SubmitForm handles the page's form post and redirects back to the page.
func (h *ChatHandler) SubmitForm(c *gin.Context) {
	var req model.SubmitRequest
	if err := c.ShouldBind(&req); err != nil {
		logger.Warnf("Failed to bind form: %v", err)
	}

	if _, err := h.chatService.Submit(c.Request.Context(), req.Query); errors.Is(err, service.ErrBusy) {
		h.notifier.Push(notify.LevelInfo, "Your previous question is still being processed.")
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// Query is the JSON counterpart of SubmitForm.
func (h *ChatHandler) Query(c *gin.Context) {
	var req model.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.chatService.Submit(c.Request.Context(), req.Query)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"message": msg,
			"stats":   h.chatService.Stats(),
		})
	case errors.Is(err, service.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{
			"message": msg,
			"error":   service.MsgQueryFailed,
		})
	}
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	messages, err := h.chatService.Transcript()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"state":    h.chatService.State().String(),
	})
}

// GetMessage returns a single transcript entry.
func (h *ChatHandler) GetMessage(c *gin.Context) {
	msg, err := h.chatService.Message(c.Param("id"))
	if errors.Is(err, storage.ErrMessageNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *ChatHandler) ClearMessages(c *gin.Context) {
	n, err := h.chatService.ClearTranscript()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": n})
}

func (h *ChatHandler) GetStats(c *gin.Context) {
	stats := h.chatService.Stats()
	sessionID, _ := h.chatService.SessionID()

	c.JSON(http.StatusOK, gin.H{
		"stats":          stats,
		"avg_confidence": render.Percent(stats.AvgConfidence),
		"session_id":     sessionID,
	})
}

// GetStatus reports the subsystem tiers; ?refresh=1 skips the snapshot.
func (h *ChatHandler) GetStatus(c *gin.Context) {
	var report health.Report
	if c.Query("refresh") != "" {
		report = h.checker.Refresh(c.Request.Context())
	} else {
		report = h.checker.Check(c.Request.Context())
	}
	c.JSON(http.StatusOK, report)
}

func (h *ChatHandler) GetNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"notifications": h.notifier.Active(),
	})
}

func (h *ChatHandler) DismissNotification(c *gin.Context) {
	h.notifier.Dismiss(c.Param("id"))
	c.Status(http.StatusNoContent)
}
