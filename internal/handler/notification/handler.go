package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/odinnomago/valhalla-notify/internal/model"
	notificationService "github.com/odinnomago/valhalla-notify/internal/service/notification"
	"github.com/odinnomago/valhalla-notify/pkg/httputil"
)

// Handler exposes the notification wire API. Mutations go through
// POST /notifications?action=<command>; the action string is resolved
// against the command table exactly once, here at the boundary, and
// anything outside the table is a 400.
type Handler struct {
	service  notificationService.Service
	commands map[string]gin.HandlerFunc
}

func NewHandler(service notificationService.Service) *Handler {
	h := &Handler{service: service}
	h.commands = map[string]gin.HandlerFunc{
		"create":        h.create,
		"mark_read":     h.markRead,
		"mark_all_read": h.markAllRead,
		"delete":        h.delete,
		"action":        h.processAction,
	}
	return h
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/notifications", h.dispatch)
	r.GET("/notifications", h.query)
}

func (h *Handler) dispatch(c *gin.Context) {
	cmd, ok := h.commands[c.Query("action")]
	if !ok {
		httputil.RespondError(c, http.StatusBadRequest, "Invalid action")
		return
	}
	cmd(c)
}

type createRequest struct {
	UserID string                 `json:"userId" binding:"required"`
	Type   string                 `json:"type" binding:"required"`
	Data   map[string]interface{} `json:"data"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	t, err := model.ParseType(req.Type)
	if err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "Invalid notification type")
		return
	}

	n, err := h.service.Create(c.Request.Context(), req.UserID, t, req.Data)
	if err != nil {
		httputil.RespondAppError(c, err)
		return
	}

	httputil.Respond(c, true, gin.H{"notification": n})
}

type markReadRequest struct {
	UserID         string `json:"userId" binding:"required"`
	NotificationID string `json:"notificationId" binding:"required"`
}

func (h *Handler) markRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	ok, err := h.service.MarkRead(c.Request.Context(), req.UserID, req.NotificationID)
	if err != nil {
		httputil.RespondAppError(c, err)
		return
	}

	// Not-found is a normal outcome, reported through the success flag.
	httputil.Respond(c, ok, nil)
}

type markAllReadRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *Handler) markAllRead(c *gin.Context) {
	var req markAllReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	count, err := h.service.MarkAllRead(c.Request.Context(), req.UserID)
	if err != nil {
		httputil.RespondAppError(c, err)
		return
	}

	httputil.Respond(c, true, gin.H{"count": count})
}

func (h *Handler) delete(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	ok, err := h.service.Delete(c.Request.Context(), req.UserID, req.NotificationID)
	if err != nil {
		httputil.RespondAppError(c, err)
		return
	}

	httputil.Respond(c, ok, nil)
}

type actionRequest struct {
	NotificationID string                 `json:"notificationId" binding:"required"`
	Action         string                 `json:"action" binding:"required"`
	Data           map[string]interface{} `json:"data"`
}

func (h *Handler) processAction(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	message, err := h.service.ProcessAction(c.Request.Context(), req.NotificationID, req.Action, req.Data)
	if err != nil {
		httputil.RespondAppError(c, err)
		return
	}

	httputil.Respond(c, true, gin.H{"message": message})
}

func (h *Handler) query(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		httputil.RespondError(c, http.StatusBadRequest, "userId is required")
		return
	}

	switch c.DefaultQuery("action", "list") {
	case "list":
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				httputil.RespondError(c, http.StatusBadRequest, "Invalid limit")
				return
			}
			limit = parsed
		}

		notifications, unread, err := h.service.List(c.Request.Context(), userID, limit)
		if err != nil {
			httputil.RespondAppError(c, err)
			return
		}
		if notifications == nil {
			notifications = []*model.Notification{}
		}
		httputil.Respond(c, true, gin.H{
			"notifications": notifications,
			"unreadCount":   unread,
		})
	case "unread_count":
		count, err := h.service.UnreadCount(c.Request.Context(), userID)
		if err != nil {
			httputil.RespondAppError(c, err)
			return
		}
		httputil.Respond(c, true, gin.H{"count": count})
	default:
		httputil.RespondError(c, http.StatusBadRequest, "Invalid action")
	}
}
