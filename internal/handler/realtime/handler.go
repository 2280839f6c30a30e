package realtime

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/odinnomago/valhalla-notify/internal/realtime"
	"github.com/odinnomago/valhalla-notify/pkg/auth"
	"github.com/odinnomago/valhalla-notify/pkg/httputil"
)

type Handler struct {
	hub      *realtime.Hub
	jwt      auth.JWTService
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewHandler(hub *realtime.Hub, jwt auth.JWTService, logger zerolog.Logger) *Handler {
	return &Handler{
		hub: hub,
		jwt: jwt,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from the web app's origin; the
			// connect token is the authentication boundary.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/notifications/ws", h.connect)
}

// connect upgrades GET /notifications/ws?token=<jwt> into a realtime
// push channel. The server only ever pushes; inbound frames are
// discarded.
func (h *Handler) connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		httputil.RespondError(c, http.StatusUnauthorized, "token is required")
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		httputil.RespondError(c, http.StatusUnauthorized, "invalid token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		h.logger.Warn().Err(err).Str("user_id", claims.UserID).Msg("websocket upgrade failed")
		return
	}

	client := realtime.NewClient(claims.UserID, conn, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	client.ReadPump(h.hub.Unregister)
}
