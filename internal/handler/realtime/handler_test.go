package realtime

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odinnomago/valhalla-notify/internal/model"
	realtimehub "github.com/odinnomago/valhalla-notify/internal/realtime"
	"github.com/odinnomago/valhalla-notify/pkg/auth"
	"github.com/odinnomago/valhalla-notify/pkg/metrics"
)

func newTestServer(t *testing.T) (*httptest.Server, *realtimehub.Hub, auth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := realtimehub.NewHub(zerolog.New(io.Discard), metrics.NewTestMetrics())
	jwtSvc := auth.NewJWTService("test-secret")

	r := gin.New()
	NewHandler(hub, jwtSvc, zerolog.New(io.Discard)).RegisterRoutes(r.Group("/api"))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub, jwtSvc
}

func wsURL(srv *httptest.Server, token string) string {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notifications/ws"
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func TestConnectRequiresToken(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/notifications/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestConnectRejectsInvalidToken(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/notifications/ws?token=garbage")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestConnectAndReceiveNotification(t *testing.T) {
	srv, hub, jwtSvc := newTestServer(t)

	token, err := jwtSvc.GenerateToken("u1", time.Minute)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("u1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Publish("u1", &model.Notification{
		ID:     "n1",
		UserID: "u1",
		Type:   model.TypeNewFollower,
		Title:  "Novo Seguidor",
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var env realtimehub.Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, "notification", env.Type)
	assert.Equal(t, "n1", env.Data.ID)
}

func TestDisconnectCleansUpRegistry(t *testing.T) {
	srv, hub, jwtSvc := newTestServer(t)

	token, err := jwtSvc.GenerateToken("u1", time.Minute)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("u1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("u1") == 0
	}, 2*time.Second, 10*time.Millisecond)
}
