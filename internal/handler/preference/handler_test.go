package preference

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odinnomago/valhalla-notify/internal/repository/memory"
)

type recordingInvalidator struct {
	users []string
}

func (r *recordingInvalidator) InvalidatePrefs(userID string) {
	r.users = append(r.users, userID)
}

func newTestRouter(t *testing.T) (*gin.Engine, *recordingInvalidator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	inv := &recordingInvalidator{}
	r := gin.New()
	NewHandler(memory.NewPreferenceRepository(), inv).RegisterRoutes(r.Group("/api"))
	return r, inv
}

func doJSON(t *testing.T, r *gin.Engine, method, url string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, url, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return w, parsed
}

func TestGetReturnsDefaults(t *testing.T) {
	r, _ := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodGet, "/api/preferences?userId=u1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])

	prefs, ok := resp["preferences"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "u1", prefs["userId"])
	assert.Equal(t, true, prefs["pushNotifications"])
	assert.Equal(t, false, prefs["smsNotifications"])
	assert.Equal(t, "immediate", prefs["frequency"])
}

func TestGetMissingUserID(t *testing.T) {
	r, _ := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodGet, "/api/preferences", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "userId is required", resp["error"])
}

func TestUpdateRoundTrip(t *testing.T) {
	r, inv := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodPut, "/api/preferences", gin.H{
		"userId":             "u1",
		"pushNotifications":  true,
		"emailNotifications": false,
		"smsNotifications":   true,
		"categories":         gin.H{"booking": true, "payment": true},
		"quietHours":         gin.H{"enabled": true, "start": "23:00", "end": "07:00"},
		"frequency":          "daily",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, []string{"u1"}, inv.users, "delivery cache invalidated")

	w, resp = doJSON(t, r, http.MethodGet, "/api/preferences?userId=u1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	prefs := resp["preferences"].(map[string]interface{})
	assert.Equal(t, true, prefs["smsNotifications"])
	assert.Equal(t, false, prefs["emailNotifications"])
	assert.Equal(t, "daily", prefs["frequency"])

	quiet := prefs["quietHours"].(map[string]interface{})
	assert.Equal(t, true, quiet["enabled"])
	assert.Equal(t, "23:00", quiet["start"])
}

func TestUpdateMissingUserID(t *testing.T) {
	r, _ := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodPut, "/api/preferences", gin.H{
		"pushNotifications": true,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "userId is required", resp["error"])
}

func TestUpdateDefaultsFrequency(t *testing.T) {
	r, _ := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodPut, "/api/preferences", gin.H{"userId": "u1"})
	assert.Equal(t, http.StatusOK, w.Code)
	prefs := resp["preferences"].(map[string]interface{})
	assert.Equal(t, "immediate", prefs["frequency"])
}

func TestUpdateRejectsUnknownFrequency(t *testing.T) {
	r, _ := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodPut, "/api/preferences", gin.H{
		"userId":    "u1",
		"frequency": "fortnightly",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid frequency", resp["error"])
}

func TestUpdateValidatesQuietHours(t *testing.T) {
	r, _ := newTestRouter(t)

	bad := []gin.H{
		{"enabled": true, "start": "25:00", "end": "07:00"},
		{"enabled": true, "start": "22:00", "end": "7pm"},
		{"enabled": true, "start": "", "end": "07:00"},
	}
	for _, quiet := range bad {
		w, resp := doJSON(t, r, http.MethodPut, "/api/preferences", gin.H{
			"userId":     "u1",
			"quietHours": quiet,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, "quietHours %v", quiet)
		assert.Equal(t, "Invalid quiet hours", resp["error"], "quietHours %v", quiet)
	}

	// disabled windows are stored without bound validation
	w, _ := doJSON(t, r, http.MethodPut, "/api/preferences", gin.H{
		"userId":     "u1",
		"quietHours": gin.H{"enabled": false, "start": "25:00", "end": ""},
	})
	assert.Equal(t, http.StatusOK, w.Code)
}
