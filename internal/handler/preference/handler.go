package preference

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/odinnomago/valhalla-notify/internal/model"
	"github.com/odinnomago/valhalla-notify/internal/repository"
	"github.com/odinnomago/valhalla-notify/pkg/httputil"
)

var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Invalidator is notified after a preference write so cached copies on
// the delivery path do not outlive the update.
type Invalidator interface {
	InvalidatePrefs(userID string)
}

type Handler struct {
	repo        repository.PreferenceRepository
	invalidator Invalidator
	validate    *validator.Validate
}

func NewHandler(repo repository.PreferenceRepository, invalidator Invalidator) *Handler {
	v := validator.New()
	v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmmPattern.MatchString(fl.Field().String())
	})
	return &Handler{
		repo:        repo,
		invalidator: invalidator,
		validate:    v,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/preferences", h.get)
	r.PUT("/preferences", h.update)
}

func (h *Handler) get(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		httputil.RespondError(c, http.StatusBadRequest, "userId is required")
		return
	}

	prefs, err := h.repo.Get(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondAppError(c, err)
		return
	}
	httputil.Respond(c, true, gin.H{"preferences": prefs})
}

func (h *Handler) update(c *gin.Context) {
	var prefs model.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if prefs.UserID == "" {
		httputil.RespondError(c, http.StatusBadRequest, "userId is required")
		return
	}

	if prefs.Frequency == "" {
		prefs.Frequency = model.FrequencyImmediate
	}
	if _, err := model.ParseFrequency(string(prefs.Frequency)); err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "Invalid frequency")
		return
	}
	if prefs.QuietHours.Enabled {
		if err := h.validate.Struct(prefs.QuietHours); err != nil {
			httputil.RespondError(c, http.StatusBadRequest, "Invalid quiet hours")
			return
		}
		if prefs.QuietHours.Start == "" || prefs.QuietHours.End == "" {
			httputil.RespondError(c, http.StatusBadRequest, "Invalid quiet hours")
			return
		}
	}

	if err := h.repo.Upsert(c.Request.Context(), &prefs); err != nil {
		httputil.RespondAppError(c, err)
		return
	}
	if h.invalidator != nil {
		h.invalidator.InvalidatePrefs(prefs.UserID)
	}

	httputil.Respond(c, true, gin.H{"preferences": prefs})
}
