// controllers/srv.go
package controllers

import (
	"dive_center_rental/app"
	"dive_center_rental/db"
	"dive_center_rental/models"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Srv struct {
	Repo *db.Repo
	Log  *zap.Logger
	now  func() time.Time
}

func GetSrv(a *app.App) *Srv {
	return &Srv{Repo: a.Repo, Log: a.Log, now: time.Now}
}

// --- helpers ---

// errorKind maps a repository error to its HTTP status and kind.
func errorKind(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrInsufficientAvailability):
		return http.StatusConflict, "insufficient_availability"
	case errors.Is(err, models.ErrItemUnavailable):
		return http.StatusConflict, "item_unavailable"
	case errors.Is(err, models.ErrInvalidStateTransition):
		return http.StatusUnprocessableEntity, "invalid_state_transition"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// fail writes the structured error body. Storage errors are logged and
// their text is not echoed back.
func (s *Srv) fail(c *gin.Context, err error) {
	status, kind := errorKind(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		msg = "internal error"
	}
	c.JSON(status, app.H{"error": kind, "message": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, app.H{"error": "invalid_input", "message": msg})
}

// parseDay reads a YYYY-MM-DD (or RFC3339) field. Empty yields nil.
func parseDay(field, v string) (*time.Time, error) {
	if strings.TrimSpace(v) == "" {
		return nil, nil
	}
	t, err := models.ParseDay(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", models.ErrInvalidInput, field)
	}
	return &t, nil
}

func requireDay(field, v string) (time.Time, error) {
	t, err := parseDay(field, v)
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return time.Time{}, fmt.Errorf("%w: %s is required", models.ErrInvalidInput, field)
	}
	return *t, nil
}

// dayOrToday falls back to the current day when the field is empty.
func (s *Srv) dayOrToday(field, v string) (time.Time, error) {
	t, err := parseDay(field, v)
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return models.Day(s.now()), nil
	}
	return *t, nil
}
