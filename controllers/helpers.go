package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"tutorbook-backend/config"
	"tutorbook-backend/services"
	"tutorbook-backend/utils"
)

const dateLayout = "2006-01-02"

func parseIDParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+label+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

func parseOptionalID(c *gin.Context, key, label string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+label+" ID format")
		return nil, false
	}
	return &id, true
}

// parseTime accepts RFC3339 timestamps or plain dates.
func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(dateLayout, raw, time.Local)
}

func parseTimeQuery(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := parseTime(raw)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+key+" date")
		return nil, false
	}
	return &t, true
}

// parseRange reads from/to query parameters, defaulting to the current month.
// A plain-date "to" covers the whole day.
func parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	from, to := utils.MonthRange(time.Now())
	to = to.Add(-time.Nanosecond)

	if raw := c.Query("from"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid from date")
			return from, to, false
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid to date")
			return from, to, false
		}
		if len(raw) == len(dateLayout) {
			t = utils.EndOfDay(t)
		}
		to = t
	}
	if to.Before(from) {
		utils.RespondWithError(c, http.StatusBadRequest, "to date is before from date")
		return from, to, false
	}
	return from, to, true
}

// respondServiceError maps service errors onto HTTP responses.
func respondServiceError(c *gin.Context, err error, action string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.RespondWithError(c, http.StatusBadRequest, verr.Message)
	case errors.Is(err, services.ErrNotFound):
		utils.RespondWithError(c, http.StatusNotFound, err.Error())
	default:
		config.Logger.Error(action,
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		utils.RespondWithError(c, http.StatusInternalServerError, action)
	}
}
