package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Brownie44l1/agriml-api/internal/features"
	"github.com/Brownie44l1/agriml-api/internal/imaging"
	"github.com/Brownie44l1/agriml-api/internal/llm"
	"github.com/Brownie44l1/agriml-api/internal/model"
)

// errBadRequest marks malformed bodies and uploads.
var errBadRequest = errors.New("invalid request")

// statusFor maps an error to its HTTP status by kind.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, features.ErrUnknownCategory),
		errors.Is(err, features.ErrSchemaMismatch),
		errors.Is(err, features.ErrInvalidDate),
		errors.Is(err, imaging.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, llm.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	attrs := []any{
		slog.String("path", c.FullPath()),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	}
	if status >= http.StatusInternalServerError {
		h.deps.Logger.Error(msg, attrs...)
	} else {
		h.deps.Logger.Warn(msg, attrs...)
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error":   msg,
		"details": err.Error(),
	})
}
