package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oatext/internal/logging"
	"github.com/oatext/internal/repository"
	"github.com/oatext/internal/service"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondServiceError 将服务层错误映射为 HTTP 状态码。
func respondServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrSessionNotFound):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrNotAuthor), errors.Is(err, service.ErrImageNotOwned), errors.Is(err, service.ErrNotMember):
		status = http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrInvalidPath), errors.Is(err, repository.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logging.Log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		respondError(c, status, "internal server error")
		return
	}
	respondError(c, status, err.Error())
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseIDParam(c *gin.Context, key string) (int64, error) {
	raw := c.Param(key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return id, nil
}

// idParam parses a path id and answers 400 itself when it is malformed.
func idParam(c *gin.Context, key string) (int64, bool) {
	id, err := parseIDParam(c, key)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

func parseFieldList(raw string) []string {
	fields := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		fields = append(fields, trimmed)
	}
	return fields
}
