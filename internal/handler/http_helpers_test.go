package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"

	"github.com/oatext/internal/repository"
	"github.com/oatext/internal/service"
)

func TestRespondServiceErrorStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not found", err: pkgerrors.Wrap(repository.ErrNotFound, "user 3"), status: http.StatusNotFound},
		{name: "invalid path", err: repository.ErrInvalidPath, status: http.StatusBadRequest},
		{name: "validation", err: repository.ErrValidation, status: http.StatusBadRequest},
		{name: "conflict", err: service.ErrUsernameTaken, status: http.StatusConflict},
		{name: "credentials", err: service.ErrInvalidCredentials, status: http.StatusUnauthorized},
		{name: "session", err: service.ErrSessionNotFound, status: http.StatusUnauthorized},
		{name: "not author", err: service.ErrNotAuthor, status: http.StatusForbidden},
		{name: "not member", err: service.ErrNotMember, status: http.StatusForbidden},
		{name: "unknown", err: errors.New("disk on fire"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondServiceError(c, tt.err)

			if w.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestParseFieldList(t *testing.T) {
	got := parseFieldList(" title, ,author,")
	if len(got) != 2 || got[0] != "title" || got[1] != "author" {
		t.Fatalf("unexpected fields: %v", got)
	}
}
