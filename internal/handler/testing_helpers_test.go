package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oatext/internal/model"
	"github.com/oatext/internal/repository"
	"github.com/oatext/internal/store"
)

func setupTestAPI(t *testing.T) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := repository.New(store.NewMemoryEngine(), nil)
	return NewAPI(repo, Options{UploadDir: t.TempDir(), UploadURL: "/static/uploads"})
}

func seedTestUser(t *testing.T, api *API, username string) int64 {
	t.Helper()
	user := model.NewUser(0, username, username+"@example.com", "hash", time.Now().UTC())
	id, err := api.repo.Create(context.Background(), user)
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return id
}

func seedTestArticle(t *testing.T, api *API, author int64, title string) int64 {
	t.Helper()
	article := model.NewArticle(0, model.ArticleFields{
		Author:   author,
		Title:    title,
		Content:  "content of " + title,
		Previous: model.NoChapter,
	}, time.Now().UTC())
	id, err := api.repo.Create(context.Background(), article)
	if err != nil {
		t.Fatalf("failed to seed article: %v", err)
	}
	return id
}

// newJSONContext builds a gin context for a JSON request. uid < 0 leaves the
// request unauthenticated.
func newJSONContext(method, target string, payload any, uid int64, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if payload != nil {
		json.NewEncoder(&body).Encode(payload)
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = params
	if uid >= 0 {
		c.Set(contextUserIDKey, uid)
	}
	return c, w
}

func param(key string, value int64) gin.Param {
	return gin.Param{Key: key, Value: strconv.FormatInt(value, 10)}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
}
