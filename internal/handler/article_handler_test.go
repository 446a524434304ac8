package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/oatext/internal/model"
)

func TestUploadArticleLinksPreviousChapter(t *testing.T) {
	api := setupTestAPI(t)
	author := seedTestUser(t, api, "writer")

	c, w := newJSONContext(http.MethodPost, "/v1/article/upload", gin.H{"title": "Part 1", "content": "first"}, author)
	api.UploadArticle(c)
	expectStatus(t, w, http.StatusCreated)

	var first struct {
		ArticleID int64         `json:"articleId"`
		Article   model.Article `json:"article"`
	}
	decodeBody(t, w, &first)
	if first.Article.Previous != model.NoChapter || first.Article.Next != model.NoChapter {
		t.Fatalf("expected unlinked chapter, got previous=%d next=%d", first.Article.Previous, first.Article.Next)
	}

	c, w = newJSONContext(http.MethodPost, "/v1/article/upload", gin.H{"title": "Part 2", "content": "second", "previous": first.ArticleID}, author)
	api.UploadArticle(c)
	expectStatus(t, w, http.StatusCreated)

	c, w = newJSONContext(http.MethodGet, "/v1/article/x/chapters", nil, -1, param("articleId", first.ArticleID))
	api.ArticleChapters(c)
	expectStatus(t, w, http.StatusOK)

	var chain struct {
		Chapters []struct {
			Title string `json:"title"`
		} `json:"chapters"`
	}
	decodeBody(t, w, &chain)
	if len(chain.Chapters) != 2 || chain.Chapters[1].Title != "Part 2" {
		t.Fatalf("unexpected chapter chain: %+v", chain.Chapters)
	}
}

func TestUploadArticleRequiresTitle(t *testing.T) {
	api := setupTestAPI(t)
	author := seedTestUser(t, api, "writer")

	c, w := newJSONContext(http.MethodPost, "/v1/article/upload", gin.H{"content": "body"}, author)
	api.UploadArticle(c)

	expectStatus(t, w, http.StatusBadRequest)
}

func TestUploadArticleUnauthenticated(t *testing.T) {
	api := setupTestAPI(t)

	c, w := newJSONContext(http.MethodPost, "/v1/article/upload", gin.H{"title": "t", "content": "c"}, -1)
	api.UploadArticle(c)

	expectStatus(t, w, http.StatusUnauthorized)
}

func TestUpdateArticleOnlyByAuthor(t *testing.T) {
	api := setupTestAPI(t)
	author := seedTestUser(t, api, "writer")
	other := seedTestUser(t, api, "other")
	articleID := seedTestArticle(t, api, author, "Draft")

	c, w := newJSONContext(http.MethodPut, "/v1/article/x/update", gin.H{"title": "Hijacked"}, other, param("articleId", articleID))
	api.UpdateArticle(c)
	expectStatus(t, w, http.StatusForbidden)

	c, w = newJSONContext(http.MethodPut, "/v1/article/x/update", gin.H{"title": "Final"}, author, param("articleId", articleID))
	api.UpdateArticle(c)
	expectStatus(t, w, http.StatusOK)

	var resp struct {
		Article model.Article `json:"article"`
	}
	decodeBody(t, w, &resp)
	if resp.Article.Title != "Final" || resp.Article.Content != "content of Draft" {
		t.Fatalf("unexpected article after update: %+v", resp.Article)
	}
}

func TestGetArticleNotFoundAndBadID(t *testing.T) {
	api := setupTestAPI(t)

	c, w := newJSONContext(http.MethodGet, "/v1/article/9", nil, -1, param("articleId", 9))
	api.GetArticle(c)
	expectStatus(t, w, http.StatusNotFound)

	c, w = newJSONContext(http.MethodGet, "/v1/article/abc", nil, -1, gin.Param{Key: "articleId", Value: "abc"})
	api.GetArticle(c)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestGetArticlePartial(t *testing.T) {
	api := setupTestAPI(t)
	author := seedTestUser(t, api, "writer")
	articleID := seedTestArticle(t, api, author, "Partial")

	c, w := newJSONContext(http.MethodGet, "/v1/article/x/partial?fields=title,author", nil, -1, param("articleId", articleID))
	api.GetArticlePartial(c)
	expectStatus(t, w, http.StatusOK)

	var resp struct {
		Article map[string]any `json:"article"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Article) != 2 || resp.Article["title"] != "Partial" {
		t.Fatalf("unexpected partial article: %+v", resp.Article)
	}

	c, w = newJSONContext(http.MethodGet, "/v1/article/x/partial", nil, -1, param("articleId", articleID))
	api.GetArticlePartial(c)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestRenderArticleSanitizesHTML(t *testing.T) {
	api := setupTestAPI(t)
	author := seedTestUser(t, api, "writer")

	c, w := newJSONContext(http.MethodPost, "/v1/article/upload", gin.H{
		"title":   "Markdown",
		"content": "# Heading\n\n<script>alert(1)</script>\n\n**bold**",
	}, author)
	api.UploadArticle(c)
	expectStatus(t, w, http.StatusCreated)
	var created struct {
		ArticleID int64 `json:"articleId"`
	}
	decodeBody(t, w, &created)

	c, w = newJSONContext(http.MethodGet, "/v1/article/x/render", nil, -1, param("articleId", created.ArticleID))
	api.RenderArticle(c)
	expectStatus(t, w, http.StatusOK)

	var resp struct {
		HTML string `json:"html"`
	}
	decodeBody(t, w, &resp)
	if !strings.Contains(resp.HTML, "<h1") || !strings.Contains(resp.HTML, "<strong>bold</strong>") {
		t.Fatalf("expected rendered markdown, got %q", resp.HTML)
	}
	if strings.Contains(resp.HTML, "<script>") {
		t.Fatalf("expected script to be stripped, got %q", resp.HTML)
	}
}

func TestReactAndBookmarkArticle(t *testing.T) {
	api := setupTestAPI(t)
	author := seedTestUser(t, api, "writer")
	reader := seedTestUser(t, api, "reader")
	articleID := seedTestArticle(t, api, author, "Liked")

	c, w := newJSONContext(http.MethodPost, "/v1/article/x/react", gin.H{"like": true}, reader, param("articleId", articleID))
	api.ReactArticle(c)
	expectStatus(t, w, http.StatusOK)
	var reactions struct {
		Likes []int64 `json:"likes"`
	}
	decodeBody(t, w, &reactions)
	if len(reactions.Likes) != 1 || reactions.Likes[0] != reader {
		t.Fatalf("unexpected likes: %v", reactions.Likes)
	}

	c, w = newJSONContext(http.MethodPost, "/v1/article/x/bookmark/y", nil, reader, param("articleId", articleID), param("userId", author))
	api.BookmarkArticle(c)
	expectStatus(t, w, http.StatusForbidden)

	c, w = newJSONContext(http.MethodPost, "/v1/article/x/bookmark/y", nil, reader, param("articleId", articleID), param("userId", reader))
	api.BookmarkArticle(c)
	expectStatus(t, w, http.StatusOK)
	var bookmark struct {
		Bookmarked bool `json:"bookmarked"`
	}
	decodeBody(t, w, &bookmark)
	if !bookmark.Bookmarked {
		t.Fatalf("expected article to be bookmarked")
	}
}

func TestDeleteArticleHidesIt(t *testing.T) {
	api := setupTestAPI(t)
	author := seedTestUser(t, api, "writer")
	articleID := seedTestArticle(t, api, author, "Gone")

	c, w := newJSONContext(http.MethodDelete, "/v1/article/x", nil, author, param("articleId", articleID))
	api.DeleteArticle(c)
	expectStatus(t, w, http.StatusOK)

	c, w = newJSONContext(http.MethodGet, "/v1/article/x", nil, -1, param("articleId", articleID))
	api.GetArticle(c)
	expectStatus(t, w, http.StatusNotFound)
}

func TestAnnotateArticleRange(t *testing.T) {
	api := setupTestAPI(t)
	author := seedTestUser(t, api, "writer")
	articleID := seedTestArticle(t, api, author, "Notes")

	c, w := newJSONContext(http.MethodPost, "/v1/article/x/annotation", gin.H{"start": 0, "end": 7, "content": "nice"}, author, param("articleId", articleID))
	api.AnnotateArticle(c)
	expectStatus(t, w, http.StatusCreated)

	c, w = newJSONContext(http.MethodPost, "/v1/article/x/annotation", gin.H{"start": 0, "end": 500, "content": "nice"}, author, param("articleId", articleID))
	api.AnnotateArticle(c)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestCommentArticleAndSearch(t *testing.T) {
	api := setupTestAPI(t)
	author := seedTestUser(t, api, "writer")
	reader := seedTestUser(t, api, "reader")
	articleID := seedTestArticle(t, api, author, "Gopher Tales")
	seedTestArticle(t, api, author, "Unrelated")

	c, w := newJSONContext(http.MethodPost, "/v1/article/x/comment", gin.H{"content": "great read"}, reader, param("articleId", articleID))
	api.CommentArticle(c)
	expectStatus(t, w, http.StatusCreated)

	var resp struct {
		Comment model.Comment `json:"comment"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Comment.Path) != 2 || resp.Comment.Path[0] != articleID || resp.Comment.Path[1] != 0 {
		t.Fatalf("unexpected comment path: %v", resp.Comment.Path)
	}

	c, w = newJSONContext(http.MethodGet, "/v1/search/gopher", nil, -1, gin.Param{Key: "searchTerm", Value: "gopher"})
	api.Search(c)
	expectStatus(t, w, http.StatusOK)

	var results struct {
		Results []struct {
			ID int64 `json:"id"`
		} `json:"results"`
	}
	decodeBody(t, w, &results)
	if len(results.Results) != 1 || results.Results[0].ID != articleID {
		t.Fatalf("unexpected search results: %+v", results.Results)
	}

	c, w = newJSONContext(http.MethodGet, "/v1/search/", nil, -1, gin.Param{Key: "searchTerm", Value: " "})
	api.Search(c)
	expectStatus(t, w, http.StatusBadRequest)
}
