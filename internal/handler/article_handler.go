package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oatext/internal/model"
	"github.com/oatext/internal/service"
)

type uploadArticleRequest struct {
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Content  string   `json:"content"`
	Previous *int64   `json:"previous"`
	Price    float64  `json:"price"`
	Long     bool     `json:"long"`
	Tags     []string `json:"tags"`
}

type reactRequest struct {
	Like bool `json:"like"`
}

type annotationRequest struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Content string `json:"content"`
}

type commentRequest struct {
	Content string `json:"content"`
}

// UploadArticle 发布新文章（章节）
func (a *API) UploadArticle(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req uploadArticleRequest
	if !bindJSON(c, &req, "invalid article payload") {
		return
	}

	previous := model.NoChapter
	if req.Previous != nil {
		previous = *req.Previous
	}
	article, err := a.articles.Upload(c.Request.Context(), model.ArticleFields{
		Author:   uid,
		Title:    req.Title,
		Summary:  req.Summary,
		Content:  req.Content,
		Previous: previous,
		Price:    req.Price,
		Long:     req.Long,
		Tags:     req.Tags,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"articleId": article.ID, "article": article})
}

func (a *API) UpdateArticle(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	articleID, ok := idParam(c, "articleId")
	if !ok {
		return
	}
	var req service.ArticleUpdate
	if !bindJSON(c, &req, "invalid article payload") {
		return
	}
	article, err := a.articles.Update(c.Request.Context(), articleID, uid, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

func (a *API) GetArticle(c *gin.Context) {
	articleID, ok := idParam(c, "articleId")
	if !ok {
		return
	}
	article, err := a.articles.Get(c.Request.Context(), articleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

// GetArticlePartial 只返回 fields 查询参数中列出的字段
func (a *API) GetArticlePartial(c *gin.Context) {
	articleID, ok := idParam(c, "articleId")
	if !ok {
		return
	}
	fields := parseFieldList(c.Query("fields"))
	if len(fields) == 0 {
		respondError(c, http.StatusBadRequest, "fields is required")
		return
	}
	partial, err := a.articles.GetPartial(c.Request.Context(), articleID, fields...)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": partial})
}

func (a *API) RenderArticle(c *gin.Context) {
	articleID, ok := idParam(c, "articleId")
	if !ok {
		return
	}
	html, err := a.articles.Render(c.Request.Context(), articleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"html": html})
}

func (a *API) ArticleChapters(c *gin.Context) {
	articleID, ok := idParam(c, "articleId")
	if !ok {
		return
	}
	chain, err := a.articles.Chapters(c.Request.Context(), articleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chapters": chain})
}

func (a *API) DeleteArticle(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	articleID, ok := idParam(c, "articleId")
	if !ok {
		return
	}
	if err := a.articles.Delete(c.Request.Context(), articleID, uid); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (a *API) ReactArticle(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	articleID, ok := idParam(c, "articleId")
	if !ok {
		return
	}
	var req reactRequest
	if !bindJSON(c, &req, "invalid reaction payload") {
		return
	}
	article, err := a.articles.React(c.Request.Context(), articleID, uid, req.Like)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": article.Likes, "dislikes": article.Dislikes})
}

func (a *API) BookmarkArticle(c *gin.Context) {
	uid, ok := requireSelf(c, "userId")
	if !ok {
		return
	}
	articleID, ok := idParam(c, "articleId")
	if !ok {
		return
	}
	bookmarked, err := a.articles.Bookmark(c.Request.Context(), articleID, uid)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarked": bookmarked})
}

func (a *API) AnnotateArticle(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	articleID, ok := idParam(c, "articleId")
	if !ok {
		return
	}
	var req annotationRequest
	if !bindJSON(c, &req, "invalid annotation payload") {
		return
	}
	annotation, err := a.articles.Annotate(c.Request.Context(), articleID, uid, req.Start, req.End, req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"annotation": annotation})
}

// CommentArticle 在文章下发表顶层评论
func (a *API) CommentArticle(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	articleID, ok := idParam(c, "articleId")
	if !ok {
		return
	}
	var req commentRequest
	if !bindJSON(c, &req, "invalid comment payload") {
		return
	}
	comment, err := a.comments.AddComment(c.Request.Context(), articleID, model.Path{articleID}, uid, req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// Search 按关键字检索文章
func (a *API) Search(c *gin.Context) {
	articles, err := a.articles.Search(c.Request.Context(), c.Param("searchTerm"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	results := make([]gin.H, 0, len(articles))
	for _, article := range articles {
		results = append(results, gin.H{
			"id":         article.ID,
			"title":      article.Title,
			"summary":    article.Summary,
			"author":     article.Author,
			"createTime": article.CreateTime,
		})
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
