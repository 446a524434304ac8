package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oatext/internal/model"
)

type replyRequest struct {
	ParentIDs model.Path `json:"parentIds"`
	UserID    *int64     `json:"userId"`
	Content   string     `json:"content"`
}

type commentReactRequest struct {
	Path model.Path `json:"path"`
	Like bool       `json:"like"`
}

// ReplyComment 在 parentIds 指定的位置追加回复，parentIds 首元素为文章 id
func (a *API) ReplyComment(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req replyRequest
	if !bindJSON(c, &req, "invalid reply payload") {
		return
	}
	if req.UserID != nil && *req.UserID != uid {
		respondError(c, http.StatusForbidden, "cannot act on behalf of another user")
		return
	}
	if len(req.ParentIDs) == 0 {
		respondError(c, http.StatusBadRequest, "parentIds is required")
		return
	}

	comment, err := a.comments.AddComment(c.Request.Context(), req.ParentIDs[0], req.ParentIDs, uid, req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

func (a *API) ReactComment(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req commentReactRequest
	if !bindJSON(c, &req, "invalid reaction payload") {
		return
	}
	comment, err := a.comments.React(c.Request.Context(), req.Path, uid, req.Like)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comment": comment})
}
