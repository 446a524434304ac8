package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oatext/internal/service"
)

type updateEmailRequest struct {
	Email string `json:"email"`
}

type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// UserDetail 返回用户公开资料
func (a *API) UserDetail(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}
	profile, err := a.users.Detail(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

func (a *API) UpdateUserDetail(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req service.UserDetailUpdate
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	if _, err := a.users.UpdateDetail(c.Request.Context(), uid, req); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (a *API) UpdateUserEmail(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req updateEmailRequest
	if !bindJSON(c, &req, "invalid email payload") {
		return
	}
	if err := a.users.UpdateEmail(c.Request.Context(), uid, req.Email); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (a *API) UpdateUserPassword(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	var req updatePasswordRequest
	if !bindJSON(c, &req, "invalid password payload") {
		return
	}
	if err := a.users.UpdatePassword(c.Request.Context(), uid, req.OldPassword, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// DeleteUser 软删除当前用户
func (a *API) DeleteUser(c *gin.Context) {
	uid, ok := requireSelf(c, "userId")
	if !ok {
		return
	}
	if err := a.users.Delete(c.Request.Context(), uid); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (a *API) FollowUser(c *gin.Context) {
	a.setFollow(c, true)
}

func (a *API) UnfollowUser(c *gin.Context) {
	a.setFollow(c, false)
}

func (a *API) setFollow(c *gin.Context, follow bool) {
	uid, ok := requireSelf(c, "userId")
	if !ok {
		return
	}
	targetID, ok := idParam(c, "targetId")
	if !ok {
		return
	}

	var err error
	if follow {
		err = a.users.Follow(c.Request.Context(), uid, targetID)
	} else {
		err = a.users.Unfollow(c.Request.Context(), uid, targetID)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
