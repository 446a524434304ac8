package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionName      = "oatext_session"
	sessionUserKey   = "uid"
	sessionIDKey     = "sid"
	contextUserIDKey = "oatext_uid"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionName is the cookie name used by the session middleware.
func SessionName() string {
	return sessionName
}

// Signup 注册新用户
func (a *API) Signup(c *gin.Context) {
	var req signupRequest
	if !bindJSON(c, &req, "invalid signup payload") {
		return
	}
	id, err := a.users.Signup(c.Request.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"userId": id})
}

// Signin 校验密码，开启会话并写入 cookie
func (a *API) Signin(c *gin.Context) {
	var req signinRequest
	if !bindJSON(c, &req, "invalid signin payload") {
		return
	}
	result, err := a.users.Signin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, result.UserID)
	session.Set(sessionIDKey, result.SessionID)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Signout 关闭当前会话并清空 cookie
func (a *API) Signout(c *gin.Context) {
	session := sessions.Default(c)
	uid, uidOK := session.Get(sessionUserKey).(int64)
	sid, sidOK := session.Get(sessionIDKey).(int64)
	if !uidOK || !sidOK {
		respondError(c, http.StatusUnauthorized, "not signed in")
		return
	}

	if err := a.users.Signout(c.Request.Context(), uid, sid); err != nil {
		respondServiceError(c, err)
		return
	}
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{})
}

// SessionRequired 是会话认证中间件，校验 cookie 中的会话仍然有效。
func (a *API) SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		uid, uidOK := session.Get(sessionUserKey).(int64)
		sid, sidOK := session.Get(sessionIDKey).(int64)
		if !uidOK || !sidOK {
			respondError(c, http.StatusUnauthorized, "not signed in")
			c.Abort()
			return
		}
		if err := a.sessions.Validate(c.Request.Context(), uid, sid); err != nil {
			respondError(c, http.StatusUnauthorized, "session expired")
			c.Abort()
			return
		}
		c.Set(contextUserIDKey, uid)
		c.Next()
	}
}

// currentUserID returns the user authenticated by SessionRequired.
func currentUserID(c *gin.Context) (int64, bool) {
	value, exists := c.Get(contextUserIDKey)
	if !exists {
		respondError(c, http.StatusUnauthorized, "not signed in")
		return 0, false
	}
	uid, ok := value.(int64)
	if !ok {
		respondError(c, http.StatusUnauthorized, "not signed in")
		return 0, false
	}
	return uid, true
}

// requireSelf checks that the path user is the signed in user.
func requireSelf(c *gin.Context, key string) (int64, bool) {
	uid, ok := currentUserID(c)
	if !ok {
		return 0, false
	}
	target, ok := idParam(c, key)
	if !ok {
		return 0, false
	}
	if target != uid {
		respondError(c, http.StatusForbidden, "cannot act on behalf of another user")
		return 0, false
	}
	return uid, true
}
