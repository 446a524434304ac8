package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type sendCodeRequest struct {
	Email string `json:"email"`
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (a *API) SendCode(c *gin.Context) {
	var req sendCodeRequest
	if !bindJSON(c, &req, "invalid email payload") {
		return
	}
	if err := a.verifications.SendCode(c.Request.Context(), req.Email); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (a *API) VerifyCode(c *gin.Context) {
	var req verifyCodeRequest
	if !bindJSON(c, &req, "invalid verification payload") {
		return
	}
	valid, err := a.verifications.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid})
}
