package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UploadImage 处理图片上传请求
func (a *API) UploadImage(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}

	// 获取上传的文件
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required", "success": 0})
		return
	}

	img, err := a.images.Save(c.Request.Context(), uid, file)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": 1,
		"message": "uploaded",
		"data": gin.H{
			"id":       img.ID,
			"filePath": img.URL,
			"url":      img.URL,
		},
	})
}

func (a *API) GetImage(c *gin.Context) {
	imageID, ok := idParam(c, "imageId")
	if !ok {
		return
	}
	img, err := a.images.Get(c.Request.Context(), imageID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": img})
}

func (a *API) DeleteImage(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		return
	}
	imageID, ok := idParam(c, "imageId")
	if !ok {
		return
	}
	if err := a.images.Delete(c.Request.Context(), imageID, uid); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
