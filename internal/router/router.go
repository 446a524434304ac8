package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/oatext/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret, uploadDir, uploadURLPath string, corsOrigins []string) *gin.Engine {
	r := gin.Default()
	r.Use(corsMiddleware(corsOrigins))

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 30 * 24 * 3600, HttpOnly: true})
	r.Use(sessions.Sessions(handler.SessionName(), store))

	// 上传文件服务
	if uploadDir != "" && uploadURLPath != "" {
		r.Static(uploadURLPath, uploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	v1 := r.Group("/v1")
	{
		v1.POST("/signup", api.Signup)
		v1.POST("/signin", api.Signin)
		v1.POST("/signout", api.Signout)
		v1.POST("/sendCode", api.SendCode)
		v1.POST("/verifyCode", api.VerifyCode)

		v1.GET("/user/:userId", api.UserDetail)
		v1.GET("/article/:articleId", api.GetArticle)
		v1.GET("/article/:articleId/render", api.RenderArticle)
		v1.GET("/article/:articleId/chapters", api.ArticleChapters)
		v1.GET("/article/:articleId/partial", api.GetArticlePartial)
		v1.GET("/search/:searchTerm", api.Search)
		v1.POST("/search/:searchTerm", api.Search)
		v1.GET("/image/:imageId", api.GetImage)

		// 需要登录的路由
		auth := v1.Group("")
		auth.Use(api.SessionRequired())
		{
			auth.PUT("/user/update", api.UpdateUserDetail)
			auth.PUT("/user/email", api.UpdateUserEmail)
			auth.PUT("/user/password", api.UpdateUserPassword)
			auth.DELETE("/user/:userId/delete", api.DeleteUser)
			auth.POST("/user/:userId/follow/:targetId", api.FollowUser)
			auth.DELETE("/user/:userId/follow/:targetId", api.UnfollowUser)

			auth.POST("/article/upload", api.UploadArticle)
			auth.PUT("/article/:articleId/update", api.UpdateArticle)
			auth.DELETE("/article/:articleId", api.DeleteArticle)
			auth.POST("/article/:articleId/comment", api.CommentArticle)
			auth.POST("/article/:articleId/react", api.ReactArticle)
			auth.POST("/article/:articleId/bookmark/:userId", api.BookmarkArticle)
			auth.POST("/article/:articleId/annotation", api.AnnotateArticle)

			auth.POST("/comment/reply", api.ReplyComment)
			auth.POST("/comment/react", api.ReactComment)

			auth.POST("/room", api.CreateRoom)
			auth.GET("/room/:roomId", api.GetRoom)
			auth.POST("/room/:roomId/message", api.SendMessage)
			auth.PUT("/room/:roomId/nickname", api.ChangeNickname)
			auth.POST("/room/:roomId/join", api.JoinRoom)
			auth.POST("/room/:roomId/leave", api.LeaveRoom)

			auth.POST("/image", api.UploadImage)
			auth.DELETE("/image/:imageId", api.DeleteImage)
		}
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
