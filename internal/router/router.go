package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"songlin/internal/handlers"
	"songlin/internal/middleware"
	"songlin/internal/services"
)

func RegisterRoutes(r *gin.Engine, forum *services.Forum) {
	// Handlers
	authHandler := handlers.NewAuthHandler(forum)
	storyHandler := handlers.NewStoryHandler(forum)
	voteHandler := handlers.NewVoteHandler(forum)
	userHandler := handlers.NewUserHandler(forum)
	adminHandler := handlers.NewAdminHandler(forum)

	// 公共路由 (Public Routes)
	r.GET("/", storyHandler.ListTop)        // 首页 - 排名降序
	r.GET("/item/:id", storyHandler.Detail) // 条目详情 + 评论树
	r.GET("/u/:id", userHandler.Profile)    // 用户主页

	r.POST("/signup", authHandler.Register) // 注册
	r.POST("/login", authHandler.Login)     // 登录
	r.POST("/logout", authHandler.Logout)   // 退出登录

	// 受保护路由 (Protected Routes)，写操作带按 IP 限流
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	authorized.Use(middleware.RateLimit(2*time.Second, 5))
	{
		authorized.POST("/submit", storyHandler.Create)                  // 提交 story/poll
		authorized.POST("/poll", storyHandler.Create)                    // poll 提交别名
		authorized.POST("/item/:id/comment", storyHandler.CreateComment) // 发表评论
		authorized.POST("/vote/:id", voteHandler.Vote)                   // 投票 (dir=up|down)
		authorized.POST("/flag/:id", voteHandler.Flag)                   // 举报
		authorized.POST("/settings", userHandler.UpdateSettings)         // 更新设置
	}

	// 管理路由 (Admin Routes)
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired())
	{
		admin.POST("/kill/:id", adminHandler.Kill)         // 置 dead
		admin.POST("/unkill/:id", adminHandler.Unkill)     // 恢复
		admin.POST("/user/:id", adminHandler.ModerateUser) // 调整降权/封禁
	}
}
