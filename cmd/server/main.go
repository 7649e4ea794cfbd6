package main

import (
	"log"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"songlin/internal/config"
	"songlin/internal/db"
	"songlin/internal/middleware"
	"songlin/internal/router"
	"songlin/internal/services"
	"songlin/internal/store"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	cfg := config.FromEnv()

	// Initialize Database
	gdb, err := db.Init(config.Env("DATABASE_URL", ""))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	persister := db.NewPersister(gdb)

	// 回灌内存状态（内存是权威状态，数据库写穿）
	st := store.New(persister)
	items, profiles, userVotes, err := persister.LoadAll()
	if err != nil {
		log.Fatalf("Failed to load state: %v", err)
	}
	st.Load(items, profiles, userVotes)
	log.Printf("Loaded %d items, %d profiles", len(items), len(profiles))

	// 启动单写者服务
	forum := services.NewForum(st, cfg)

	// Initialize Gin
	r := gin.Default()

	// Setup Sessions
	secret := config.Env("SESSION_SECRET", "secret_key_change_me")
	sessionStore := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("songlin_session", sessionStore))

	// Middleware
	r.Use(middleware.LoadUser(forum))

	// Routes
	router.RegisterRoutes(r, forum)

	port := config.Env("PORT", "8080")
	log.Printf("SongLin server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
