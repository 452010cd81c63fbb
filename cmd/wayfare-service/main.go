package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/wayfareapp/wayfare-service/docs"
	"github.com/wayfareapp/wayfare-service/internal/cache"
	"github.com/wayfareapp/wayfare-service/internal/comments"
	"github.com/wayfareapp/wayfare-service/internal/config"
	"github.com/wayfareapp/wayfare-service/internal/events"
	adminHandlers "github.com/wayfareapp/wayfare-service/internal/http/handlers/admin"
	commentHandlers "github.com/wayfareapp/wayfare-service/internal/http/handlers/comments"
	mediaHandlers "github.com/wayfareapp/wayfare-service/internal/http/handlers/media"
	playbackHandlers "github.com/wayfareapp/wayfare-service/internal/http/handlers/playback"
	postHandlers "github.com/wayfareapp/wayfare-service/internal/http/handlers/posts"
	storyHandlers "github.com/wayfareapp/wayfare-service/internal/http/handlers/stories"
	userHandlers "github.com/wayfareapp/wayfare-service/internal/http/handlers/users"
	wsHandlers "github.com/wayfareapp/wayfare-service/internal/http/handlers/websocket"
	"github.com/wayfareapp/wayfare-service/internal/http/middleware"
	"github.com/wayfareapp/wayfare-service/internal/playback"
	mediaService "github.com/wayfareapp/wayfare-service/internal/services/media"
	"github.com/wayfareapp/wayfare-service/internal/storage/postgres"
	"github.com/wayfareapp/wayfare-service/internal/stories"
	"github.com/wayfareapp/wayfare-service/internal/websocket"
)

// @title Wayfare Service API
// @version 1.0
// @description Feed, stories, comments and playback backend for the Wayfare travel app
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load config
	cfg := config.MustLoad()

	if cfg.Env == "production" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})))
	}

	// database setup
	pg, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	// redis-backed cache in front of storage
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	slog.Info("Connected to Redis")

	store := cache.NewService(pg, redisClient)

	// real-time hub and event publisher
	hub := websocket.NewHub()
	go hub.Run()
	publisher := events.NewEventPublisher(hub)

	// domain services
	rail := stories.NewRail(store, cfg.DefaultAvatar, nil)
	commentSvc := comments.NewService(store, comments.DefaultTTL, nil)

	playbackManager := playback.NewManager()
	playbackCtx, stopPlayback := context.WithCancel(context.Background())
	defer stopPlayback()
	go playbackManager.Run(playbackCtx)

	media, err := mediaService.NewService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media service:", err)
	}
	mediaH := mediaHandlers.NewMediaHandlers(media)

	// middleware
	auth := middleware.AuthMiddleware(cfg.JWTSecret)
	rlc := middleware.NewRateLimitConfig(redisClient)
	requireAdmin := middleware.RequireAdmin(store)
	requireModerator := middleware.RequireModerator(store)

	authed := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}
	limited := func(action string, h http.HandlerFunc) http.Handler {
		return auth(rlc.RateLimitMiddleware(action)(h))
	}
	moderated := func(h http.HandlerFunc) http.Handler {
		return auth(requireModerator(h))
	}
	admined := func(h http.HandlerFunc) http.Handler {
		return auth(requireAdmin(h))
	}

	// setup server
	router := http.NewServeMux()

	router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// auth
	router.HandleFunc("POST /signup", userHandlers.SignUp(store))
	router.HandleFunc("POST /login", userHandlers.Login(store, cfg.JWTSecret))
	router.Handle("GET /me", authed(userHandlers.Me(store)))

	// stories
	router.Handle("GET /stories", authed(storyHandlers.Rail(store, rail)))
	router.Handle("POST /stories", limited("stories", storyHandlers.PostStory(store)))
	router.Handle("POST /stories/{id}/view", authed(storyHandlers.ViewStory(store, publisher)))
	router.Handle("POST /stories/{id}/like", limited("reactions", storyHandlers.LikeStory(store)))
	router.Handle("DELETE /stories/{id}", authed(storyHandlers.DeleteStory(store)))

	// posts and feed
	router.Handle("GET /posts", authed(postHandlers.Feed(store)))
	router.Handle("POST /posts", authed(postHandlers.CreatePost(store)))
	router.Handle("GET /posts/{id}", authed(postHandlers.GetPost(store)))
	router.Handle("POST /posts/{id}/like", limited("reactions", postHandlers.LikePost(store, publisher)))
	router.Handle("POST /posts/{id}/save", limited("reactions", postHandlers.SavePost(store, publisher)))
	router.Handle("DELETE /posts/{id}", authed(postHandlers.DeletePost(store)))
	router.Handle("GET /categories", authed(postHandlers.Categories(store)))

	// comments on posts or stories
	router.Handle("GET /content/{id}/comments", authed(commentHandlers.Thread(commentSvc)))
	router.Handle("POST /content/{id}/comments", limited("comments", commentHandlers.AddComment(commentSvc, publisher)))
	router.Handle("POST /content/{id}/comments/{comment_id}/replies", limited("comments", commentHandlers.AddReply(commentSvc)))
	router.Handle("PATCH /content/{id}/comments/{comment_id}", authed(commentHandlers.EditComment(commentSvc)))
	router.Handle("DELETE /content/{id}/comments/{comment_id}", authed(commentHandlers.DeleteComment(commentSvc)))
	router.Handle("POST /content/{id}/comments/{comment_id}/like", limited("reactions", commentHandlers.ToggleLike(commentSvc)))

	// story viewer playback sessions
	router.Handle("POST /playback/sessions", authed(playbackHandlers.OpenSession(store, playbackManager)))
	router.Handle("GET /playback/sessions/{id}", authed(playbackHandlers.SessionState(playbackManager)))
	router.Handle("POST /playback/sessions/{id}/events", authed(playbackHandlers.SessionEvent(playbackManager)))
	router.Handle("DELETE /playback/sessions/{id}", authed(playbackHandlers.CloseSession(playbackManager)))

	// media uploads; info/download/delete share the /media/ subtree
	router.Handle("POST /media/upload-url", authed(mediaH.GenerateUploadURL()))
	router.Handle("GET /media/", authed(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/info"):
			mediaH.GetMediaInfo()(w, r)
		case strings.HasSuffix(r.URL.Path, "/download-url"):
			mediaH.GenerateDownloadURL()(w, r)
		default:
			http.NotFound(w, r)
		}
	}))
	router.Handle("DELETE /media/", authed(mediaH.DeleteMedia()))

	// admin surface
	router.Handle("GET /admin/users", moderated(adminHandlers.ListUsers(store)))
	router.Handle("POST /admin/users/{id}/ban", admined(adminHandlers.BanUser(store)))
	router.Handle("POST /admin/users/{id}/unban", admined(adminHandlers.UnbanUser(store)))
	router.Handle("POST /admin/users/{id}/role", admined(adminHandlers.SetRole(store)))
	router.Handle("PATCH /admin/users/{id}/role", admined(adminHandlers.SetRole(store)))
	router.Handle("DELETE /admin/users/{id}", admined(adminHandlers.DeleteUser(store)))
	router.Handle("GET /admin/analytics/dashboard", moderated(adminHandlers.Dashboard(store)))
	router.Handle("GET /admin/logs", moderated(adminHandlers.Logs(store)))

	// real-time events
	router.HandleFunc("GET /ws", wsHandlers.WebSocketHandler(hub, cfg.JWTSecret))

	// API docs
	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: router,
	}

	log.Println("server started on", cfg.HTTPServer.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stopPlayback()

	err = server.Shutdown(ctx)
	if err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}
