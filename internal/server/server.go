// Package server assembles the HTTP API: sessions, services, handlers and
// routes.
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yukikurage/oppuss/internal/config"
	"github.com/yukikurage/oppuss/internal/constants"
	"github.com/yukikurage/oppuss/internal/handlers"
	"github.com/yukikurage/oppuss/internal/imaging"
	"github.com/yukikurage/oppuss/internal/logging"
	"github.com/yukikurage/oppuss/internal/metrics"
	"github.com/yukikurage/oppuss/internal/middleware"
	"github.com/yukikurage/oppuss/internal/repository"
	"github.com/yukikurage/oppuss/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options carries the collaborators that differ between production and tests.
// Zero values are filled from the config.
type Options struct {
	SessionStore sessions.Store
	Suggester    services.TaskSuggester
	Registry     *prometheus.Registry
	Pipeline     *imaging.Pipeline
}

// NewSessionStore builds the session backend named by cfg.SessionStore.
func NewSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.SessionStore {
	case "redis":
		redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
		rs, err := redisStore.NewStore(
			10,        // Redis pool size
			"tcp",     // network type
			redisAddr, // Redis address from config
			"",        // username (empty for default user)
			"",        // password (empty = no password)
			[]byte(cfg.SessionSecret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}
		store = rs
	case "cookie", "":
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}

	isProduction := cfg.GinMode == gin.ReleaseMode
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// SetupRouter wires services and handlers over db and returns the engine.
func SetupRouter(cfg *config.Config, db *gorm.DB, log *zap.Logger, opts Options) (*gin.Engine, error) {
	log = logging.OrNop(log)

	if opts.SessionStore == nil {
		store, err := NewSessionStore(cfg)
		if err != nil {
			return nil, err
		}
		opts.SessionStore = store
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Suggester == nil && cfg.OpenAIAPIKey != "" {
		opts.Suggester = services.NewAIService(cfg.OpenAIAPIKey)
	}

	m, err := metrics.New(opts.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	profile, err := imaging.ProfileByName(cfg.ImageProfile)
	if err != nil {
		return nil, err
	}
	if opts.Pipeline == nil {
		opts.Pipeline = imaging.NewPipeline(
			imaging.WithLogger(log),
			imaging.WithMetrics(m),
			imaging.WithCache(imaging.NewThumbnailCache(cfg.ThumbnailCacheSize)),
		)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	houseRepo := repository.NewHouseRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	itemRepo := repository.NewShoppingItemRepository(db)
	dataRepo := repository.NewDataRepository(db)

	// Services
	authService := services.NewAuthService(userRepo, log)
	houseService := services.NewHouseService(houseRepo, log)
	roomService := services.NewRoomService(roomRepo, houseRepo, log)
	taskService := services.NewTaskService(roomRepo, houseRepo, opts.Suggester, log)
	shoppingService := services.NewShoppingService(itemRepo, log)
	dataService := services.NewDataService(houseRepo, roomRepo, itemRepo, dataRepo, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	houseHandler := handlers.NewHouseHandler(houseService, roomService)
	roomHandler := handlers.NewRoomHandler(roomService, opts.Pipeline, profile, log)
	taskHandler := handlers.NewTaskHandler(taskService)
	shoppingHandler := handlers.NewShoppingHandler(shoppingService)
	budgetHandler := handlers.NewBudgetHandler(houseService, roomService)
	dataHandler := handlers.NewDataHandler(dataService)
	imageHandler := handlers.NewImageHandler(opts.Pipeline)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.Use(sessions.Sessions(constants.SessionCookieName, opts.SessionStore))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Oppuss API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))

	requireHouse := middleware.RequireHouseAccess(houseService, log)
	requireRoom := middleware.RequireRoomAccess(roomService, log)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
			auth.DELETE("/me", middleware.RequireAuth(), authHandler.DeleteCurrentUser)
		}

		houses := api.Group("/houses")
		houses.Use(middleware.RequireAuth())
		{
			houses.GET("", houseHandler.ListHouses)
			houses.POST("", houseHandler.CreateHouse)
			houses.GET("/:id", requireHouse, houseHandler.GetHouse)
			houses.PATCH("/:id", requireHouse, houseHandler.UpdateHouse)
			houses.DELETE("/:id", requireHouse, houseHandler.DeleteHouse)
			houses.GET("/:id/rooms", requireHouse, houseHandler.ListRooms)
			houses.GET("/:id/budget", requireHouse, houseHandler.GetBudget)
		}

		rooms := api.Group("/rooms")
		rooms.Use(middleware.RequireAuth())
		{
			rooms.GET("", roomHandler.ListRooms)
			rooms.POST("", roomHandler.CreateRoom)
			rooms.GET("/:id", requireRoom, roomHandler.GetRoom)
			rooms.PATCH("/:id", requireRoom, roomHandler.UpdateRoom)
			rooms.DELETE("/:id", requireRoom, roomHandler.DeleteRoom)
			rooms.GET("/:id/budget", requireRoom, roomHandler.GetBudget)
			rooms.POST("/:id/photos", requireRoom, roomHandler.UploadPhotos)
			rooms.DELETE("/:id/photos/:index", requireRoom, roomHandler.DeletePhoto)
			rooms.GET("/:id/thumbnail", requireRoom, roomHandler.GetThumbnail)

			tasks := rooms.Group("/:id/tasks", requireRoom)
			{
				tasks.PUT("", roomHandler.ReplaceTasks)
				tasks.POST("", taskHandler.CreateTask)
				tasks.POST("/generate", taskHandler.GenerateTasks)
				tasks.PATCH("/:task_id", taskHandler.UpdateTask)
				tasks.DELETE("/:task_id", taskHandler.DeleteTask)
				tasks.POST("/:task_id/toggle", taskHandler.ToggleTask)
			}
		}

		shopping := api.Group("/shopping")
		shopping.Use(middleware.RequireAuth())
		{
			shopping.GET("", shoppingHandler.ListItems)
			shopping.POST("", shoppingHandler.CreateItem)
			shopping.DELETE("/completed", shoppingHandler.ClearCompleted)
			shopping.PATCH("/:id", shoppingHandler.UpdateItem)
			shopping.DELETE("/:id", shoppingHandler.DeleteItem)
			shopping.POST("/:id/toggle", shoppingHandler.ToggleItem)
		}

		api.GET("/budget", middleware.RequireAuth(), budgetHandler.GetOverview)

		data := api.Group("/data")
		data.Use(middleware.RequireAuth())
		{
			data.GET("/export", dataHandler.Export)
			data.POST("/import", dataHandler.Import)
			data.DELETE("", dataHandler.Clear)
		}

		api.POST("/images/thumbnail", middleware.RequireAuth(), imageHandler.Thumbnail)
	}

	return r, nil
}
