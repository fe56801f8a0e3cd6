package main

import (
	"log"
	"strings"

	"anoa.com/eduachieve/internal/catalog"
	"anoa.com/eduachieve/internal/config"
	"anoa.com/eduachieve/internal/handler"
	"anoa.com/eduachieve/internal/middleware"
	"anoa.com/eduachieve/internal/model"
	"anoa.com/eduachieve/internal/repository"
	"anoa.com/eduachieve/internal/service"
	"anoa.com/eduachieve/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if err := seedRoles(db); err != nil {
		log.Fatalf("failed to seed roles: %v", err)
	}
	if cfg.AppEnv == "development" {
		if err := seedAdminUser(db); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
	}

	// Redis is optional: without it the award stream, rate limiting and the
	// total-points cache degrade gracefully.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
	}

	badgeCatalog := catalog.New()

	userRepo := repository.NewUserRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)

	pointsService := service.NewPointsService(pointsRepo, redisClient, cfg.PointsCacheTTL)
	leaderboardService := service.NewLeaderboardService(leaderboardRepo, pointsService)
	achievementService := service.NewAchievementService(badgeCatalog, achievementRepo, pointsService, leaderboardService, redisClient)
	reportService := service.NewReportService(badgeCatalog, achievementRepo, pointsService, leaderboardService)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)

	limiter := service.NewEventRateLimiter(redisClient, cfg.RateLimitEvents)

	authHandler := handler.NewAuthHandler(authService)
	eventHandler := handler.NewEventHandler(achievementService, limiter)
	pointsHandler := handler.NewPointsHandler(pointsService, leaderboardService)
	leaderboardHandler := handler.NewLeaderboardHandler(leaderboardService)
	summaryHandler := handler.NewSummaryHandler(reportService)
	streamHandler := handler.NewAchievementStreamHandler(redisClient)

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.AllowedOrigins, ","),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/login", authHandler.Login)
	}

	api.Use(authMiddleware.RequireAuth())
	{
		api.POST("/events", eventHandler.SubmitEvent)

		api.GET("/leaderboard", leaderboardHandler.GetTop)
		api.GET("/leaderboard/me", leaderboardHandler.GetMyRank)

		api.GET("/points/history", pointsHandler.History)

		api.GET("/summary/me", summaryHandler.GetMySummary)
		api.GET("/summary/:user_id", summaryHandler.GetSummary)

		api.GET("/achievements/stream", streamHandler.HandleWebSocket)

		admin := api.Group("/admin")
		admin.Use(authMiddleware.RequireAdmin())
		{
			admin.POST("/points", pointsHandler.GrantPoints)
			admin.POST("/leaderboard/rebuild", leaderboardHandler.Rebuild)
		}
	}

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.PointsTransaction{},
		&model.Achievement{},
		&model.LeaderboardEntry{},
	)
}

func seedRoles(db *gorm.DB) error {
	defaultRoles := []model.Role{
		{Name: "admin", Description: "Super administrator"},
		{Name: "pengajar", Description: "Pengajar"},
		{Name: "pelajar", Description: "Pelajar"},
	}

	for _, role := range defaultRoles {
		var count int64
		if err := db.Model(&model.Role{}).
			Where("name = ?", role.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

func seedAdminUser(db *gorm.DB) error {
	var adminRole model.Role
	if err := db.Where("name = ?", "admin").First(&adminRole).Error; err != nil {
		return err
	}

	var count int64
	if err := db.Model(&model.User{}).
		Where("email = ?", "admin@eduachieve.local").
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin user already exists, skipping seed")
		return nil
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminUser := model.User{
		Username:     "admin",
		Email:        "admin@eduachieve.local",
		PasswordHash: string(hashedPasswordBytes),
		RoleID:       &adminRole.ID,
	}

	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	log.Println("✅ Admin user seeded successfully")
	log.Println("   Email: admin@eduachieve.local")
	log.Println("   Password: admin123")

	return nil
}
