package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"michi/internal/config"
	"michi/internal/database"
	"michi/internal/handlers"
	"michi/internal/jobs"
	"michi/internal/logging"
	"michi/internal/services"
	"michi/internal/store"
	"michi/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file (ignore error if file doesn't exist)
	envErr := godotenv.Load()

	cfg := config.Load()
	logging.Init(cfg.Environment)

	log.Println("🚀 Starting Michi Server...")
	if envErr != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", envErr)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Printf("📋 Configuration loaded (Port: %s, Environment: %s)", cfg.Port, cfg.Environment)

	secret := cfg.JWTSecret
	if secret == "" {
		secret = "michi-development-secret"
		log.Println("⚠️  JWT_SECRET not set, using development secret")
	}
	jwtAuth, err := auth.NewLocalJWTAuth(secret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
	}

	// Storage: MongoDB when configured, in-memory for local development
	var (
		userStore  store.UserStore
		robotStore store.RobotStore
		mongoDB    *database.MongoDB
	)
	if cfg.MongoURI != "" {
		mongoDB, err = database.NewMongoDB(cfg.MongoURI, cfg.DatabaseName)
		if err != nil {
			log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
		}

		initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = mongoDB.Initialize(initCtx, database.Collections{
			Users:  cfg.UsersCollection,
			Robots: cfg.RobotsCollection,
		})
		cancel()
		if err != nil {
			log.Fatalf("❌ Failed to initialize MongoDB: %v", err)
		}

		userStore = store.NewMongoUserStore(mongoDB.Collection(cfg.UsersCollection))
		robotStore = store.NewMongoRobotStore(mongoDB.Collection(cfg.RobotsCollection))
	} else {
		log.Println("⚠️  MONGODB_URI not set, using in-memory store (data is lost on restart)")
		mem := store.NewMemory()
		userStore = mem.Users()
		robotStore = mem.Robots()
	}

	authService := services.NewAuthService(userStore, jwtAuth, cfg.IdentityCacheTTL)
	userService := services.NewUserService(userStore, robotStore, authService)
	robotService := services.NewRobotService(robotStore)

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureAdmin(seedCtx, cfg.AdminPassword); err != nil {
		log.Fatalf("❌ Failed to seed administrator: %v", err)
	}
	cancel()

	// Background maintenance
	scheduler, err := jobs.NewJobScheduler()
	if err != nil {
		log.Fatalf("❌ Failed to create job scheduler: %v", err)
	}
	if cfg.OwnerSweepCron != "" {
		if err := scheduler.Register(jobs.OwnerSweepJobName, cfg.OwnerSweepCron, jobs.NewOwnerSweepJob(userStore, robotStore)); err != nil {
			log.Fatalf("❌ Failed to register owner sweep: %v", err)
		}
	}
	scheduler.Start()

	app := fiber.New(fiber.Config{
		AppName:      "Michi v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("michi")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: cfg.AllowedOrigins != "*",
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", cfg.AllowedOrigins)

	routes := handlers.Services{
		Auth:   authService,
		Users:  userService,
		Robots: robotService,
	}
	if mongoDB != nil {
		routes.DB = mongoDB
	}
	handlers.RegisterRoutes(app, routes)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		scheduler.Stop()

		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}

		if mongoDB != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoDB.Close(ctx); err != nil {
				log.Printf("⚠️ Error closing MongoDB: %v", err)
			}
		}
	}()

	log.Printf("✅ Server listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
