package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"quiz-arena-system/handlers"
	"quiz-arena-system/middleware"
	"quiz-arena-system/models"
	"quiz-arena-system/services"
	"quiz-arena-system/utils"
	"quiz-arena-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New()

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.ArenaMatch{},
		&models.ArenaParticipant{},
		&models.PlayerBalance{},
		&models.QuestionBank{},
		&models.MatchQuestion{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if utils.R2Configured() {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
	}

	walletService := services.NewWalletService(db)
	questionService := services.NewQuestionService(db)
	arenaService := services.NewArenaService(db, walletService)
	settlementService := services.NewSettlementService(db, walletService)
	quizService := services.NewQuizService(db, questionService, settlementService)
	sweepService := services.NewSweepService(db, arenaService, settlementService)
	archiveService := services.NewArchiveService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional timed sweep on top of the lazy request-path sweeps
	if intervalStr := os.Getenv("SWEEP_INTERVAL_MINUTES"); intervalStr != "" {
		minutes, err := strconv.Atoi(intervalStr)
		if err != nil || minutes <= 0 {
			log.Printf("⚠️  invalid SWEEP_INTERVAL_MINUTES %q — relying on lazy sweeps only", intervalStr)
		} else {
			go workers.PollSweep(ctx, sweepService, time.Duration(minutes)*time.Minute)
		}
	}

	archiveService.StartArchiveScheduler()

	handlers.SetupArenaRoutes(app, arenaService, quizService, sweepService, walletService, archiveService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Arena service running on http://localhost:5300")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
