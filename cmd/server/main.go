package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"classpulse/internal/cache"
	"classpulse/internal/config"
	"classpulse/internal/repository"
	"classpulse/internal/service"
	"classpulse/internal/transport/rest"
	"classpulse/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := config.Load()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize repositories
	userRepo := repository.NewUserRepo(db)
	profileRepo := repository.NewProfileRepo(db)
	sectionRepo := repository.NewSectionRepo(db)
	surveyRepo := repository.NewSurveyRepo(db)
	responseRepo := repository.NewResponseRepo(db)

	indexCtx, indexCancel := context.WithTimeout(ctx, 10*time.Second)
	defer indexCancel()
	if err := userRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatal("Failed to create user indexes:", err)
	}
	if err := profileRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatal("Failed to create profile indexes:", err)
	}
	if err := responseRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatal("Failed to create response indexes:", err)
	}
	log.Println("Indexes ensured")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize caches
	reportCache := cache.NewReportCache(rdb)

	// Initialize services (wsHub implements service.Broadcaster)
	guard := service.NewGuard(profileRepo)
	authSvc := service.NewAuthService(userRepo, profileRepo, sectionRepo, cfg.JWTSecret)
	surveySvc := service.NewSurveyService(surveyRepo, responseRepo, sectionRepo, reportCache, wsHub)
	questionSvc := service.NewQuestionService(surveyRepo, responseRepo, reportCache, wsHub)
	responseSvc := service.NewResponseService(surveyRepo, responseRepo, reportCache, wsHub)
	sectionSvc := service.NewSectionService(sectionRepo, profileRepo)
	studentSvc := service.NewStudentService(profileRepo, responseRepo)
	analyticsSvc := service.NewAnalyticsService(surveyRepo, responseRepo, sectionRepo, profileRepo, reportCache)
	exportSvc := service.NewExportService(analyticsSvc, responseSvc)

	// Create router with container
	container := &rest.Container{
		AuthService:      authSvc,
		Guard:            guard,
		SurveyService:    surveySvc,
		QuestionService:  questionSvc,
		ResponseService:  responseSvc,
		SectionService:   sectionSvc,
		StudentService:   studentSvc,
		AnalyticsService: analyticsSvc,
		ExportService:    exportSvc,
		WSHub:            wsHub,
	}

	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
