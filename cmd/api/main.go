package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"field-service-backend/internal/api"
	"field-service-backend/internal/config"
	"field-service-backend/internal/modules/appointments"
	"field-service-backend/internal/modules/offline"
	"field-service-backend/internal/modules/routes"
	"field-service-backend/pkg/calendar"
	"field-service-backend/pkg/geocode"
	"field-service-backend/pkg/notify"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	e := echo.New()

	// 2. --- Middleware ---
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"http://localhost:5173", cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// 3. --- Database Connection ---
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database configuration: %v", err)
	}

	dbPool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}

	// 4. --- Offline KV Store ---
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Unable to ping redis: %v", err)
	}

	kv := offline.NewRedisKVStore(redisClient)
	itineraryCache := offline.NewItineraryCache(kv, logger)

	// 5. --- Adapters ---
	notifier, err := notify.NewSESNotifier(context.Background(), cfg.AWSRegion, cfg.NotifyFromEmail)
	if err != nil {
		log.Fatalf("Unable to create notifier: %v", err)
	}
	templates, err := notify.NewTemplateManager()
	if err != nil {
		log.Fatalf("Unable to parse notification templates: %v", err)
	}
	calendarClient := calendar.NewRESTClient(cfg.CalendarBaseURL)
	geocoder := geocode.NewHTTPGeocoder(cfg.GeocodeBaseURL)

	// 6. --- Dependency Injection (Wiring everything up) ---
	// --- Appointments Module ---
	appointmentRepo := appointments.NewRepository(dbPool)
	appointmentService := appointments.NewService(appointmentRepo, notifier, templates, calendarClient, logger)
	appointmentHandler := appointments.NewHandler(appointmentService)

	// --- Offline Module ---
	// The queue replays captures through the appointment service, and the
	// service reroutes captures into the queue when the store is down.
	captureQueue := offline.NewCaptureQueue(kv, appointmentService, logger)
	appointmentService.AttachQueue(captureQueue)
	offlineHandler := offline.NewHandler(captureQueue)

	// --- Routes Module ---
	routeRepo := routes.NewRepository(dbPool)
	sequencer := routes.NewSequencer(routeRepo)
	assembler := routes.NewAssembler(routeRepo, appointmentRepo, itineraryCache, logger)
	planner := routes.NewPlanner(routeRepo, geocoder, logger)
	routeService := routes.NewService(routeRepo, sequencer, assembler, planner)
	routeHandler := routes.NewHandler(routeService)

	// 7. --- Initialize Router ---
	api.SetupRoutes(e, cfg.JWTSecret,
		appointmentHandler,
		routeHandler,
		offlineHandler,
	)

	// 8. --- Background Drain Worker ---
	workerCtx, workerCancel := context.WithCancel(context.Background())
	drainWorker := offline.NewDrainWorker(captureQueue, cfg.DrainInterval, logger)
	drainWorker.Start(workerCtx)

	// 9. --- Start Server with graceful shutdown logic ---
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server, an error occurred:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	workerCancel()
	drainWorker.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal("Server forced to shutdown:", err)
	}
	log.Println("Server exiting")
}
