package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-course-api/internal/config"
	"github.com/noah-isme/gema-course-api/internal/database"
	"github.com/noah-isme/gema-course-api/internal/handler"
	"github.com/noah-isme/gema-course-api/internal/middleware"
	"github.com/noah-isme/gema-course-api/internal/repository"
	"github.com/noah-isme/gema-course-api/internal/router"
	"github.com/noah-isme/gema-course-api/internal/service"
	"github.com/noah-isme/gema-course-api/internal/worker"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level).With().Str("service", cfg.AppName).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if redisClient == nil {
		logger.Warn().Msg("redis disabled, dashboard cache and redis events are off")
	} else {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to nats")
	}
	if natsConn != nil {
		defer natsConn.Drain()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	transactor := repository.NewTransactor(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	completionRepo := repository.NewLessonCompletionRepository(db)
	attemptRepo := repository.NewQuizAttemptRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	events := service.NewProgressEventPublisher(redisClient, natsConn, cfg.EventChannel, logger)
	certificateService := service.NewCertificateService(transactor, certificateRepo, studentRepo, courseRepo, logger)
	completionService := service.NewCompletionService(service.CompletionDependencies{
		Transactor:   transactor,
		Enrollments:  enrollmentRepo,
		Lessons:      lessonRepo,
		Quizzes:      quizRepo,
		Completions:  completionRepo,
		Attempts:     attemptRepo,
		Certificates: certificateService,
		Activity:     activityService,
		Events:       events,
		Cache:        redisClient,
	}, logger)
	learningService := service.NewLearningService(lessonRepo, quizRepo, enrollmentRepo, completionRepo, attemptRepo, completionService, redisClient, validate, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, studentRepo, completionService, redisClient, logger)
	progressService := service.NewCourseProgressService(courseRepo, enrollmentRepo, certificateRepo, completionService, logger)
	dashboardService := service.NewStudentDashboardService(enrollmentRepo, completionService, certificateService, redisClient, cfg.DashboardCacheTTL, logger)
	contentService := service.NewContentService(courseRepo, lessonRepo, quizRepo, validate, logger)

	reconciler := worker.NewCompletionReconciler(enrollmentRepo, completionService, 0, logger)
	if err := reconciler.Start(ctx, cfg.ReconcileSchedule); err != nil {
		logger.Fatal().Err(err).Msg("failed to start completion reconciler")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ReadTimeout:  cfg.RequestTimeout,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, RequestTimeout: cfg.RequestTimeout})
	router.Register(app, cfg, router.Dependencies{
		DB:                      db,
		Redis:                   redisClient,
		StudentDashboardHandler: handler.NewStudentDashboardHandler(dashboardService, logger),
		EnrollmentHandler:       handler.NewEnrollmentHandler(enrollmentService, logger),
		LearningHandler:         handler.NewLearningHandler(learningService, logger),
		CourseProgressHandler:   handler.NewCourseProgressHandler(progressService, logger),
		CertificateHandler:      handler.NewCertificateHandler(certificateService, logger),
		ContentHandler:          handler.NewContentHandler(contentService, logger),
		AdminActivityHandler:    handler.NewAdminActivityHandler(activityService, logger),
		JWTMiddleware:           middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("http server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(ctx, app, reconciler, logger)
}

func waitForShutdown(ctx context.Context, app *fiber.App, reconciler *worker.CompletionReconciler, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reconciler.Stop(shutdownCtx)
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
