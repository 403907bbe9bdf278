package app

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/ck496/theCleverDocs/blog-service/internal/config"
	"github.com/ck496/theCleverDocs/blog-service/internal/delivery/httpd"
	"github.com/ck496/theCleverDocs/blog-service/internal/repository"
	"github.com/ck496/theCleverDocs/blog-service/internal/service"
	"github.com/ck496/theCleverDocs/blog-service/internal/service/generator"
	"github.com/ck496/theCleverDocs/blog-service/internal/service/integration"
	"github.com/ck496/theCleverDocs/blog-service/internal/service/progress"
	"github.com/ck496/theCleverDocs/blog-service/internal/worker"
)

type App struct {
	server         *http.Server
	logger         zerolog.Logger
	config         *config.Config
	db             *sql.DB
	pool           *worker.Pool
	rabbitmqClient integration.RabbitMQClient
	vertexBackend  *generator.VertexBackend
}

func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	// Создаем репозитории
	submissionRepo := repository.NewSubmissionRepository(db, log)
	blogRepo := repository.NewBlogRepository(db, log)

	// Архив вариантов в MinIO опционален
	var archiveRepo repository.ArchiveRepository
	if cfg.Storage.Enabled {
		repo, err := repository.NewMinIOArchiveRepository(
			cfg.Storage.Endpoint,
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			cfg.Storage.Bucket,
			cfg.Storage.Region,
			cfg.Storage.UseSSL,
			cfg.Storage.ConnectTimeout,
			log,
		)
		if err != nil {
			return nil, err
		}
		archiveRepo = repo
	}

	// Подключаемся к RabbitMQ
	var rabbitmqClient integration.RabbitMQClient
	rabbitmqClient, err := integration.NewRabbitMQClient(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.RoutingKey,
		cfg.RabbitMQ.QueueName,
		log,
	)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to RabbitMQ, continuing without event publishing")
		rabbitmqClient = nil
	}

	// Бэкенд генерации: без project_id сервис стартует, но заявки будут
	// завершаться ошибкой GenerationUnavailable
	var backend generator.TextBackend
	var vertexBackend *generator.VertexBackend
	if cfg.Generation.ProjectID != "" {
		vertexBackend, err = generator.NewVertexBackend(ctx, cfg.Generation.ProjectID, cfg.Generation.Region, cfg.Generation.Model)
		if err != nil {
			return nil, err
		}
		backend = vertexBackend
	} else {
		log.Warn().Msg("Generation project_id is not configured, generation calls will fail")
		backend = generator.NewUnconfiguredBackend()
	}

	// Создаем сервисы
	intakeService := service.NewIntakeService(cfg.Intake, log)

	deepScan := integration.NewDeepScanClient(
		cfg.Sanitizer.DeepScanURL,
		cfg.Sanitizer.DeepScanTimeout,
		cfg.Sanitizer.DeepScanRetryCount,
		cfg.Sanitizer.DeepScanRetryDelay,
		log,
	)
	sanitizerService := service.NewSanitizerService(cfg.Sanitizer, deepScan, log)

	generatorService := generator.NewGeneratorService(backend, cfg.Generation, log)

	tracker := progress.NewTracker(cfg.Pipeline.EventBufferSize, cfg.Pipeline.TerminalRetention, log)

	pool := worker.NewPool(cfg.Pipeline.Workers, log)
	if err := pool.Start(ctx); err != nil {
		return nil, err
	}

	uploadService := service.NewUploadService(
		intakeService,
		sanitizerService,
		generatorService,
		tracker,
		submissionRepo,
		archiveRepo,
		rabbitmqClient,
		pool,
		cfg.Pipeline,
		log,
	)

	submissionService := service.NewSubmissionService(submissionRepo, tracker, log)
	blogService := service.NewBlogService(blogRepo, log)

	// Создаем обработчики
	handler := httpd.NewHandler(
		uploadService,
		submissionService,
		blogService,
		tracker,
		pool,
		cfg.Intake.MaxUploadSize,
		log,
	)

	// Создаем роутер
	router := chi.NewRouter()

	// Настраиваем middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	// Настраиваем CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	// Регистрируем маршруты
	handler.RegisterRoutes(router)

	// Создаем HTTP сервер. WriteTimeout не задаём: SSE-поток прогресса
	// живёт дольше любого разумного фиксированного таймаута записи.
	server := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	return &App{
		server:         server,
		logger:         log,
		config:         cfg,
		db:             db,
		pool:           pool,
		rabbitmqClient: rabbitmqClient,
		vertexBackend:  vertexBackend,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting blog service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down blog service...")

	// Останавливаем приём новых задач и дожидаемся текущих
	if err := a.pool.Stop(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to stop worker pool")
	}

	if a.rabbitmqClient != nil {
		if err := a.rabbitmqClient.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ client")
		}
	}

	if a.vertexBackend != nil {
		if err := a.vertexBackend.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close generation backend")
		}
	}

	// Закрываем соединение с БД
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	// Останавливаем сервер
	return a.server.Shutdown(ctx)
}
