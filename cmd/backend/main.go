package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devlift/questionnaire-backend/internal"
	"devlift/questionnaire-backend/internal/config"
	"devlift/questionnaire-backend/internal/cors"
	"devlift/questionnaire-backend/internal/project"
	"devlift/questionnaire-backend/internal/question"
	"devlift/questionnaire-backend/internal/questionnaire"
	"devlift/questionnaire-backend/internal/store"
	"devlift/questionnaire-backend/internal/trace"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.6.1"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var AppName = "no-app-name"

var Version = "no-version"

var BuildTime = "no-build-time"

var CommitHash = "no-commit-hash"

var Environment = "no-env"

func main() {
	AppName = os.Getenv("APP_NAME")
	if AppName == "" {
		AppName = "questionnaire-backend"
	}

	if BuildTime == "no-build-time" {
		now := time.Now()
		BuildTime = "not provided (now: " + now.Format(time.RFC3339) + ")"
	}

	Environment = os.Getenv("ENV")
	if Environment == "" {
		Environment = "no-env"
	}

	appMetadata := []zap.Field{
		zap.String("app_name", AppName),
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit_hash", CommitHash),
		zap.String("environment", Environment),
	}

	cfg, cfgLog := config.Load()
	err := cfg.Validate()
	if err != nil {
		if errors.Is(err, config.ErrGraphURIRequired) {
			title := "Graph URI is required"
			message := "Please set the GRAPH_URI environment variable or provide a config file with the graph_uri key."
			message = EarlyApplicationFailed(title, message)
			log.Fatal(message)
		} else {
			log.Fatalf("Failed to validate config: %v, exiting...", err)
		}
	}

	logger, err := initLogger(&cfg, appMetadata)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v, exiting...", err)
	}

	cfgLog.FlushToZap(logger)

	if cfg.Debug {
		logger.Warn("Running in debug mode, make sure to disable it in production")
	}

	logger.Info("Starting application...")

	shutdown, err := initOpenTelemetry(AppName, Version, BuildTime, CommitHash, Environment, cfg.OtelCollectorUrl)
	if err != nil {
		logger.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 60*time.Second)
	graphDriver, err := store.NewNeo4jDriver(connectCtx, logger, cfg.GraphURI, cfg.GraphUser, cfg.GraphPassword, uint64(cfg.GraphMaxRetries))
	connectCancel()
	if err != nil {
		logger.Fatal("Failed to connect to graph database", zap.Error(err))
	}

	validator := internal.NewValidator()
	problemWriter := internal.NewProblemWriter()
	sanitizer := internal.NewSanitizer()

	// ============================================
	// Repository
	// ============================================

	questionRepository := question.NewRepository(logger, graphDriver)
	projectRepository := project.NewRepository(logger, graphDriver)
	questionnaireRepository := questionnaire.NewRepository(logger, graphDriver, questionRepository, projectRepository)

	// ============================================
	// Service
	// ============================================

	questionService := question.NewService(logger, questionRepository)
	projectService := project.NewService(logger, projectRepository)
	questionnaireService := questionnaire.NewService(logger, questionnaireRepository)

	// ============================================
	// Handler
	// ============================================

	questionHandler := question.NewHandler(logger, validator, problemWriter, sanitizer, questionService)
	projectHandler := project.NewHandler(logger, validator, problemWriter, sanitizer, projectService)
	questionnaireHandler := questionnaire.NewHandler(logger, validator, problemWriter, questionnaireService)

	// ============================================
	// Middleware
	// ============================================

	traceMiddleware := trace.NewMiddleware(logger, cfg.Debug)
	corsMiddleware := cors.NewMiddleware(logger, cfg.AllowOrigins)

	basicMiddleware := middleware.NewSet(traceMiddleware.RecoverMiddleware)
	basicMiddleware = basicMiddleware.Append(traceMiddleware.TraceMiddleware)

	// HTTP Server
	mux := http.NewServeMux()

	// Health check route
	mux.Handle("GET /api/healthz", basicMiddleware.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			logger.Error("Failed to write response", zap.Error(err))
		}
	}))

	// ============================================
	// Question template routes
	// ============================================

	mux.Handle("GET /api/questions", basicMiddleware.HandlerFunc(questionHandler.ListHandler))
	mux.Handle("GET /api/questions/last-inserted", basicMiddleware.HandlerFunc(questionHandler.LastInsertedHandler))
	mux.Handle("GET /api/questions/new-candidate-id", basicMiddleware.HandlerFunc(questionHandler.NewCandidateIDHandler))
	mux.Handle("GET /api/questions/{questionId}", basicMiddleware.HandlerFunc(questionHandler.GetHandler))
	mux.Handle("POST /api/questions", basicMiddleware.HandlerFunc(questionHandler.CreateHandler))
	mux.Handle("PUT /api/questions/{questionId}", basicMiddleware.HandlerFunc(questionHandler.UpdateHandler))
	mux.Handle("DELETE /api/questions/{questionId}", basicMiddleware.HandlerFunc(questionHandler.DeleteHandler))

	// ============================================
	// Project routes
	// ============================================

	mux.Handle("GET /api/projects", basicMiddleware.HandlerFunc(projectHandler.ListHandler))
	mux.Handle("GET /api/projects/new-candidate-id", basicMiddleware.HandlerFunc(projectHandler.NewCandidateIDHandler))
	mux.Handle("GET /api/projects/{projectId}", basicMiddleware.HandlerFunc(projectHandler.GetHandler))
	mux.Handle("POST /api/projects", basicMiddleware.HandlerFunc(projectHandler.CreateHandler))
	mux.Handle("PUT /api/projects/{projectId}", basicMiddleware.HandlerFunc(projectHandler.UpdateHandler))
	mux.Handle("DELETE /api/projects/{projectId}", basicMiddleware.HandlerFunc(projectHandler.DeleteHandler))

	// ============================================
	// Questionnaire routes
	// ============================================

	mux.Handle("GET /api/projects/{projectId}/questionnaire/{index}", basicMiddleware.HandlerFunc(questionnaireHandler.GetNthHandler))
	mux.Handle("PUT /api/projects/{projectId}/questionnaire/{index}/answers", basicMiddleware.HandlerFunc(questionnaireHandler.SetAnswerHandler))
	mux.Handle("DELETE /api/projects/{projectId}/questionnaire/{index}", basicMiddleware.HandlerFunc(questionnaireHandler.DeleteNthHandler))
	mux.Handle("DELETE /api/projects/{projectId}/questionnaire", basicMiddleware.HandlerFunc(questionnaireHandler.ResetHandler))

	// End of API routes
	// ============================================
	// handle interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// CORS and Entry Point
	entrypoint := corsMiddleware.HandlerFunc(mux.ServeHTTP)

	srv := &http.Server{
		Addr:    cfg.Host + ":" + cfg.Port,
		Handler: entrypoint,
	}

	go func() {
		logger.Info("Starting listening request", zap.String("host", cfg.Host), zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Fail to start server with error", zap.Error(err))
		}
	}()

	// wait for context close
	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := graphDriver.Close(shutdownCtx); err != nil {
		logger.Error("Forced to close graph driver", zap.Error(err))
	}

	otelCtx, otelCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer otelCancel()
	if err := shutdown(otelCtx); err != nil {
		logger.Error("Forced to shutdown OpenTelemetry", zap.Error(err))
	}

	logger.Info("Successfully shutdown")
}

func initLogger(cfg *config.Config, appMetadata []zap.Field) (*zap.Logger, error) {
	var err error
	var logger *zap.Logger
	if cfg.Debug {
		logger, err = logutil.ZapDevelopmentConfig().Build()
		if err != nil {
			return nil, err
		}
		logger.Info("Running in debug mode", appMetadata...)
	} else {
		logger, err = logutil.ZapProductionConfig().Build()
		if err != nil {
			return nil, err
		}

		logger = logger.With(appMetadata...)
	}
	defer func() {
		err := logger.Sync()
		if err != nil {
			zap.S().Errorw("Failed to sync logger", zap.Error(err))
		}
	}()

	return logger, nil
}

func initOpenTelemetry(appName, version, buildTime, commitHash, environment, otelCollectorUrl string) (func(context.Context) error, error) {
	ctx := context.Background()

	serviceName := semconv.ServiceNameKey.String(appName)
	serviceVersion := semconv.ServiceVersionKey.String(version)
	serviceNamespace := semconv.ServiceNamespaceKey.String("devlift")
	serviceCommitHash := attribute.String("service.commit_hash", commitHash)
	serviceEnvironment := semconv.DeploymentEnvironmentKey.String(environment)

	res, err := resource.New(ctx,
		resource.WithAttributes(
			serviceName,
			serviceVersion,
			serviceNamespace,
			serviceCommitHash,
			serviceEnvironment,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	options := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}

	if otelCollectorUrl != "" {
		conn, err := initGrpcConn(otelCollectorUrl)
		if err != nil {
			return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
		}

		traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}

		bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
		options = append(options, sdktrace.WithSpanProcessor(bsp))
	}

	tracerProvider := sdktrace.NewTracerProvider(options...)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tracerProvider.Shutdown, nil
}

func initGrpcConn(target string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	return conn, nil
}

func EarlyApplicationFailed(title, action string) string {
	result := `
-----------------------------------------
Application Failed to Start
-----------------------------------------

# What's wrong?
%s

# How to fix it?
%s

`

	result = fmt.Sprintf(result, title, action)
	return result
}
