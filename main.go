package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "jobmatch-backend/cmd/api"
	appdomain "jobmatch-backend/internal/application/domain"
	appRepo "jobmatch-backend/internal/application/repository"
	"jobmatch-backend/internal/application/scheduler"
	appUsecase "jobmatch-backend/internal/application/usecase"
	authdomain "jobmatch-backend/internal/auth/domain"
	authRepo "jobmatch-backend/internal/auth/repository"
	authUsecase "jobmatch-backend/internal/auth/usecase"
	"jobmatch-backend/internal/notification"
	"jobmatch-backend/pkg/ai"
	"jobmatch-backend/pkg/chroma"
	"jobmatch-backend/pkg/config"
	"jobmatch-backend/pkg/database"
	"jobmatch-backend/pkg/fcm"
	"jobmatch-backend/pkg/gmail"
	"jobmatch-backend/pkg/imap"
	"jobmatch-backend/pkg/pubsub"
	"jobmatch-backend/pkg/recommend"
	"jobmatch-backend/pkg/sse"

	"google.golang.org/api/option"
)

func main() {
	// Load configuration
	cfg := config.Load()
	ctx := context.Background()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{}, &authdomain.RefreshToken{}, &authdomain.PushDevice{}, &authdomain.Mailbox{},
		&appdomain.Application{}, &appdomain.Message{}, &appdomain.StatusEvent{}, &appdomain.SimulationJob{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	mailboxRepo := authRepo.NewMailboxRepository(db)
	pushDeviceRepo := authRepo.NewPushDeviceRepository(db)
	store := appRepo.NewStore(db)

	// Initialize SSE Manager
	sseManager := sse.NewManager()
	go sseManager.Run()

	// FCM is optional, SSE still works without it
	var fcmClient *fcm.Client
	if cfg.FirebaseCredentials != "" {
		fcmClient, err = fcm.NewClient(ctx, cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
		}
	}
	notifier := notification.NewService(sseManager, pushDeviceRepo, fcmClient)

	// Status events go to Pub/Sub only when a topic is configured
	var statusPublisher *notification.StatusEventPublisher
	var pubsubPublisher *pubsub.Publisher
	if cfg.GoogleProjectID != "" && cfg.StatusEventsTopic != "" {
		var opts []option.ClientOption
		if cfg.GoogleCredentials != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentials))
		}
		pubsubPublisher, err = pubsub.NewPublisher(ctx, cfg.GoogleProjectID, cfg.StatusEventsTopic, opts...)
		if err != nil {
			log.Printf("[WARN] Failed to initialize Pub/Sub publisher (status events disabled): %v", err)
		} else {
			statusPublisher = notification.NewStatusEventPublisher(pubsubPublisher)
		}
	}

	// AI provider, Ollama settings can change at runtime
	api.InitRuntimeConfig(cfg.AIProvider, cfg.OllamaBaseURL, cfg.OllamaModel)
	provider, err := ai.ParseProvider(cfg.AIProvider)
	if err != nil {
		log.Fatal("Invalid AI provider:", err)
	}
	aiService, err := ai.NewService(ctx, ai.DynamicConfig{
		Provider:         provider,
		GeminiAPIKey:     cfg.GeminiApiKey,
		GeminiModel:      cfg.GeminiModel,
		GatewayBaseURL:   cfg.GatewayBaseURL,
		GatewayAPIKey:    cfg.GatewayAPIKey,
		GatewayModel:     cfg.GatewayModel,
		GetOllamaBaseURL: api.GetRuntimeOllamaBaseURL,
		GetOllamaModel:   api.GetRuntimeOllamaModel,
	})
	if err != nil {
		log.Printf("[WARN] AI service unavailable (drafting and classification disabled): %v", err)
	}

	templates, err := appUsecase.LoadResponseTemplates(cfg.ResponseTemplatesFile)
	if err != nil {
		log.Fatal("Failed to load response templates:", err)
	}

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepo, mailboxRepo, pushDeviceRepo, cfg)
	applicationUsecase := appUsecase.NewApplicationUsecase(store, userRepo, mailboxRepo, cfg.SimulationDelay, cfg.SimulationMaxAttempts)
	inboxUsecase := appUsecase.NewInboxUsecase(store)
	classifierUsecase := appUsecase.NewClassifierUsecase(store, cfg.ClassifierBatchSize)
	simulator := appUsecase.NewResponseSimulator(store, templates, mailboxRepo, cfg.DefaultCandidateEmail)
	monitorUsecase := appUsecase.NewMonitorUsecase(store, mailboxRepo, imap.NewFetcher(), classifierUsecase, cfg.SimulatedReplyRate)
	recommender := recommend.NewClient(cfg.RecommenderBaseURL, cfg.RecommenderTimeout)
	digestUsecase := appUsecase.NewJobDigestUsecase(store, userRepo, mailboxRepo, recommender)

	if aiService != nil {
		applicationUsecase.SetDrafter(aiService)
		classifierUsecase.SetClassifier(aiService)
	}
	if cfg.GoogleClientID != "" {
		gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)
		applicationUsecase.SetMailSender(gmailService)
		digestUsecase.SetMailSender(gmailService)
	}

	classifierUsecase.SetNotifier(notifier)
	simulator.SetNotifier(notifier)
	digestUsecase.SetNotifier(notifier)
	if statusPublisher != nil {
		applicationUsecase.SetEventPublisher(statusPublisher)
		classifierUsecase.SetEventPublisher(statusPublisher)
		simulator.SetEventPublisher(statusPublisher)
	}

	// Semantic inbox search
	var indexWorker *appUsecase.IndexWorker
	if cfg.ChromaAPIKey != "" {
		chromaClient, err := chroma.NewClient(ctx, cfg)
		if err != nil {
			log.Printf("[WARN] Chroma unavailable (semantic search disabled): %v", err)
		} else {
			indexWorker = appUsecase.NewIndexWorker(chromaClient, 2)
			indexWorker.Start()
			inboxUsecase.SetMessageIndex(chromaClient)
			inboxUsecase.SetIndexer(indexWorker)
			simulator.SetIndexer(indexWorker)
			monitorUsecase.SetIndexer(indexWorker)
		}
	}

	// Background work
	simulationScheduler := scheduler.NewSimulationScheduler(store, simulator, cfg.SimulationPollInterval)
	simulationScheduler.Start()
	monitorJob := scheduler.NewMonitorJob(monitorUsecase, cfg.MonitorInterval)
	monitorJob.Start()
	classifierJob := scheduler.NewClassifierJob(classifierUsecase, cfg.ClassifierInterval)
	classifierJob.Start()
	digestJob := scheduler.NewDigestJob(digestUsecase, cfg.JobDigestInterval)
	digestJob.Start()

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, applicationUsecase, inboxUsecase, classifierUsecase, monitorUsecase, digestUsecase, recommender, sseManager, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler.Router(),
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] Server shutdown: %v", err)
	}

	simulationScheduler.Stop()
	monitorJob.Stop()
	classifierJob.Stop()
	digestJob.Stop()
	if indexWorker != nil {
		indexWorker.Stop()
	}
	notifier.Wait()
	if pubsubPublisher != nil {
		if err := pubsubPublisher.Close(); err != nil {
			log.Printf("[ERROR] Pub/Sub close: %v", err)
		}
	}
	log.Println("Server stopped")
}
