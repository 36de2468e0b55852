package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/taskhive-api/internal/config"
	"github.com/taskhive-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/taskhive-api/internal/infrastructure/jwt"
	s3infra "github.com/taskhive-api/internal/infrastructure/s3"
	"github.com/taskhive-api/internal/infrastructure/smtp"
	"github.com/taskhive-api/internal/infrastructure/sns"
	transporthttp "github.com/taskhive-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Every authenticated route depends on token verification; refusing to
	// start beats running an API that cannot mint or check tokens.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	// S3 attachment store.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer for verification and reset codes.
	mailer := smtp.NewMailer(cfg)

	// SNS task event publisher (optional — nil disables publishing).
	var events sns.EventPublisher
	if pub, err := sns.NewPublisher(cfg); err == nil {
		events = pub
	} else {
		log.Printf("WARN: SNS publisher not available: %v", err)
	}

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		SessionRepo: dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		PendingRepo: dynamo.NewPendingRepo(dynamoClient, cfg.DynamoTables.PendingRegistrations),
		TaskRepo:    dynamo.NewTaskRepo(dynamoClient, cfg.DynamoTables.Tasks),
		OTPStore:    dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.Verifications),
		ObjectStore: s3Store,
		Mailer:      mailer,
		Events:      events,
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
