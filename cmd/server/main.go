// Command server runs the account verification service: the three-track
// verification workflow, the reviewer notification fanout, and the gated
// password-change path. Every backing service is optional; unconfigured
// dependencies fall back to in-memory or no-op adapters so a bare `go run`
// gives a working development server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	identityStore "attest/internal/identity/store"
	"attest/internal/notification/mailer"
	notificationService "attest/internal/notification/service"
	notificationStore "attest/internal/notification/store"
	"attest/internal/platform/config"
	"attest/internal/platform/httpserver"
	"attest/internal/platform/logger"
	platformMetrics "attest/internal/platform/metrics"
	"attest/internal/platform/postgres"
	redisPlatform "attest/internal/platform/redis"
	"attest/internal/security/authenticator"
	securityHandler "attest/internal/security/handler"
	securityMetrics "attest/internal/security/metrics"
	securityModels "attest/internal/security/models"
	securityService "attest/internal/security/service"
	credentialStore "attest/internal/security/store/credentials"
	policyStore "attest/internal/security/store/policy"
	minioStorage "attest/internal/storage/minio"
	"attest/internal/token"
	httptransport "attest/internal/transport/http"
	verificationHandler "attest/internal/verification/handler"
	verificationMetrics "attest/internal/verification/metrics"
	verificationService "attest/internal/verification/service"
	codeStore "attest/internal/verification/store/code"
	tokenStore "attest/internal/verification/store/emailtoken"
	"attest/pkg/platform/audit"
	auditKafka "attest/pkg/platform/audit/kafka"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(slog.Default(), "failed to load configuration", "error", err)
	}
	log := logger.New(slog.Level(cfg.LogLevel))

	// Persistence: postgres when configured, memory otherwise.
	var (
		subjects      subjectDirectory
		notifications notificationService.Store
		policies      securityService.PolicyStore
		creds         authenticator.CredentialStore
	)
	if cfg.Database.DSN != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			logger.Fatal(log, "failed to connect to postgres", "error", err)
		}
		defer db.Close()
		if err := postgres.Migrate(db); err != nil {
			logger.Fatal(log, "failed to apply migrations", "error", err)
		}
		subjects = identityStore.NewPostgres(db)
		notifications = notificationStore.NewPostgres(db)
		policies = policyStore.NewPostgres(db)
		creds = credentialStore.NewPostgres(db)
		log.Info("postgres store ready")
	} else {
		subjects = identityStore.NewMemory()
		notifications = notificationStore.NewMemory()
		policies = policyStore.NewMemory()
		creds = credentialStore.NewMemory()
		log.Warn("no database configured, using in-memory stores")
	}

	// Ephemeral code/token stores: redis when configured.
	var (
		codes  verificationService.CodeStore
		tokens verificationService.TokenStore
	)
	redisClient, err := redisPlatform.New(cfg.Redis)
	if err != nil {
		logger.Fatal(log, "failed to connect to redis", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		codes = codeStore.NewRedis(redisClient.Client)
		tokens = tokenStore.NewRedis(redisClient.Client)
		log.Info("redis code store ready")
	} else {
		codes = codeStore.NewMemory()
		tokens = tokenStore.NewMemory()
		log.Warn("no redis configured, using in-memory code stores")
	}

	// Document blob store: minio when configured.
	var blobs verificationService.BlobStore = minioStorage.Unavailable{}
	if cfg.Storage.Endpoint != "" {
		minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
			Secure: cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Fatal(log, "failed to create minio client", "error", err)
		}
		store, err := minioStorage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
		if err != nil {
			logger.Fatal(log, "failed to initialize document storage", "error", err)
		}
		blobs = store
		log.Info("document storage ready", "bucket", cfg.Storage.Bucket)
	} else {
		log.Warn("no object storage configured, document submission disabled")
	}

	// Outbound delivery: smtp when configured, log otherwise.
	var notifier verificationService.Notifier
	if cfg.SMTP.Host != "" {
		notifier = mailer.NewSMTP(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, nil, log)
	} else {
		notifier = mailer.NewLog(log)
		log.Warn("no smtp configured, deliveries are logged only")
	}

	// Audit stream: kafka when configured.
	var auditor audit.Publisher = audit.NopPublisher{}
	if len(cfg.Audit.Brokers) > 0 {
		publisher, err := auditKafka.New(ctx, cfg.Audit.Brokers, cfg.Audit.Topic, log)
		if err != nil {
			logger.Fatal(log, "failed to connect to kafka", "error", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := publisher.Close(flushCtx); err != nil {
				log.Error("failed to flush audit events", "error", err)
			}
		}()
		auditor = publisher
		log.Info("audit stream ready", "topic", cfg.Audit.Topic)
	}

	seedPolicy(ctx, log, policies, cfg.PasswordChangeIntervalDays)

	tokenManager := token.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.TTL)
	auth := authenticator.NewLocal(subjects, creds)
	fanout := notificationService.NewFanout(subjects, notifications, log)

	verifier := verificationService.New(
		subjects, codes, tokens, blobs, notifier,
		verificationService.WithLogger(log),
		verificationService.WithMetrics(verificationMetrics.New()),
		verificationService.WithAuditor(auditor),
		verificationService.WithFanout(fanout),
		verificationService.WithBaseURL(cfg.SMTP.BaseURL),
	)
	security := securityService.New(
		subjects, auth, policies, tokenManager,
		securityService.WithLogger(log),
		securityService.WithMetrics(securityMetrics.New()),
		securityService.WithAuditor(auditor),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Verification: verificationHandler.New(verifier, log),
		Security:     securityHandler.New(security, log),
		Validator:    tokenManager,
		Logger:       log,
		Metrics:      platformMetrics.New(),
	})

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(log, "server error", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// subjectDirectory is the full identity store surface main wires into the
// verification workflow, the notification fanout, and the authenticator.
type subjectDirectory interface {
	verificationService.SubjectStore
	notificationService.Directory
	authenticator.Directory
}

// seedPolicy writes the configured rotation interval on first boot, leaving
// any administrator-set value alone afterwards.
func seedPolicy(ctx context.Context, log *slog.Logger, policies securityService.PolicyStore, intervalDays int) {
	current, err := policies.Get(ctx)
	if err != nil {
		log.Error("failed to read security policy", "error", err)
		return
	}
	if !current.UpdatedAt.IsZero() || intervalDays <= 0 {
		return
	}
	if err := policies.Update(ctx, securityModels.Policy{
		PasswordChangeIntervalDays: intervalDays,
		UpdatedAt:                  time.Now(),
	}); err != nil {
		log.Error("failed to seed security policy", "error", err)
	}
}
