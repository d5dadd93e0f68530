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

	"github.com/go-redis/redis/v8"
	"github.com/jonboulle/clockwork"

	applicationrepo "internship-portal/backend/internal/application/repository"
	applicationservice "internship-portal/backend/internal/application/service"
	"internship-portal/backend/internal/config"
	"internship-portal/backend/internal/db"
	"internship-portal/backend/internal/devotp"
	healthhandler "internship-portal/backend/internal/health/handler"
	identityservice "internship-portal/backend/internal/identity/service"
	internshiprepo "internship-portal/backend/internal/internship/repository"
	"internship-portal/backend/internal/ledger"
	"internship-portal/backend/internal/notify"
	"internship-portal/backend/internal/security"
	"internship-portal/backend/internal/server"
	"internship-portal/backend/internal/session"
	"internship-portal/backend/internal/storage"
	"internship-portal/backend/internal/telemetry"
	telemetryotel "internship-portal/backend/internal/telemetry/otel"
	userrepo "internship-portal/backend/internal/user/repository"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("config: DATABASE_URL is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.OTELServiceName,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	clock := clockwork.NewRealClock()
	health := map[string]healthhandler.Pinger{"database": pool}

	l, err := newLedger(ctx, cfg, clock, health)
	if err != nil {
		log.Fatalf("ledger: %v", err)
	}

	var devStore devotp.Store
	if cfg.DevOTP() {
		devStore = devotp.NewMemoryStore(clock)
	}
	sender, err := newSender(cfg, devStore, clock)
	if err != nil {
		log.Fatalf("notify: %v", err)
	}

	files, uploadDir, err := newFileStore(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	users := userrepo.NewPostgresRepository(pool)
	issuer := session.NewIssuer(users)
	auth := identityservice.NewAuthService(
		users,
		l,
		issuer,
		sender,
		security.NewHasher(cfg.BcryptCost),
		telemetryotel.NewEventEmitter(providers.LoggerProvider),
		clock,
		identityservice.Config{
			OTPTTL:               cfg.OTPTTLDuration(),
			LoginTokenTTL:        cfg.LoginTokenTTLDuration(),
			RevealUnknownAccount: cfg.ResetRevealUnknownAccount,
		},
	)
	apps := applicationservice.NewApplyService(applicationrepo.NewPostgresRepository(pool), users)

	e := server.New(server.Deps{
		Auth:          auth,
		Sessions:      issuer,
		Internships:   internshiprepo.NewPostgresRepository(pool),
		Apps:          apps,
		Users:         users,
		Files:         files,
		UploadDir:     uploadDir,
		Health:        health,
		DevOTP:        devStore,
		AuthRateLimit: cfg.AuthRateLimit,
		AuthRateBurst: cfg.AuthRateBurst,
		Clock:         clock,
		ServiceName:   cfg.OTELServiceName,
	})

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	drainCtx, drainCancel := context.WithTimeout(context.Background(), telemetry.ShutdownDrainDuration)
	if err := telemetry.Drain(drainCtx); err != nil {
		log.Printf("telemetry drain: %v", err)
	}
	drainCancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}

// newLedger builds the configured ledger. The memory ledger's sweeper runs until ctx ends;
// the redis ledger is added to health.
func newLedger(ctx context.Context, cfg *config.Config, clock clockwork.Clock, health map[string]healthhandler.Pinger) (ledger.Ledger, error) {
	opts := ledger.Options{MaxAttempts: cfg.OTPMaxAttempts, ExpiredRetention: cfg.ExpiredRetention()}
	switch cfg.LedgerBackend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		rl := ledger.NewRedisLedger(rdb, clock, opts, "")
		if err := rl.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		health["redis"] = rl
		log.Printf("ledger: using redis at %s", cfg.RedisAddr)
		return rl, nil
	default:
		ml := ledger.NewMemoryLedger(clock, opts)
		go ml.Run(ctx, cfg.SweepInterval())
		log.Printf("ledger: using in-memory store (single instance only)")
		return ml, nil
	}
}

func newSender(cfg *config.Config, devStore devotp.Store, clock clockwork.Clock) (notify.Sender, error) {
	if devStore != nil {
		log.Printf("notify: dev OTP mode, codes are readable at GET /dev/otp")
		return notify.Instrumented(notify.NewDevSender(devStore, clock), "dev"), nil
	}
	var (
		s   notify.Sender
		err error
	)
	switch cfg.OTPChannel {
	case config.ChannelSMS:
		s = notify.NewSMSLocalClient(cfg.SMSLocalAPIKey, cfg.SMSLocalBaseURL, cfg.SMSLocalSender)
	default:
		s, err = notify.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.FromEmail)
		if err != nil {
			return nil, err
		}
	}
	return notify.Instrumented(notify.WithTimeout(s, cfg.NotifyTimeoutDuration()), cfg.OTPChannel), nil
}

// newFileStore returns the upload store and, for the local backend, the directory to serve.
func newFileStore(ctx context.Context, cfg *config.Config) (storage.Store, string, error) {
	if cfg.UploadBackend == config.BackendS3 {
		s, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
		return s, "", err
	}
	s, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		return nil, "", err
	}
	return s, s.Dir(), nil
}
