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

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/auth"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/cache"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/config"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/db"
	httphandler "github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/http"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/http/handlers"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/mail"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/middleware"
	"github.com/ingchrist/hives-africa-LMS-psnl-sm-cp-sub000/internal/repo"
)

func main() {
	// Env vars set in the shell win over .env
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	kv := cache.NewRedisCache(redisClient)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	err = kv.Ping(pingCtx)
	cancel()
	if err != nil {
		logger.Fatal("redis unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	userRepo, closeUsers, err := openUserStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open user store", zap.String("store", cfg.UserStore), zap.Error(err))
	}
	defer closeUsers()

	sendFunc, err := newSendFunc(cfg, logger)
	if err != nil {
		logger.Fatal("failed to configure mail", zap.Error(err))
	}
	mailer, err := mail.NewMailer(sendFunc, mail.Config{
		From:       cfg.MailFrom,
		SiteName:   cfg.SiteName,
		Expiration: cfg.OTPTTL,
	})
	if err != nil {
		logger.Fatal("failed to create mailer", zap.Error(err))
	}

	tokenService := auth.NewTokenService(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	otpProvider := auth.NewCacheOtpProvider(kv, cfg.OTPSalt, cfg.OTPTTL, cfg.OTPDevMode)
	authService := auth.NewAuthService(userRepo, kv, otpProvider, tokenService, mailer, logger)

	authHandler := handlers.NewAuthHandler(authService, logger)
	router := httphandler.NewRouter(authHandler, tokenService, userRepo, middleware.NewRateLimiter(cfg.RateLimitRPM), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("user_store", cfg.UserStore),
			zap.Bool("otp_dev_mode", cfg.OTPDevMode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server exited")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openUserStore opens the configured user directory. The returned func releases its connection.
func openUserStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repo.UserRepo, func(), error) {
	switch cfg.UserStore {
	case config.UserStorePostgres:
		database, err := db.Open(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(database); err != nil {
			_ = database.Close()
			return nil, nil, err
		}
		return repo.NewUserRepo(database), func() { _ = database.Close() }, nil

	case config.UserStoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		disconnect := func() { _ = client.Disconnect(context.Background()) }
		if err := client.Ping(connectCtx, nil); err != nil {
			disconnect()
			return nil, nil, fmt.Errorf("ping mongo: %w", err)
		}
		users := repo.NewMongoUserRepo(client, cfg.MongoDatabase)
		if err := users.EnsureIndexes(connectCtx); err != nil {
			disconnect()
			return nil, nil, err
		}
		logger.Info("mongo connected", zap.String("database", cfg.MongoDatabase))
		return users, disconnect, nil

	case config.UserStoreMemory:
		logger.Warn("using in-memory user store; users are lost on restart")
		return repo.NewMemoryUserRepo(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown user store %q", cfg.UserStore)
}

// newSendFunc picks the mail transport. Codes are only ever logged in OTP dev mode.
func newSendFunc(cfg *config.Config, logger *zap.Logger) (mail.SendFunc, error) {
	if cfg.OTPDevMode {
		logger.Warn("OTP_DEV_MODE enabled: codes are fixed and emails are logged, not sent")
		return mail.NewLogSendFunc(logger.Named("mail")), nil
	}
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is required unless OTP_DEV_MODE=true")
	}
	return mail.NewSMTPSendFunc(mail.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	}), nil
}
