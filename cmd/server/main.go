package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/addispay/telebirr-gateway/internal/adapters/postgres"
	"github.com/addispay/telebirr-gateway/internal/adapters/secrets"
	"github.com/addispay/telebirr-gateway/internal/adapters/telebirr"
	"github.com/addispay/telebirr-gateway/internal/config"
	"github.com/addispay/telebirr-gateway/internal/domain/ports"
	paymentHandler "github.com/addispay/telebirr-gateway/internal/handlers/payment"
	paymentService "github.com/addispay/telebirr-gateway/internal/services/payment"
	httputil "github.com/addispay/telebirr-gateway/pkg/http"
	"github.com/addispay/telebirr-gateway/pkg/middleware"
	"github.com/addispay/telebirr-gateway/pkg/observability"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Logger)
	defer logger.Sync()

	logger.Info("Starting telebirr gateway",
		zap.String("version", "0.1.0"),
	)

	ctx := context.Background()

	// Database
	pool, err := postgres.NewPool(ctx, cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("Database connection established",
		zap.String("database", cfg.Database.Database),
	)

	// Secrets: app secret + RSA key material
	secretManager, err := initSecretManager(ctx, cfg.Secrets, logger)
	if err != nil {
		logger.Fatal("Failed to initialize secret manager", zap.Error(err))
	}

	appSecret, err := secretManager.GetSecret(ctx, cfg.Telebirr.AppSecretPath)
	if err != nil {
		logger.Fatal("Failed to load app secret", zap.Error(err))
	}
	privateKeyPEM, err := secretManager.GetSecret(ctx, cfg.Telebirr.PrivateKeyPath)
	if err != nil {
		logger.Fatal("Failed to load signing key", zap.Error(err))
	}
	publicKeyPEM, err := secretManager.GetSecret(ctx, cfg.Telebirr.PublicKeyPath)
	if err != nil {
		logger.Fatal("Failed to load provider verification key", zap.Error(err))
	}

	signer, err := telebirr.NewSigner(privateKeyPEM.Value)
	if err != nil {
		logger.Fatal("Failed to parse signing key", zap.Error(err))
	}
	verifier, err := telebirr.NewVerifier(publicKeyPEM.Value)
	if err != nil {
		logger.Fatal("Failed to parse verification key", zap.Error(err))
	}

	// Gateway transport
	gatewayCfg := &telebirr.Config{
		BaseURL:       cfg.Telebirr.BaseURL,
		WebBaseURL:    cfg.Telebirr.WebBaseURL,
		FabricAppID:   cfg.Telebirr.FabricAppID,
		AppSecret:     appSecret.Value,
		MerchantAppID: cfg.Telebirr.MerchantAppID,
		MerchantCode:  cfg.Telebirr.MerchantCode,
		NotifyURL:     cfg.Telebirr.NotifyURL,
		RedirectURL:   cfg.Telebirr.RedirectURL,
	}

	clientCfg := httputil.GatewayClientConfig()
	clientCfg.DialTimeout = time.Duration(cfg.Telebirr.ConnectTimeout) * time.Second
	httpClient := httputil.NewHTTPClient(clientCfg, time.Duration(cfg.Telebirr.RequestTimeout)*time.Second)

	apiLogs := postgres.NewAPILogRepository(pool)
	client := telebirr.NewClient(gatewayCfg, httpClient, apiLogs, logger)
	tokens := telebirr.NewTokenAdapter(client, logger)
	gateway := telebirr.NewGatewayAdapter(client, signer, logger)

	// Repositories and service
	transactions := postgres.NewTransactionRepository(pool)
	refunds := postgres.NewRefundRepository(pool)
	service := paymentService.NewService(gateway, tokens, transactions, refunds, verifier, logger)

	// HTTP surface
	mux := http.NewServeMux()
	paymentHandler.NewHandler(service, logger).RegisterRoutes(mux)
	paymentHandler.NewNotificationHandler(service, logger).RegisterRoutes(mux)

	rateLimiter := middleware.NewRateLimiter(float64(cfg.Server.RateLimit), cfg.Server.RateBurst)
	defer rateLimiter.Shutdown()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           observability.HTTPMetricsMiddleware(rateLimiter.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Metrics and health on a separate port
	healthChecker := observability.NewHealthChecker(pool)
	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker, logger)

	go func() {
		logger.Info("HTTP server listening",
			zap.String("address", httpServer.Addr),
			zap.Int("metrics_port", cfg.Server.MetricsPort),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
		logger.Error("Metrics server shutdown error", zap.Error(err))
	}

	logger.Info("Servers stopped")
}

// initSecretManager selects the secret backend: local filesystem for
// development, Vault or AWS Secrets Manager in production
func initSecretManager(ctx context.Context, cfg config.SecretsConfig, logger *zap.Logger) (ports.SecretManager, error) {
	switch cfg.Backend {
	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.VaultAddress)
		vaultCfg.Token = cfg.VaultToken
		vaultCfg.MountPath = cfg.VaultMountPath
		return secrets.NewVaultAdapter(ctx, vaultCfg, logger)
	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		awsCfg.Profile = cfg.AWSProfile
		return secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)
	default:
		logger.Warn("Using local filesystem secret manager; not for production",
			zap.String("base_path", cfg.LocalBasePath),
		)
		return secrets.NewLocalSecretManager(cfg.LocalBasePath, logger), nil
	}
}

func initLogger(cfg config.LoggerConfig) *zap.Logger {
	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if level, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
