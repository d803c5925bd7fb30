package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/fadarc-site-backend/api"
	"github.com/rpupo63/fadarc-site-backend/config"
	"github.com/rpupo63/fadarc-site-backend/database"
	"github.com/rpupo63/fadarc-site-backend/logger"
	"github.com/rpupo63/fadarc-site-backend/models"
	"github.com/rpupo63/fadarc-site-backend/services"
)

func main() {
	// Load environment variables from .env file
	envErr := godotenv.Load()

	cfg := config.New()
	logger.New(config.GetString(cfg, "LOG_LEVEL", "info"), config.GetString(cfg, "ENV", "production"))
	if envErr != nil {
		log.Warn().Err(envErr).Msg("no .env file loaded, using process environment")
	}
	log.Info().Msg("Initializing app...")

	ctx := context.Background()
	if prefix := config.GetString(cfg, "SSM_PARAMETER_PREFIX", ""); prefix != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Error loading AWS configuration")
		}
		if err := config.LoadParameters(ctx, cfg, ssm.NewFromConfig(awsCfg), prefix); err != nil {
			log.Fatal().Err(err).Msg("Error loading secrets from parameter store")
		}
	}

	if dsn := config.GetString(cfg, "SENTRY_DSN", ""); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: config.GetString(cfg, "ENV", "production"),
		}); err != nil {
			log.Error().Err(err).Msg("sentry init failed, continuing without error reporting")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// If generating models, run generation and exit
	if config.GetBool(cfg, "GENERATE_MODELS", false) {
		generateModels(cfg)
		return
	}

	storage, err := database.Open(ctx, database.OptionsFromConfig(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening storage")
	}
	log.Info().Str("backend", storage.Backend()).Msg("storage ready")

	gate := services.NewAdminGate(
		storage.Users(),
		config.GetString(cfg, "ADMIN_TOKEN_SECRET", ""),
		config.GetDuration(cfg, "ADMIN_TOKEN_TTL", services.DefaultAdminTokenTTL),
	)
	if err := gate.EnsureAdmin(ctx, config.GetString(cfg, "ADMIN_PASSWORD", "")); err != nil {
		log.Fatal().Err(err).Msg("Error provisioning admin user")
	}

	host := services.NewImageHost(cfg)
	if missing := host.MissingConfig(); len(missing) > 0 {
		log.Warn().Str("host", host.Name()).Strs("missing", missing).Msg("image host not configured, uploads will fail")
	}

	deps := api.Dependencies{
		Storage:  storage,
		Ingestor: services.NewImageIngestor(host, storage.UploadedFiles()),
		Gate:     gate,
		Notifier: services.NewQuoteNotifierFromConfig(cfg),
	}

	// buffered so Start can still report ErrServerClosed after nothing is listening
	errChannel := make(chan error, 2)

	server, err := api.NewServer(deps, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
	if err := storage.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing storage")
	}
}

func generateModels(cfg map[string]string) {
	log.Info().Msg("Generating models and query helpers...")

	db, err := database.OpenPostgres(
		config.GetString(cfg, "DATABASE_URL", ""),
		config.GetString(cfg, "DATABASE_REPLICA_URL", ""),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	if err := models.GenerateModels(db, config.GetString(cfg, "GENERATE_MODELS_OUT", "")); err != nil {
		log.Fatal().Err(err).Msg("Error generating models")
	}
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
