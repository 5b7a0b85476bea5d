package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/ConvoCart/Conversational-Order-Assistant/internal/api"
	"github.com/ConvoCart/Conversational-Order-Assistant/internal/authz"
	appconfig "github.com/ConvoCart/Conversational-Order-Assistant/internal/config"
	"github.com/ConvoCart/Conversational-Order-Assistant/internal/events"
	"github.com/ConvoCart/Conversational-Order-Assistant/internal/fulfillment"
	"github.com/ConvoCart/Conversational-Order-Assistant/internal/present"
	"github.com/ConvoCart/Conversational-Order-Assistant/internal/secrets"
	"github.com/ConvoCart/Conversational-Order-Assistant/internal/session"
	postgres "github.com/ConvoCart/Conversational-Order-Assistant/internal/storage/postgres"
	"github.com/ConvoCart/Conversational-Order-Assistant/internal/telemetry"
	"github.com/ConvoCart/Conversational-Order-Assistant/internal/transport"
)

func newLogger(cfg appconfig.Config) *log.Logger {
	prefix := ""
	if cfg.ServiceName != "" {
		prefix = fmt.Sprintf("[%s] ", cfg.ServiceName)
	}
	logger := log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds)
	log.SetOutput(os.Stdout)
	log.SetFlags(logger.Flags())
	log.SetPrefix(prefix)
	return logger
}

func setupTelemetry(lc fx.Lifecycle, cfg appconfig.Config) {
	var cleanup func()
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			cleanup = telemetry.InitTracer(cfg.ServiceName)
			return nil
		},
		OnStop: func(context.Context) error {
			if cleanup != nil {
				cleanup()
			}
			return nil
		},
	})
}

// newKafkaProducer constructs the shared producer and binds its lifecycle.
// With no brokers configured it is a no-op producer.
func newKafkaProducer(cfg appconfig.Config, lc fx.Lifecycle) *events.Producer {
	prod := events.NewProducerWithBrokers(cfg.Kafka.Brokers)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return prod.Close()
		},
	})
	return prod
}

func newRecorder(cfg appconfig.Config, prod *events.Producer, logger *log.Logger) *events.Recorder {
	return events.NewRecorder(prod, cfg.Kafka.FulfillmentTopic, cfg.Kafka.DiagnosticsTopic, logger)
}

// newSQLDB opens the session database when one is configured. The service
// keeps running without it; sessions then live in memory only.
func newSQLDB(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger) *sql.DB {
	if cfg.Database.Host == "" {
		logger.Printf("No session database configured; using in-memory sessions")
		return nil
	}
	logger.Printf("Connecting to PostgreSQL database %s@%s:%d", cfg.Database.Database, cfg.Database.Host, cfg.Database.Port)
	db, err := postgres.OpenDatabase(cfg.Database)
	if err != nil {
		logger.Printf("WARNING: failed to connect to database: %v", err)
		return nil
	}
	if err := postgres.EnsureSchema(db); err != nil {
		logger.Printf("WARNING: schema setup failed: %v", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return db.Close()
		},
	})
	return db
}

func newRepository(db *sql.DB) *postgres.Repository {
	return postgres.NewRepository(db)
}

func newSessionStore(repo *postgres.Repository, logger *log.Logger) session.Store {
	if repo != nil && repo.DB != nil {
		logger.Printf("Sessions persisted in PostgreSQL")
		return repo
	}
	return session.NewMemoryStore()
}

func newOutbox() *present.Outbox {
	return present.NewOutbox()
}

func newHub(cfg appconfig.Config, outbox *present.Outbox, logger *log.Logger) *present.Hub {
	hub := present.NewHub()
	hub.SetText(outbox)
	if cfg.Voice.WebhookURL != "" {
		logger.Printf("Voice surface enabled via %s", cfg.Voice.WebhookURL)
		hub.SetVoice(present.NewVoiceWebhook(cfg.Voice.WebhookURL, logger))
	}
	return hub
}

func newPresenter(hub *present.Hub, logger *log.Logger) *present.Presenter {
	return present.NewPresenter(hub, logger)
}

func newTransport(cfg appconfig.Config, logger *log.Logger) *transport.Client {
	return transport.NewClient(
		cfg.Backend.Endpoint,
		cfg.Backend.Nonce,
		time.Duration(cfg.Backend.TimeoutSeconds)*time.Second,
		logger,
	)
}

func newOrchestrator(t *transport.Client, p *present.Presenter, r *events.Recorder, logger *log.Logger) *fulfillment.Orchestrator {
	return fulfillment.NewOrchestrator(t, p, r, logger)
}

func registerWebServer(
	lc fx.Lifecycle,
	cfg appconfig.Config,
	logger *log.Logger,
	shutdowner fx.Shutdowner,
	orch *fulfillment.Orchestrator,
	sessions session.Store,
	outbox *present.Outbox,
	repo *postgres.Repository,
	authzClient authz.Client,
) {
	mux := http.NewServeMux()
	api.RegisterActionRoutes(mux, orch, sessions, authzClient, logger)
	api.RegisterMessageRoutes(mux, outbox, repo, logger)
	api.RegisterSessionRoutes(mux, sessions, logger)

	httpServer := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: withCORS(mux),
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				logger.Printf("API listening on %s", cfg.HTTP.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Printf("API server error: %v", err)
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Simple permissive CORS for the embedded chat widget
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Customer, X-Principal")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	_ = godotenv.Load()

	if err := secrets.BootstrapFromOpenBao(context.Background()); err != nil {
		log.Printf("WARNING: OpenBao bootstrap failed: %v", err)
	}

	app := fx.New(
		fx.Provide(
			appconfig.Load,
			newLogger,
			newKafkaProducer,
			newRecorder,
			newSQLDB,
			newRepository,
			newSessionStore,
			newOutbox,
			newHub,
			newPresenter,
			newTransport,
			newOrchestrator,
			authz.NewFromEnv,
		),
		fx.Invoke(
			func(logger *log.Logger, cfg appconfig.Config) {
				logger.Printf("Starting %s...", cfg.ServiceName)
				logger.Printf("Backend endpoint: %s", cfg.Backend.Endpoint)
			},
			setupTelemetry,
			registerWebServer,
		),
	)

	app.Run()
}
