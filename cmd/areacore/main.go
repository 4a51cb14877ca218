// AREA Core - Automation Rule Engine
//
// This is the main entry point for the AREA Core application. AREA Core
// connects services exposing triggers and reactions into user-defined
// automation areas:
//   - Edge-triggered polling (an area fires on change, not on state)
//   - Per-trigger cron scheduling shared across areas
//   - Ordered, best-effort reaction dispatch with condition gates
//
// For the HTTP surface, see internal/api. For the firing pipeline, see
// internal/engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/area-labs/area-core/migrations"

	"github.com/area-labs/area-core/internal/api"
	"github.com/area-labs/area-core/internal/area"
	"github.com/area-labs/area-core/internal/auth"
	"github.com/area-labs/area-core/internal/engine"
	"github.com/area-labs/area-core/internal/infrastructure/config"
	"github.com/area-labs/area-core/internal/infrastructure/database"
	"github.com/area-labs/area-core/internal/infrastructure/logging"
	"github.com/area-labs/area-core/internal/infrastructure/metrics"
	"github.com/area-labs/area-core/internal/infrastructure/mqtt"
	"github.com/area-labs/area-core/internal/plugin"
	"github.com/area-labs/area-core/internal/scheduler"
	"github.com/area-labs/area-core/internal/services/clock"
	"github.com/area-labs/area-core/internal/services/feed"
	"github.com/area-labs/area-core/internal/services/mqttsvc"
	"github.com/area-labs/area-core/internal/services/reddit"
	"github.com/area-labs/area-core/internal/services/weather"
	"github.com/area-labs/area-core/internal/services/webhook"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	// This is the Go pattern for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting AREA Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise repositories
	userRepo := auth.NewUserRepository(db.DB)
	tokenRepo := auth.NewServiceTokenRepository(db.DB)
	areaRepo := area.NewSQLiteRepository(db.DB)

	// Seed the initial admin account on first boot
	if _, seedErr := auth.SeedAdmin(ctx, userRepo, log.Logger); seedErr != nil {
		return fmt.Errorf("seeding admin account: %w", seedErr)
	}

	// Build the service registry
	registry := plugin.NewRegistry()
	registry.SetLogger(log)

	builtins := []plugin.Service{
		clock.New(),
		weather.New(),
		feed.New(),
		webhook.New(),
	}
	for _, svc := range builtins {
		if regErr := registry.Register(svc); regErr != nil {
			return fmt.Errorf("registering service: %w", regErr)
		}
	}

	// Connect to MQTT broker (optional). The mqtt service is only
	// registered when a broker is configured, so its reactions never
	// appear in the catalogue of a broker-less deployment.
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Host, cfg.MQTT.Port),
			"client_id", cfg.MQTT.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		if regErr := registry.Register(mqttsvc.New(mqttClient)); regErr != nil {
			return fmt.Errorf("registering service: %w", regErr)
		}
	} else {
		log.Info("MQTT disabled")
	}

	// Reddit service (optional, OAuth-backed)
	if cfg.Services.Reddit.Enabled {
		var opts []reddit.Option
		if cfg.Services.Reddit.UserAgent != "" {
			opts = append(opts, reddit.WithUserAgent(cfg.Services.Reddit.UserAgent))
		}
		if regErr := registry.Register(reddit.New(tokenRepo, opts...)); regErr != nil {
			return fmt.Errorf("registering service: %w", regErr)
		}
	} else {
		log.Info("reddit service disabled")
	}

	log.Info("service registry built", "services", len(registry.Services()))

	// Fail fast if the database references plugins this build no longer
	// ships, instead of discovering it one silent firing at a time.
	if valErr := engine.ValidateBindings(ctx, areaRepo, registry); valErr != nil {
		return fmt.Errorf("validating stored bindings: %w", valErr)
	}

	// Build the firing pipeline. The evaluator and scheduler reference
	// each other: the scheduler fires the evaluator, and the evaluator
	// retires jobs whose last qualifying binding has gone away. The
	// jobRemover indirection breaks the construction cycle; sched is
	// assigned before the scheduler starts firing.
	var sched *scheduler.Scheduler

	dispatcher := engine.NewDispatcher(areaRepo, registry)
	dispatcher.SetLogger(log)
	dispatcher.SetExecuteTimeout(cfg.GetExecuteTimeout())

	evaluator := engine.NewEvaluator(areaRepo, registry, jobRemover(func(service, action string) {
		sched.RemoveJob(service, action)
	}), dispatcher)
	evaluator.SetLogger(log)
	evaluator.SetCheckTimeout(cfg.GetCheckTimeout())

	sched = scheduler.New(evaluator)
	sched.SetLogger(log)

	// Create the API server and wire the websocket hub as the engine's
	// event sink before anything starts.
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log,
		DB:       db.DB,
		Areas:    areaRepo,
		Users:    userRepo,
		Tokens:   tokenRepo,
		Registry: registry,
		Runner:   evaluator,
		Jobs:     sched,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	hub := server.Hub()
	evaluator.SetEventSink(hub)
	dispatcher.SetEventSink(hub)

	// Connect to InfluxDB (optional)
	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder, err = metrics.Connect(cfg.Metrics)
		if err != nil {
			// Metrics are observability, not function: a dead recorder
			// must not keep automations from running.
			log.Warn("metrics recorder unavailable, continuing without", "error", err)
			recorder = nil
		} else {
			defer func() {
				log.Info("closing metrics recorder")
				if closeErr := recorder.Close(); closeErr != nil {
					log.Error("error closing metrics recorder", "error", closeErr)
				}
			}()
			recorder.SetOnError(func(err error) {
				log.Error("metrics write error", "error", err)
			})
			evaluator.SetMetrics(recorder)
			dispatcher.SetMetrics(recorder)
			log.Info("metrics recorder connected",
				"url", cfg.Metrics.URL,
				"org", cfg.Metrics.Org,
				"bucket", cfg.Metrics.Bucket,
			)
		}
	} else {
		log.Info("metrics disabled")
	}

	// Rebuild the in-memory job table from the binding store
	if reconcileErr := reconcileJobs(ctx, areaRepo, registry, sched, log); reconcileErr != nil {
		return fmt.Errorf("reconciling scheduler jobs: %w", reconcileErr)
	}
	log.Info("scheduler reconciled", "jobs", sched.JobCount())

	// Verify all connections are healthy
	if healthErr := healthCheck(ctx, db, mqttClient, recorder); healthErr != nil {
		return fmt.Errorf("health check failed: %w", healthErr)
	}
	log.Info("all health checks passed")

	// Start firing and serving
	sched.Start()
	defer sched.Stop()

	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.API.Host, "port", cfg.API.Port)

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server (graceful HTTP shutdown)
	// 2. Scheduler (waits for running firings)
	// 3. Metrics recorder (if enabled)
	// 4. MQTT (if enabled)
	// 5. Database

	log.Info("AREA Core stopped")
	return nil
}

// jobRemover adapts a function to the engine's JobTable interface, so the
// evaluator can be built before the scheduler that depends on it.
type jobRemover func(service, action string)

// RemoveJob implements engine.JobTable.
func (f jobRemover) RemoveJob(service, action string) {
	f(service, action)
}

// getConfigPath returns the configuration file path.
// Uses AREA_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("AREA_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// reconcileJobs rebuilds the scheduler's job table from the binding store.
//
// Each distinct trigger identity referenced by an enabled, private area
// gets one cron job at the cadence its action declares. Identities whose
// action cannot be resolved are skipped with a warning rather than
// blocking boot.
func reconcileJobs(ctx context.Context, repo area.Repository, registry *plugin.Registry, sched *scheduler.Scheduler, log *logging.Logger) error {
	triggers, err := repo.ListEnabledTriggers(ctx)
	if err != nil {
		return fmt.Errorf("listing enabled triggers: %w", err)
	}

	keys := make([]scheduler.TriggerKey, 0, len(triggers))
	for _, t := range triggers {
		act, resolveErr := registry.ResolveAction(t.Service, t.Action)
		if resolveErr != nil {
			log.Warn("skipping unresolvable trigger", "trigger", t.Ref(), "error", resolveErr)
			continue
		}
		keys = append(keys, scheduler.TriggerKey{
			Service: t.Service,
			Action:  t.Action,
			Cron:    act.Cron(),
		})
	}

	return sched.Reconcile(keys)
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - recorder: Metrics recorder to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, recorder *metrics.Recorder) error {
	// Check database
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Check MQTT (if enabled)
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	// Check metrics recorder (if enabled)
	if recorder != nil {
		if err := recorder.HealthCheck(ctx); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	return nil
}
