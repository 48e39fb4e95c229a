// Gray Logic Zigbee - zigbee2mqtt adapter
//
// This is the main entry point for the Gray Logic Zigbee bridge. It connects
// to one or more zigbee2mqtt instances over MQTT, maintains a live model of
// their devices from a capability catalog, and exposes that model over an
// HTTP/WebSocket API with optional audit history, InfluxDB telemetry and a
// Redis state mirror.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nerrad567/gray-logic-zigbee/internal/api"
	"github.com/nerrad567/gray-logic-zigbee/internal/bridges/zigbee"
	"github.com/nerrad567/gray-logic-zigbee/internal/catalog"
	"github.com/nerrad567/gray-logic-zigbee/internal/history"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-zigbee/internal/statecache"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Deferred cleanups run in reverse order, so the adapter stops before the
// sinks it feeds and the connections they write to.
func run(ctx context.Context) error { //nolint:gocognit,funlen // linear start-up sequence
	log := logging.Default()
	log.Info("starting Gray Logic Zigbee",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"prefixes", cfg.Prefixes,
		"level", cfg.Logging.Level,
	)

	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	log.Info("model catalog loaded", "models", cat.Len(), "file", cfg.Catalog.File)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := zigbee.NewMetrics(registry)

	var hosts zigbee.Hosts

	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	hosts = append(hosts, hub)

	// Database and audit history (optional)
	var historyRepo *history.Repository
	if cfg.Database.Enabled {
		db, dbErr := database.Open(ctx, cfg.Database)
		if dbErr != nil {
			return fmt.Errorf("opening database: %w", dbErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database connected", "path", db.Path())

		if cfg.History.Enabled {
			if migrateErr := db.Migrate(ctx, history.Migrations); migrateErr != nil {
				return fmt.Errorf("running history migrations: %w", migrateErr)
			}
			historyRepo = history.NewRepository(db.DB)
			recorder := history.NewRecorder(historyRepo, history.RecorderConfig{
				Retention: time.Duration(cfg.History.RetentionDays) * 24 * time.Hour,
				Logger:    log.Component("history"),
			})
			recorder.Start(ctx)
			defer recorder.Stop()
			hosts = append(hosts, recorder)
			log.Info("history enabled", "retention_days", cfg.History.RetentionDays)
		}
	}

	// InfluxDB telemetry (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(ctx, cfg.InfluxDB)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		hosts = append(hosts, influxdb.NewRecorder(influxClient))
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Redis state mirror (optional)
	if cfg.Redis.Enabled {
		cache, redisErr := statecache.Connect(ctx, cfg.Redis)
		if redisErr != nil {
			return fmt.Errorf("connecting to Redis: %w", redisErr)
		}
		defer func() {
			if closeErr := cache.Close(); closeErr != nil {
				log.Error("error closing Redis", "error", closeErr)
			}
		}()
		mirror := statecache.NewMirror(cache, log.Component("statecache"))
		mirror.Start(ctx)
		defer mirror.Stop()
		hosts = append(hosts, mirror)
		log.Info("Redis state mirror enabled", "addr", cfg.Redis.Addr)
	}

	adapter, err := zigbee.NewAdapter(zigbee.Options{
		Catalog:        cat,
		Prefixes:       cfg.Prefixes,
		Dial:           dialer(cfg.MQTT, log),
		QoS:            byte(cfg.MQTT.QoS), // #nosec G115 -- validated to 0..2
		Host:           hosts,
		Logger:         log.Component("zigbee"),
		Metrics:        metrics,
		BridgeID:       cfg.Bridge.ID,
		Version:        version,
		HealthInterval: time.Duration(cfg.Bridge.HealthInterval) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("creating adapter: %w", err)
	}

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log.Component("api"),
		Bridge:   adapter,
		History:  historyReader(historyRepo),
		Gatherer: registry,
		Hub:      hub,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := adapter.Start(ctx); err != nil {
		return fmt.Errorf("starting adapter: %w", err)
	}
	defer func() {
		log.Info("stopping adapter")
		adapter.Stop()
	}()
	if err := healthCheck(adapter); err != nil {
		log.Warn("adapter started without a live broker connection", "error", err)
	} else {
		log.Info("adapter started", "prefixes", cfg.Prefixes)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_ZIGBEE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_ZIGBEE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadCatalog returns the built-in catalog, overlaid with the configured
// file when one is set.
func loadCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	cat := catalog.Builtin()
	if cfg.File == "" {
		return cat, nil
	}
	extra, err := catalog.LoadFile(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return cat.Merge(extra), nil
}

// dialer opens one broker connection per prefix, each with its own client
// ID so the broker does not kick the others off.
func dialer(cfg config.MQTTConfig, log *logging.Logger) zigbee.DialFunc {
	return func(prefix string) (zigbee.BusClient, error) {
		prefixCfg := cfg
		prefixCfg.Broker.ClientID = mqtt.ClientIDForPrefix(cfg.Broker.ClientID, prefix)

		client, err := mqtt.Connect(prefixCfg)
		if err != nil {
			return nil, err
		}

		connLog := log.Component("mqtt").With("prefix", prefix, "client_id", prefixCfg.Broker.ClientID)
		client.SetLogger(connLog)
		client.SetOnConnect(func() {
			connLog.Info("MQTT reconnected")
		})
		client.SetOnDisconnect(func(err error) {
			connLog.Warn("MQTT disconnected", "error", err)
		})
		connLog.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		)
		return client, nil
	}
}

// historyReader avoids handing the API a typed nil.
func historyReader(repo *history.Repository) api.HistoryReader {
	if repo == nil {
		return nil
	}
	return repo
}

var errNoConnection = errors.New("no prefix connection is up")

// healthCheck reports whether at least one prefix connection is up.
func healthCheck(adapter interface {
	Connections() []zigbee.ConnectionStatus
}) error {
	for _, c := range adapter.Connections() {
		if c.Connected {
			return nil
		}
	}
	return errNoConnection
}
