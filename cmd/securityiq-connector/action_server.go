package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/commvault-security/securityiq-connector/internal/actions"
	"github.com/commvault-security/securityiq-connector/internal/cases"
	"github.com/commvault-security/securityiq-connector/internal/config"
	"github.com/commvault-security/securityiq-connector/internal/controller/api"
	"github.com/commvault-security/securityiq-connector/internal/cursor"
	"github.com/commvault-security/securityiq-connector/internal/domain"
	"github.com/commvault-security/securityiq-connector/internal/platform/db"
	"github.com/commvault-security/securityiq-connector/internal/platform/logger"
	"github.com/commvault-security/securityiq-connector/internal/platform/queue"
	"github.com/commvault-security/securityiq-connector/internal/platform/utils"
	"github.com/commvault-security/securityiq-connector/internal/poller"
	"github.com/commvault-security/securityiq-connector/internal/remote"
	"github.com/redhatinsights/platform-go-middlewares/request_id"

	"github.com/gorilla/mux"
)

func buildCursorStore(cfg *config.Config) cursor.Store {

	logger.Log.Infof("Using \"%s\" ingestion cursor store impl", cfg.CursorStoreImpl)

	if cfg.CursorStoreImpl == "memory" {
		return cursor.NewMemoryStore()
	}

	database, err := db.InitializeDatabaseConnection(cfg)
	if err != nil {
		logger.LogFatalError("Unable to connect to database: ", err)
	}

	sqlStore, err := cursor.NewSqlStore(database)
	if err != nil {
		logger.LogFatalError("Unable to create sql ingestion cursor store", err)
	}

	cachedStore, err := cursor.NewCachedStore(sqlStore, cfg.CursorCacheSize)
	if err != nil {
		logger.LogFatalError("Unable to create cached ingestion cursor store", err)
	}

	return cachedStore
}

func buildCaseCreatorFactory(cfg *config.Config) func(asset domain.AssetConfig) cases.CaseCreator {

	logger.Log.Infof("Using \"%s\" case creator impl", cfg.CaseCreatorImpl)

	if cfg.CaseCreatorImpl == "fake" {
		return func(asset domain.AssetConfig) cases.CaseCreator {
			return &cases.FakeCaseCreator{}
		}
	}

	return func(asset domain.AssetConfig) cases.CaseCreator {
		return cases.NewRestCaseCreator(cfg.SoarBaseUrl, asset.PlatformAPIToken, cfg.SoarCallTimeout)
	}
}

func buildCaseNotifier(cfg *config.Config) poller.CaseNotifier {

	if !cfg.CaseEventsKafkaEnabled {
		return nil
	}

	logger.Log.Info("Publishing case created events to kafka topic ", cfg.KafkaCaseEventsTopic)

	kafkaProducer := queue.StartProducer(&queue.ProducerConfig{
		Brokers:    cfg.KafkaBrokers,
		Topic:      cfg.KafkaCaseEventsTopic,
		BatchSize:  cfg.KafkaCaseEventsBatchSize,
		BatchBytes: cfg.KafkaCaseEventsBatchBytes,
		Balancer:   "hash",
		SaslConfig: &queue.SaslConfig{
			SaslMechanism: cfg.KafkaSASLMechanism,
			SaslUsername:  cfg.KafkaUsername,
			SaslPassword:  cfg.KafkaPassword,
			KafkaCA:       cfg.KafkaCA,
		},
	})

	return cases.NewKafkaCaseNotifier(kafkaProducer)
}

func buildDispatcherFactory(cfg *config.Config, cursorStore cursor.Store, notifier poller.CaseNotifier) api.DispatcherFactory {

	caseCreatorFactory := buildCaseCreatorFactory(cfg)
	backfill := time.Duration(cfg.PollBackfillDays) * 24 * time.Hour

	return func(asset domain.AssetConfig) api.ActionDispatcher {

		client := remote.NewClient(asset, cfg.RemoteCallTimeout)

		engineOptions := []poller.EngineOption{poller.WithBackfill(backfill)}
		if notifier != nil {
			engineOptions = append(engineOptions, poller.WithNotifier(notifier))
		}

		engine := poller.NewEngine(client, cursorStore, caseCreatorFactory(asset), engineOptions...)

		return actions.NewExecutor(client, engine, cfg.DefaultContainerCount)
	}
}

func startActionServer(listenAddr string) {

	logger.InitLogger()
	defer logger.FlushLogger()

	logger.Log.Info("Starting SecurityIQ-Connector service")

	cfg := config.GetConfig()
	logger.Log.Info("SecurityIQ-Connector configuration:\n", cfg)

	cursorStore := buildCursorStore(cfg)
	notifier := buildCaseNotifier(cfg)

	apiMux := mux.NewRouter()
	apiMux.Use(request_id.ConfiguredRequestID("x-request-id"))

	monitoringServer := api.NewMonitoringServer(apiMux, cfg)
	monitoringServer.Routes()

	actionReceiver := api.NewActionReceiver(buildDispatcherFactory(cfg, cursorStore, notifier), apiMux, cfg.UrlBasePath, cfg)
	actionReceiver.Routes()

	apiSrv := utils.StartHTTPServer(listenAddr, "action api", apiMux)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-signalChan
	logger.Log.Info("Received signal to shutdown: ", sig)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HttpShutdownTimeout)
	defer cancel()

	utils.ShutdownHTTPServer(ctx, "action api", apiSrv)

	logger.Log.Info("SecurityIQ-Connector shutting down")
}
