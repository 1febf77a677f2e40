// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"expo-chat-workers/internal/common/camunda"
	"expo-chat-workers/internal/common/config"
	"expo-chat-workers/internal/common/database"
	"expo-chat-workers/internal/common/logger"
	"expo-chat-workers/internal/common/observability"
	"expo-chat-workers/internal/knowledge"
	"expo-chat-workers/internal/knowledge/overlay"

	// Chat Workers (4)
	cr "expo-chat-workers/internal/workers/chat/compose-reply"
	di "expo-chat-workers/internal/workers/chat/detect-intent"
	st "expo-chat-workers/internal/workers/chat/select-template"
	te "expo-chat-workers/internal/workers/chat/track-engagement"

	// Data Access Workers (1)
	qf "expo-chat-workers/internal/workers/data-access/query-financials"

	// Communication Workers (1)
	ni "expo-chat-workers/internal/workers/communication/notify-inquiry"

	// Admin Workers (1)
	ao "expo-chat-workers/internal/workers/admin/activate-overlay"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         30 * time.Second,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Knowledge pipeline ---
	// Overlay precedence: baseline first, then database, JSON file, CSV
	// file. Later sources win on conflicting paths.
	dbLoader := overlay.NewDatabaseLoader(
		pg.DB,
		config.GetDuration(cfg.Knowledge.CacheTTL),
		config.GetDuration(cfg.Knowledge.NegativeTTL),
	)
	builder := knowledge.NewBuilder(
		knowledge.DefaultBaseline(),
		log,
		dbLoader,
		overlay.NewJSONFileLoader(cfg.Knowledge.JSONPath),
		overlay.NewCSVFileLoader(cfg.Knowledge.CSVPath),
	)
	zapLog.Info("Knowledge pipeline initialized",
		zap.String("jsonPath", cfg.Knowledge.JSONPath),
		zap.String("csvPath", cfg.Knowledge.CSVPath),
	)

	// --- START: Register ALL 7 Workers ---
	var workers []*camunda.Worker

	// --- 1. Chat Workers (4) ---
	if wcfg := config.GetWorkerConfig(cfg, di.TaskType); wcfg.Enabled {
		handler := di.NewHandler(
			&di.Config{
				Timeout: time.Duration(wcfg.Timeout) * time.Millisecond,
			},
			log,
		)
		workers = append(workers, startWorker(zeebeClient, di.TaskType, wcfg, handler.Handle, obs, zapLog))
	}

	if wcfg := config.GetWorkerConfig(cfg, st.TaskType); wcfg.Enabled {
		handler, err := st.NewHandler(
			&st.Config{
				RegistryPath:   cfg.Chat.RegistryPath,
				FallbackIntent: cfg.Chat.FallbackIntent,
				CacheTTL:       config.GetDuration(cfg.Chat.RegistryCacheTTL),
				Timeout:        time.Duration(wcfg.Timeout) * time.Millisecond,
			},
			log,
		)
		if err != nil {
			zapLog.Fatal("failed to create select-template handler", zap.Error(err))
		}
		workers = append(workers, startWorker(zeebeClient, st.TaskType, wcfg, handler.Handle, obs, zapLog))
	}

	if wcfg := config.GetWorkerConfig(cfg, cr.TaskType); wcfg.Enabled {
		handler := cr.NewHandler(
			&cr.Config{
				MaxReplyLength: cfg.Chat.MaxReplyLength,
				SessionTTL:     config.GetDuration(cfg.Chat.SessionCacheTTL),
				Timeout:        time.Duration(wcfg.Timeout) * time.Millisecond,
			},
			builder, redis.Client, log,
		)
		workers = append(workers, startWorker(zeebeClient, cr.TaskType, wcfg, handler.Handle, obs, zapLog))
	}

	if wcfg := config.GetWorkerConfig(cfg, te.TaskType); wcfg.Enabled {
		handler := te.NewHandler(
			&te.Config{
				Index:      cfg.Knowledge.SnapshotIndex,
				CounterTTL: config.GetDuration(cfg.Knowledge.EngagementTTL),
				Timeout:    time.Duration(wcfg.Timeout) * time.Millisecond,
			},
			&te.ESIndexer{Client: esClient.Client}, redis.Client, log,
		)
		workers = append(workers, startWorker(zeebeClient, te.TaskType, wcfg, handler.Handle, obs, zapLog))
	}

	// --- 2. Data Access Workers (1) ---
	if wcfg := config.GetWorkerConfig(cfg, qf.TaskType); wcfg.Enabled {
		handler := qf.NewHandler(
			&qf.Config{
				Timeout:  time.Duration(wcfg.Timeout) * time.Millisecond,
				CacheTTL: 5 * time.Minute,
			},
			pg.DB, redis.Client, log,
		)
		workers = append(workers, startWorker(zeebeClient, qf.TaskType, wcfg, handler.Handle, obs, zapLog))
	}

	// --- 3. Communication Workers (1) ---
	if wcfg := config.GetWorkerConfig(cfg, ni.TaskType); wcfg.Enabled {
		handler, err := ni.NewHandler(
			&ni.Config{
				SalesTeamEmail:   cfg.Notifications.Email.SalesTeam,
				SalesOnCallPhone: cfg.Notifications.SMS.OnCallPhone,
				FromEmail:        cfg.Notifications.Email.FromEmail,
				AWSRegion:        cfg.Notifications.AWS.Region,
				EmailEnabled:     cfg.Notifications.Email.Enabled,
				SMSEnabled:       cfg.Notifications.SMS.Enabled,
				Timeout:          time.Duration(wcfg.Timeout) * time.Millisecond,
			},
			pg.DB, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create notify-inquiry handler", zap.Error(err))
		}
		workers = append(workers, startWorker(zeebeClient, ni.TaskType, wcfg, handler.Handle, obs, zapLog))
	}

	// --- 4. Admin Workers (1) ---
	if wcfg := config.GetWorkerConfig(cfg, ao.TaskType); wcfg.Enabled {
		handler, err := ao.NewHandler(
			&ao.Config{
				SchemaPath: cfg.Knowledge.OverlaySchema,
				Timeout:    time.Duration(wcfg.Timeout) * time.Millisecond,
			},
			pg.DB, dbLoader, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create activate-overlay handler", zap.Error(err))
		}
		workers = append(workers, startWorker(zeebeClient, ao.TaskType, wcfg, handler.Handle, obs, zapLog))
	}

	zapLog.Info("All 7 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := camundaClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range workers {
		w.Close()
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc camunda.HandlerFunc, obs *observability.Observability, log *zap.Logger) *camunda.Worker {
	return camunda.NewWorker(
		client,
		taskType,
		wcfg.MaxJobsActive,
		time.Duration(wcfg.Timeout)*time.Millisecond,
		handlerFunc,
		obs,
		log,
	)
}
