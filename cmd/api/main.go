package main

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-purchase-intake/internal/aws"
	"github.com/imrishuroy/go-purchase-intake/internal/config"
	"github.com/imrishuroy/go-purchase-intake/internal/fallback"
	"github.com/imrishuroy/go-purchase-intake/internal/handlers"
	"github.com/imrishuroy/go-purchase-intake/internal/logging"
	"github.com/imrishuroy/go-purchase-intake/internal/metrics"
	"github.com/imrishuroy/go-purchase-intake/internal/relay"
)

func setupRouter(cfg handlers.HandlerConfig, logger log.FieldLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.Middleware(logger))
	r.Use(metrics.PrometheusMiddleware())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterPurchaseRoutes(r, cfg)

	return r
}

// buildRelay wires the fallback store and the diversion hooks chosen by cfg.
func buildRelay(ctx context.Context, cfg config.Config, logger *log.Logger) (*relay.Relay, error) {
	var (
		store fallback.Store = fallback.NewMemoryStore()
		hooks []relay.Hook
	)

	if cfg.NeedsAWS() {
		clients, err := aws.NewAWSClients(ctx)
		if err != nil {
			return nil, err
		}
		if cfg.FallbackBackend == config.BackendDynamoDB {
			store = fallback.NewDynamoStore(clients.DynamoDB, cfg.FallbackTable)
		}
		if cfg.FallbackQueueURL != "" {
			hooks = append(hooks, relay.NewQueueHook(aws.NewPublisher(clients.SQS, cfg.FallbackQueueURL)))
		}
		if cfg.MetricsNamespace != "" {
			hooks = append(hooks, relay.NewMetricHook(aws.NewMetricsPublisher(clients.CloudWatch, cfg.MetricsNamespace)))
		}
	}

	logger.WithFields(log.Fields{
		"backend":      cfg.FallbackBackend,
		"hooks":        len(hooks),
		"sheets":       cfg.SheetsURL != "",
		"relayTimeout": cfg.RelayTimeout.String(),
	}).Info("relay configured")

	return relay.New(cfg.SheetsURL, cfg.RelayTimeout, store,
		relay.WithHooks(hooks...),
		relay.WithLogger(logger),
	), nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	rl, err := buildRelay(context.Background(), cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to init aws clients")
	}
	if !rl.Configured() {
		logger.Warn("GOOGLE_SHEETS_APP_URL not set: requests are only stored locally")
	}

	r := setupRouter(handlers.HandlerConfig{
		Relay:  rl,
		Store:  rl.Store(),
		Logger: logger,
	}, logger)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if cfg.RunLocal {
		addr := ":" + cfg.Port
		logger.Infof("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			logger.WithError(err).Fatal("failed to run local server")
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
