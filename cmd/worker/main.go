package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/go-purchase-intake/internal/aws"
	"github.com/imrishuroy/go-purchase-intake/internal/config"
	"github.com/imrishuroy/go-purchase-intake/internal/fallback"
	"github.com/imrishuroy/go-purchase-intake/internal/logging"
	"github.com/imrishuroy/go-purchase-intake/internal/validation"
)

// localEvent builds a one-message batch for RUN_LOCAL testing. The body comes
// from LOCAL_SQS_BODY or a generated sample record.
func localEvent() (events.SQSEvent, error) {
	body := os.Getenv("LOCAL_SQS_BODY")
	if body == "" {
		rec := fallback.NewRecord(validation.PurchaseRequest{
			Name:          "Local Tester",
			Position:      "Operator",
			Department:    "Maintenance",
			Site:          "Local",
			RequestType:   "Purchase Order",
			Justification: "local worker run",
			Products:      []validation.LineItem{{Name: "Gloves", Quantity: "1"}},
		}, time.Now())
		b, err := json.Marshal(rec)
		if err != nil {
			return events.SQSEvent{}, err
		}
		body = string(b)
	}
	return events.SQSEvent{
		Records: []events.SQSMessage{{MessageId: "local-1", Body: body}},
	}, nil
}

func main() {
	cfg, err := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger.WithError(err).Fatal("failed to load config")
	}

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		logger.WithError(err).Fatal("failed to init aws clients")
	}

	p := NewProcessor(fallback.NewDynamoStore(clients.DynamoDB, cfg.FallbackTable), logger)

	// If RUN_LOCAL=true, process a single simulated SQS event and exit.
	if cfg.RunLocal {
		ev, err := localEvent()
		if err != nil {
			logger.WithError(err).Fatal("failed to build local event")
		}
		resp, err := p.Handle(context.Background(), ev)
		if err != nil || len(resp.BatchItemFailures) > 0 {
			logger.WithError(err).WithField("failures", len(resp.BatchItemFailures)).Fatal("local handler error")
		}
		return
	}

	lambda.Start(p.Handle)
}
