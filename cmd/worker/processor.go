package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	log "github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-purchase-intake/internal/aws"
	"github.com/imrishuroy/go-purchase-intake/internal/fallback"
)

// Archiver is the subset of fallback.Store the worker writes to.
type Archiver interface {
	Append(ctx context.Context, rec fallback.Record) error
}

// Processor archives fallback records delivered through SQS.
type Processor struct {
	store Archiver
	log   log.FieldLogger
}

// NewProcessor creates a worker processor writing to store.
func NewProcessor(store Archiver, logger log.FieldLogger) *Processor {
	return &Processor{store: store, log: logger}
}

// Handle processes an SQS batch. Failed messages are reported individually
// so the rest of the batch is not redelivered; repeated failures end up in
// the DLQ.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	counts := map[outcome]int{}

	for _, msg := range ev.Records {
		out, err := p.processMessage(ctx, msg)
		counts[out]++
		if err != nil {
			p.log.WithError(err).WithField("message_id", msg.MessageId).Error("archive failed")
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: msg.MessageId,
			})
		}
	}

	p.log.WithFields(log.Fields{
		"received":  len(ev.Records),
		"archived":  counts[outcomeArchived],
		"duplicate": counts[outcomeDuplicate],
		"failed":    counts[outcomeFailed],
	}).Info("batch processed")
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, msg events.SQSMessage) (outcome, error) {
	var rec fallback.Record
	if err := json.Unmarshal([]byte(msg.Body), &rec); err != nil {
		return outcomeFailed, fmt.Errorf("invalid message body: %w", err)
	}
	if rec.ID == "" {
		if attr, ok := msg.MessageAttributes[aws.AttrRecordID]; ok && attr.StringValue != nil {
			rec.ID = *attr.StringValue
		}
	}
	if rec.ID == "" {
		return outcomeFailed, errors.New("record has no id")
	}

	logger := p.log.WithField("record_id", rec.ID)
	if attr, ok := msg.MessageAttributes[aws.AttrReason]; ok && attr.StringValue != nil {
		logger = logger.WithField("reason", *attr.StringValue)
	}

	err := p.store.Append(ctx, rec)
	if errors.Is(err, fallback.ErrDuplicate) {
		// redelivery of a record already archived
		logger.Info("record already archived")
		return outcomeDuplicate, nil
	}
	if err != nil {
		return outcomeFailed, fmt.Errorf("archive record %s: %w", rec.ID, err)
	}

	logger.WithFields(log.Fields{
		"requester": rec.Name,
		"site":      rec.Site,
		"products":  len(rec.Products),
	}).Info("record archived")
	return outcomeArchived, nil
}
