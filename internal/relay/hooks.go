package relay

import (
	"context"

	"github.com/imrishuroy/go-purchase-intake/internal/aws"
	"github.com/imrishuroy/go-purchase-intake/internal/fallback"
)

// Hook is told about every record that lands in the fallback store.
type Hook interface {
	RecordDiverted(ctx context.Context, rec fallback.Record, reason string) error
}

// QueueHook publishes diverted records to SQS for the archive worker and
// whoever processes them by hand.
type QueueHook struct {
	publisher *aws.Publisher
}

func NewQueueHook(p *aws.Publisher) *QueueHook {
	return &QueueHook{publisher: p}
}

func (h *QueueHook) RecordDiverted(ctx context.Context, rec fallback.Record, reason string) error {
	return h.publisher.SendJSON(ctx, rec, map[string]string{
		aws.AttrRecordID: rec.ID,
		aws.AttrReason:   reason,
		aws.AttrSite:     rec.Site,
	})
}

// MetricHook counts diverted records in CloudWatch.
type MetricHook struct {
	metrics *aws.MetricsPublisher
}

func NewMetricHook(m *aws.MetricsPublisher) *MetricHook {
	return &MetricHook{metrics: m}
}

func (h *MetricHook) RecordDiverted(ctx context.Context, _ fallback.Record, reason string) error {
	return h.metrics.Count(ctx, "FallbackRecords", map[string]string{"Reason": reason})
}
