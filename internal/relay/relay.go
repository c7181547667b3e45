package relay

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-purchase-intake/internal/fallback"
	"github.com/imrishuroy/go-purchase-intake/internal/metrics"
	"github.com/imrishuroy/go-purchase-intake/internal/validation"
)

// Reasons a record is diverted to the fallback store.
const (
	ReasonNotConfigured = "not_configured"
	ReasonRelayFailed   = "relay_failed"
)

// Error is returned by Submit when a relay attempt fails. Preserved tells the
// caller whether the record made it into the fallback store.
type Error struct {
	Cause     error // relay failure; nil in offline mode
	StoreErr  error // fallback append failure, if any
	Preserved bool
}

func (e *Error) Error() string {
	switch {
	case e.StoreErr == nil:
		return e.Cause.Error()
	case e.Cause == nil:
		return "fallback append: " + e.StoreErr.Error()
	default:
		return e.Cause.Error() + "; fallback append: " + e.StoreErr.Error()
	}
}

func (e *Error) Unwrap() []error {
	var errs []error
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	if e.StoreErr != nil {
		errs = append(errs, e.StoreErr)
	}
	return errs
}

// Relay forwards validated purchase requests to the spreadsheet endpoint and
// keeps a copy in the fallback store when that is not possible.
type Relay struct {
	endpoint string
	client   *resty.Client
	store    fallback.Store
	hooks    []Hook
	log      log.FieldLogger
	nowFunc  func() time.Time
}

// Option configures a Relay.
type Option func(*Relay)

// WithHooks registers hooks fired after a record is diverted.
func WithHooks(hooks ...Hook) Option {
	return func(r *Relay) { r.hooks = append(r.hooks, hooks...) }
}

// WithLogger sets the logger.
func WithLogger(l log.FieldLogger) Option {
	return func(r *Relay) { r.log = l }
}

// WithClock overrides time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.nowFunc = now }
}

// New returns a Relay posting to endpoint. An empty endpoint puts the relay
// in offline mode: every request goes to the store and is reported as a
// success.
func New(endpoint string, timeout time.Duration, store fallback.Store, opts ...Option) *Relay {
	r := &Relay{
		endpoint: endpoint,
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0), // exactly one attempt per submission
		store:   store,
		log:     log.StandardLogger(),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Configured reports whether an external endpoint is set.
func (r *Relay) Configured() bool { return r.endpoint != "" }

// Store returns the fallback store.
func (r *Relay) Store() fallback.Store { return r.store }

// Submit stamps req and relays it. The caller's cancellation is ignored:
// once started, the attempt runs until it completes or times out.
func (r *Relay) Submit(ctx context.Context, req validation.PurchaseRequest) (fallback.Record, error) {
	ctx = context.WithoutCancel(ctx)
	rec := fallback.NewRecord(req, r.nowFunc())
	logger := r.log.WithFields(log.Fields{
		"record_id": rec.ID,
		"requester": rec.Name,
		"site":      rec.Site,
		"products":  len(rec.Products),
	})

	if !r.Configured() {
		metrics.RelayAttempts.WithLabelValues(metrics.OutcomeNotConfigured).Inc()
		logger.Info("no spreadsheet endpoint configured, storing request locally")
		if err := r.divert(ctx, rec, ReasonNotConfigured, logger); err != nil {
			return rec, &Error{StoreErr: err}
		}
		return rec, nil
	}

	logger.Info("sending request to spreadsheet")
	err := r.post(ctx, rec, logger)
	if err == nil {
		metrics.RelayAttempts.WithLabelValues(metrics.OutcomeRelayed).Inc()
		return rec, nil
	}

	metrics.RelayAttempts.WithLabelValues(metrics.OutcomeFailed).Inc()
	logger.WithError(err).Error("relay to spreadsheet failed, storing request locally")
	if storeErr := r.divert(ctx, rec, ReasonRelayFailed, logger); storeErr != nil {
		return rec, &Error{Cause: err, StoreErr: storeErr}
	}
	return rec, &Error{Cause: err, Preserved: true}
}

func (r *Relay) post(ctx context.Context, rec fallback.Record, logger log.FieldLogger) error {
	start := time.Now()
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(rec).
		Post(r.endpoint)
	metrics.RelayDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("post to spreadsheet: %w", err)
	}

	logger.WithField("status", resp.StatusCode()).Debug("spreadsheet responded")
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("spreadsheet endpoint returned status %d", resp.StatusCode())
	}
	return nil
}

// divert appends rec to the store and fires the hooks. Hook failures are
// logged only.
func (r *Relay) divert(ctx context.Context, rec fallback.Record, reason string, logger log.FieldLogger) error {
	if err := r.store.Append(ctx, rec); err != nil {
		logger.WithError(err).Error("failed to store request locally")
		return err
	}
	metrics.FallbackRecords.Inc()

	if total, err := r.store.Count(ctx); err == nil {
		logger.WithField("total_cached", total).Info("request stored locally")
	}

	for _, h := range r.hooks {
		if err := h.RecordDiverted(ctx, rec, reason); err != nil {
			logger.WithError(err).Warn("fallback hook failed")
		}
	}
	return nil
}
