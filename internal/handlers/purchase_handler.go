package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-purchase-intake/internal/fallback"
	"github.com/imrishuroy/go-purchase-intake/internal/metrics"
	"github.com/imrishuroy/go-purchase-intake/internal/relay"
	"github.com/imrishuroy/go-purchase-intake/internal/validation"
)

// Response codes carried in the body so clients never match on message text.
const (
	CodeRecordedLocally = "RECORDED_LOCALLY"
	CodeNotRecorded     = "NOT_RECORDED"
)

// User facing messages.
const (
	MsgSubmitted       = "Purchase request submitted successfully"
	MsgRecordedLocally = "Your request has been recorded locally, but could not be submitted to the spreadsheet at this time. An administrator will process it later."
	MsgNotRecorded     = "Your request could not be submitted or recorded. Please try again."
	MsgCachedFailed    = "Failed to retrieve cached requests"
)

// Relayer is what the handler needs from the relay.
type Relayer interface {
	Submit(ctx context.Context, req validation.PurchaseRequest) (fallback.Record, error)
	Configured() bool
}

// HandlerConfig groups dependencies for the purchase request handlers.
type HandlerConfig struct {
	Relay   Relayer
	Store   fallback.Store
	Logger  log.FieldLogger
	NowFunc func() time.Time
}

// RegisterPurchaseRoutes registers the /api routes.
func RegisterPurchaseRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	logger := cfg.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	now := cfg.NowFunc
	if now == nil {
		now = time.Now
	}

	api := r.Group("/api")

	api.POST("/purchase-request", func(c *gin.Context) {
		var req validation.PurchaseRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			metrics.PurchaseRequestsTotal.WithLabelValues("rejected").Inc()
			logger.WithError(err).Info("purchase request rejected")
			return
		}

		rec, err := cfg.Relay.Submit(c.Request.Context(), req)
		if err == nil {
			metrics.PurchaseRequestsTotal.WithLabelValues("accepted").Inc()
			c.JSON(http.StatusOK, gin.H{
				"message": MsgSubmitted,
				"success": true,
			})
			return
		}

		entry := logger.WithError(err).WithField("record_id", rec.ID)
		var relayErr *relay.Error
		if errors.As(err, &relayErr) && !relayErr.Preserved {
			metrics.PurchaseRequestsTotal.WithLabelValues("not_recorded").Inc()
			entry.Error("purchase request lost: relay and fallback both failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"message": MsgNotRecorded,
				"error":   err.Error(),
				"success": false,
				"code":    CodeNotRecorded,
			})
			return
		}

		metrics.PurchaseRequestsTotal.WithLabelValues("recorded_locally").Inc()
		entry.Warn("purchase request recorded locally")
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": MsgRecordedLocally,
			"error":   err.Error(),
			"success": false,
			"code":    CodeRecordedLocally,
		})
	})

	api.GET("/cached-requests", func(c *gin.Context) {
		requests, err := cfg.Store.List(c.Request.Context())
		if err != nil {
			logger.WithError(err).Error("failed to list cached requests")
			c.JSON(http.StatusInternalServerError, gin.H{"message": MsgCachedFailed})
			return
		}
		if requests == nil {
			requests = []fallback.Record{}
		}
		c.JSON(http.StatusOK, gin.H{
			"count":    len(requests),
			"requests": requests,
		})
	})

	api.GET("/status", func(c *gin.Context) {
		sheets := "not configured"
		if cfg.Relay.Configured() {
			sheets = "configured"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":       "online",
			"timestamp":    now().UTC().Format(fallback.TimestampLayout),
			"googleSheets": sheets,
		})
	})
}
