package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/imrishuroy/go-purchase-intake/internal/fallback"
	"github.com/imrishuroy/go-purchase-intake/internal/validation"
)

// CodeRecordedLocally marks a soft failure: the server kept the request and
// it will be processed by hand.
const CodeRecordedLocally = "RECORDED_LOCALLY"

// SubmitResponse is the 200 body of POST /api/purchase-request.
type SubmitResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// CachedResponse is the body of GET /api/cached-requests.
type CachedResponse struct {
	Count    int               `json:"count"`
	Requests []fallback.Record `json:"requests"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	GoogleSheets string `json:"googleSheets"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// APIError is a non-2xx answer from the intake server.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// RecordedLocally reports whether the server preserved the request.
func (e *APIError) RecordedLocally() bool { return e.Code == CodeRecordedLocally }

// Submitter sends a purchase request to the server.
type Submitter interface {
	SubmitPurchaseRequest(ctx context.Context, req validation.PurchaseRequest) (*SubmitResponse, error)
}

// APIClient talks to the intake HTTP API.
type APIClient struct {
	http *resty.Client
}

// NewAPIClient returns a client for baseURL. The timeout covers the server's
// own relay timeout plus headroom.
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("Accept", "application/json"),
	}
}

func (c *APIClient) SubmitPurchaseRequest(ctx context.Context, req validation.PurchaseRequest) (*SubmitResponse, error) {
	var out SubmitResponse
	var fail errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&out).
		SetError(&fail).
		Post("/api/purchase-request")
	if err != nil {
		return nil, fmt.Errorf("submit purchase request: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{
			StatusCode: resp.StatusCode(),
			Message:    fail.Message,
			Code:       fail.Code,
			Detail:     fail.Error,
		}
	}
	return &out, nil
}

func (c *APIClient) CachedRequests(ctx context.Context) (*CachedResponse, error) {
	var out CachedResponse
	if err := c.get(ctx, "/api/cached-requests", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) Status(ctx context.Context) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.get(ctx, "/api/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) get(ctx context.Context, path string, out any) error {
	var fail errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&fail).
		Get(path)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode(), Message: fail.Message, Code: fail.Code}
	}
	return nil
}
