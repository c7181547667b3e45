package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imrishuroy/go-purchase-intake/internal/fallback"
	"github.com/imrishuroy/go-purchase-intake/internal/relay"
	"github.com/imrishuroy/go-purchase-intake/internal/validation"
)

const validBody = `{"name":"Ana","position":"Aux","department":"Calidad","site":"Planta",
	"requestType":"Orden de Compra","justification":"Reposición",
	"products":[{"name":"Guantes","quantity":"10"}]}`

type spyRelay struct {
	calls      int
	configured bool
	err        error
}

func (s *spyRelay) Submit(_ context.Context, req validation.PurchaseRequest) (fallback.Record, error) {
	s.calls++
	return fallback.NewRecord(req, time.Now()), s.err
}

func (s *spyRelay) Configured() bool { return s.configured }

type brokenStore struct{ fallback.MemoryStore }

func (b *brokenStore) List(context.Context) ([]fallback.Record, error) {
	return nil, errors.New("scan failed")
}

func quietLogger() log.FieldLogger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func newRouter(cfg HandlerConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	RegisterPurchaseRoutes(r, cfg)
	return r
}

func do(r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestPurchaseRequest_NoEndpoint_RecordsAndSucceeds(t *testing.T) {
	store := fallback.NewMemoryStore()
	rl := relay.New("", time.Second, store, relay.WithLogger(quietLogger()))
	r := newRouter(HandlerConfig{Relay: rl, Store: store})

	const n = 3
	for i := 0; i < n; i++ {
		w, body := do(r, http.MethodPost, "/api/purchase-request", validBody)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, MsgSubmitted, body["message"])
	}

	count, _ := store.Count(context.Background())
	assert.Equal(t, n, count)
}

func TestPurchaseRequest_EmptyProducts_Rejected(t *testing.T) {
	store := fallback.NewMemoryStore()
	spy := &spyRelay{}
	r := newRouter(HandlerConfig{Relay: spy, Store: store})

	body := `{"name":"Ana","position":"Aux","department":"Calidad","site":"Planta",
		"requestType":"Orden de Compra","justification":"Reposición","products":[]}`
	w, resp := do(r, http.MethodPost, "/api/purchase-request", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, validation.ReasonNoProducts, resp["message"])
	assert.Zero(t, spy.calls)
	count, _ := store.Count(context.Background())
	assert.Zero(t, count)
}

func TestPurchaseRequest_MissingScalarField_NeverRelays(t *testing.T) {
	spy := &spyRelay{}
	r := newRouter(HandlerConfig{Relay: spy, Store: fallback.NewMemoryStore()})

	for _, field := range []string{"name", "position", "department", "site", "requestType", "justification"} {
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(validBody), &payload))
		delete(payload, field)
		raw, _ := json.Marshal(payload)

		w, resp := do(r, http.MethodPost, "/api/purchase-request", string(raw))
		assert.Equal(t, http.StatusBadRequest, w.Code, field)
		assert.Equal(t, validation.ReasonMissingFields, resp["message"], field)
	}
	assert.Zero(t, spy.calls)
}

func TestPurchaseRequest_MalformedBody(t *testing.T) {
	spy := &spyRelay{}
	r := newRouter(HandlerConfig{Relay: spy, Store: fallback.NewMemoryStore()})

	w, resp := do(r, http.MethodPost, "/api/purchase-request", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, validation.CodeInvalidBody, resp["code"])
	assert.Zero(t, spy.calls)
}

func TestPurchaseRequest_EndpointFails_RecordedLocally(t *testing.T) {
	sheets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer sheets.Close()

	store := fallback.NewMemoryStore()
	rl := relay.New(sheets.URL, time.Second, store, relay.WithLogger(quietLogger()))
	r := newRouter(HandlerConfig{Relay: rl, Store: store})

	w, resp := do(r, http.MethodPost, "/api/purchase-request", validBody)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, MsgRecordedLocally, resp["message"])
	assert.Equal(t, CodeRecordedLocally, resp["code"])
	assert.Contains(t, resp["error"], "503")

	list, _ := store.List(context.Background())
	require.Len(t, list, 1)
	assert.Equal(t, "Ana", list[0].Name)
	assert.Equal(t, "Guantes", list[0].Products[0].Name)
	assert.NotEmpty(t, list[0].Timestamp)
}

func TestPurchaseRequest_EndpointOK_StoreDoesNotGrow(t *testing.T) {
	sheets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer sheets.Close()

	store := fallback.NewMemoryStore()
	rl := relay.New(sheets.URL, time.Second, store, relay.WithLogger(quietLogger()))
	r := newRouter(HandlerConfig{Relay: rl, Store: store})

	w, resp := do(r, http.MethodPost, "/api/purchase-request", validBody)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	count, _ := store.Count(context.Background())
	assert.Zero(t, count)
}

func TestPurchaseRequest_NotPreserved(t *testing.T) {
	spy := &spyRelay{err: &relay.Error{Cause: errors.New("timeout"), StoreErr: errors.New("table missing")}}
	r := newRouter(HandlerConfig{Relay: spy, Store: fallback.NewMemoryStore()})

	w, resp := do(r, http.MethodPost, "/api/purchase-request", validBody)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeNotRecorded, resp["code"])
	assert.Equal(t, MsgNotRecorded, resp["message"])
}

func TestCachedRequests(t *testing.T) {
	store := fallback.NewMemoryStore()
	rl := relay.New("", time.Second, store, relay.WithLogger(quietLogger()))
	r := newRouter(HandlerConfig{Relay: rl, Store: store})

	w, resp := do(r, http.MethodGet, "/api/cached-requests", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), resp["count"])
	assert.Equal(t, []any{}, resp["requests"])

	do(r, http.MethodPost, "/api/purchase-request", validBody)
	do(r, http.MethodPost, "/api/purchase-request", validBody)

	w, resp = do(r, http.MethodGet, "/api/cached-requests", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), resp["count"])
	requests := resp["requests"].([]any)
	first := requests[0].(map[string]any)
	assert.Equal(t, "Planta", first["site"])
	assert.Equal(t, "Orden de Compra", first["requestType"])
	assert.NotEmpty(t, first["timestamp"])
}

func TestCachedRequests_StoreError(t *testing.T) {
	r := newRouter(HandlerConfig{Relay: &spyRelay{}, Store: &brokenStore{}})

	w, resp := do(r, http.MethodGet, "/api/cached-requests", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, MsgCachedFailed, resp["message"])
}

func TestStatus(t *testing.T) {
	fixed := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	r := newRouter(HandlerConfig{Relay: &spyRelay{}, Store: fallback.NewMemoryStore(), NowFunc: func() time.Time { return fixed }})
	w, resp := do(r, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "online", resp["status"])
	assert.Equal(t, "not configured", resp["googleSheets"])
	assert.Equal(t, "2026-10-19T09:00:00.000Z", resp["timestamp"])

	r = newRouter(HandlerConfig{Relay: &spyRelay{configured: true}, Store: fallback.NewMemoryStore()})
	_, resp = do(r, http.MethodGet, "/api/status", "")
	assert.Equal(t, "configured", resp["googleSheets"])
}
