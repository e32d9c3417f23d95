package in

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
	syncsvc "github.com/alaalsalam/hisabi-backend/internal/services/sync"
)

// The fakes below are deliberately hand-rolled rather than generated mocks —
// this package only needs enough of each ports interface to drive one
// request through the handler, and a fake makes the test's HTTP-level
// assertions read as what they are: request in, response out.

type memStorage struct {
	mu   sync.Mutex
	rows map[string]*syncdomain.Entity
}

func newMemStorage() *memStorage { return &memStorage{rows: map[string]*syncdomain.Entity{}} }

func key(walletID, entityType, entityID string) string { return walletID + "|" + entityType + "|" + entityID }

func (s *memStorage) Get(_ context.Context, walletID, entityType, entityID string) (*syncdomain.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.rows[key(walletID, entityType, entityID)]
	if !ok {
		return nil, nil
	}

	cp := *e

	return &cp, nil
}

func (s *memStorage) Put(_ context.Context, e *syncdomain.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	s.rows[key(e.WalletID, e.EntityType, e.EntityID)] = &cp

	return nil
}

func (s *memStorage) ScanSince(_ context.Context, walletID string, since int64, limit int) ([]syncdomain.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []syncdomain.Entity

	for _, e := range s.rows {
		if e.WalletID == walletID && e.ServerModified > since {
			out = append(out, *e)
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (s *memStorage) ListByType(_ context.Context, walletID, entityType string) ([]syncdomain.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []syncdomain.Entity

	for _, e := range s.rows {
		if e.WalletID == walletID && e.EntityType == entityType {
			out = append(out, *e)
		}
	}

	return out, nil
}

type memClock struct {
	mu  sync.Mutex
	seq map[string]int64
}

func newMemClock() *memClock { return &memClock{seq: map[string]int64{}} }

func (c *memClock) Next(_ context.Context, walletID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq[walletID]++

	return c.seq[walletID], nil
}

func (c *memClock) Now(_ context.Context, walletID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.seq[walletID], nil
}

type memLedger struct {
	mu   sync.Mutex
	rows map[string]syncdomain.LedgerRow
}

func newMemLedger() *memLedger { return &memLedger{rows: map[string]syncdomain.LedgerRow{}} }

func (l *memLedger) Lookup(_ context.Context, userID, deviceID, opID string) (*syncdomain.LedgerRow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	row, ok := l.rows[userID+"|"+deviceID+"|"+opID]
	if !ok {
		return nil, nil
	}

	cp := row

	return &cp, nil
}

func (l *memLedger) Record(_ context.Context, row syncdomain.LedgerRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := row.UserID + "|" + row.DeviceID + "|" + row.OpID
	if _, exists := l.rows[k]; !exists {
		l.rows[k] = row
	}

	return nil
}

type memAuth struct{ userID, deviceID, token string }

func (a *memAuth) Resolve(_ context.Context, bearerToken, deviceID string) (string, error) {
	if bearerToken == a.token && deviceID == a.deviceID {
		return a.userID, nil
	}

	return "", fiber.ErrUnauthorized
}

type memAcl struct{ userID, walletID string }

func (a *memAcl) IsMember(_ context.Context, userID, walletID string) (bool, error) {
	return userID == a.userID && walletID == a.walletID, nil
}

func (a *memAcl) Role(_ context.Context, _, _ string) (string, error) { return "owner", nil }

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	registry := syncsvc.NewRegistry()
	storage := newMemStorage()
	clock := newMemClock()
	auth := &memAuth{userID: "user1", deviceID: "dev1", token: "tok1"}
	acl := &memAcl{userID: "user1", walletID: "wallet1"}

	scopeResolver := syncsvc.NewScopeResolver(auth, acl)
	pushOrch := syncsvc.NewPushOrchestrator(
		registry, syncsvc.NewNormalizer(registry), syncsvc.NewVersionController(storage, clock),
		syncsvc.NewOperationLedger(newMemLedger()), syncsvc.NewRecalcDispatcher(storage, clock), nil, clock,
	)
	pullOrch := syncsvc.NewPullOrchestrator(syncsvc.NewDeltaProducer(storage), clock)

	registrar := NewRouteRegistrar(NewPushHandler(pushOrch, scopeResolver), NewPullHandler(pullOrch, scopeResolver))

	app := fiber.New()
	registrar.Register(app, "test")

	return app
}

func TestPush_AcceptsValidItemAndReturns200(t *testing.T) {
	app := newTestApp(t)

	body, err := json.Marshal(syncsvc.PushRequest{
		DeviceID: "dev1", WalletID: "wallet1",
		Items: []syncdomain.Operation{{OpID: "op1", EntityType: syncsvc.EntityCategory, EntityID: "c1", Operation: syncdomain.OpCreate, Payload: map[string]any{"name": "Groceries"}}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/sync/push", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer tok1")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPush_UnknownBearerTokenIsUnauthorized(t *testing.T) {
	app := newTestApp(t)

	body, err := json.Marshal(syncsvc.PushRequest{
		DeviceID: "dev1", WalletID: "wallet1",
		Items: []syncdomain.Operation{{OpID: "op1", EntityType: syncsvc.EntityCategory, EntityID: "c1", Operation: syncdomain.OpCreate, Payload: map[string]any{"name": "Groceries"}}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/sync/push", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer wrong-token")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPush_EmptyBatchIsBadRequest(t *testing.T) {
	app := newTestApp(t)

	body, err := json.Marshal(syncsvc.PushRequest{DeviceID: "dev1", WalletID: "wallet1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/sync/push", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer tok1")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPush_ResponseIsWrappedInMessageEnvelope(t *testing.T) {
	app := newTestApp(t)

	body, err := json.Marshal(syncsvc.PushRequest{
		DeviceID: "dev1", WalletID: "wallet1",
		Items: []syncdomain.Operation{{OpID: "op1", EntityType: syncsvc.EntityCategory, EntityID: "c1", Operation: syncdomain.OpCreate, Payload: map[string]any{"name": "Groceries"}}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/sync/push", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer tok1")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded struct {
		Message struct {
			Results []syncdomain.ItemResult `json:"results"`
		} `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.Len(t, decoded.Message.Results, 1)
	assert.Equal(t, syncdomain.StatusAccepted, decoded.Message.Results[0].Status)
}

func TestPull_MissingWalletIDIsBadRequest(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/sync/pull?device_id=dev1", nil)
	req.Header.Set("Authorization", "Bearer tok1")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPull_ReturnsPushedItemAfterAuthorizedPull(t *testing.T) {
	app := newTestApp(t)

	pushBody, err := json.Marshal(syncsvc.PushRequest{
		DeviceID: "dev1", WalletID: "wallet1",
		Items: []syncdomain.Operation{{OpID: "op1", EntityType: syncsvc.EntityCategory, EntityID: "c1", Operation: syncdomain.OpCreate, Payload: map[string]any{"name": "Groceries"}}},
	})
	require.NoError(t, err)

	pushReq := httptest.NewRequest(http.MethodPost, "/v1/sync/push", bytes.NewReader(pushBody))
	pushReq.Header.Set("Content-Type", "application/json")
	pushReq.Header.Set("Authorization", "Bearer tok1")

	pushResp, err := app.Test(pushReq, -1)
	require.NoError(t, err)
	pushResp.Body.Close()
	require.Equal(t, http.StatusOK, pushResp.StatusCode)

	pullReq := httptest.NewRequest(http.MethodGet, "/v1/sync/pull?device_id=dev1&wallet_id=wallet1", nil)
	pullReq.Header.Set("Authorization", "Bearer tok1")

	pullResp, err := app.Test(pullReq, -1)
	require.NoError(t, err)
	defer pullResp.Body.Close()

	assert.Equal(t, http.StatusOK, pullResp.StatusCode)

	var decoded struct {
		Message struct {
			Items []syncdomain.PullItem `json:"items"`
		} `json:"message"`
	}
	require.NoError(t, json.NewDecoder(pullResp.Body).Decode(&decoded))
	require.Len(t, decoded.Message.Items, 1)
	assert.Equal(t, "c1", decoded.Message.Items[0].EntityID)
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
