package sync

import (
	"context"
	"sort"
	"sync"

	cn "github.com/alaalsalam/hisabi-backend/common/constant"
	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
)

// fakeStorage is a minimal in-memory ports.Storage used across this
// package's tests instead of a generated mock — the interface is small and
// its real semantics (optimistic overwrite, cursor ordering) are easier to
// get right with a real map than to stub call-by-call.
type fakeStorage struct {
	mu   sync.Mutex
	rows map[string]*syncdomain.Entity // key: walletID|entityType|entityID
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{rows: map[string]*syncdomain.Entity{}}
}

func storageKey(walletID, entityType, entityID string) string {
	return walletID + "|" + entityType + "|" + entityID
}

func (f *fakeStorage) Get(_ context.Context, walletID, entityType, entityID string) (*syncdomain.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.rows[storageKey(walletID, entityType, entityID)]
	if !ok {
		return nil, nil
	}

	cp := *e
	return &cp, nil
}

func (f *fakeStorage) Put(_ context.Context, e *syncdomain.Entity) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *e
	f.rows[storageKey(e.WalletID, e.EntityType, e.EntityID)] = &cp

	return nil
}

func (f *fakeStorage) ScanSince(_ context.Context, walletID string, since int64, limit int) ([]syncdomain.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []syncdomain.Entity

	for _, e := range f.rows {
		if e.WalletID == walletID && e.ServerModified > since {
			out = append(out, *e)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ServerModified != out[j].ServerModified {
			return out[i].ServerModified < out[j].ServerModified
		}

		return out[i].EntityID < out[j].EntityID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (f *fakeStorage) ListByType(_ context.Context, walletID, entityType string) ([]syncdomain.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []syncdomain.Entity

	for _, e := range f.rows {
		if e.WalletID == walletID && e.EntityType == entityType {
			out = append(out, *e)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })

	return out, nil
}

// fakeClock is a strictly monotonic per-wallet counter, the same contract
// the Redis-backed clock adapter provides.
type fakeClock struct {
	mu  sync.Mutex
	seq map[string]int64
}

func newFakeClock() *fakeClock {
	return &fakeClock{seq: map[string]int64{}}
}

func (c *fakeClock) Next(_ context.Context, walletID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq[walletID]++

	return c.seq[walletID], nil
}

func (c *fakeClock) Now(_ context.Context, walletID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.seq[walletID], nil
}

// fakeLedger is an in-memory ports.Ledger keyed by (userID, deviceID, opID).
type fakeLedger struct {
	mu   sync.Mutex
	rows map[string]syncdomain.LedgerRow
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: map[string]syncdomain.LedgerRow{}}
}

func ledgerKey(userID, deviceID, opID string) string {
	return userID + "|" + deviceID + "|" + opID
}

func (l *fakeLedger) Lookup(_ context.Context, userID, deviceID, opID string) (*syncdomain.LedgerRow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	row, ok := l.rows[ledgerKey(userID, deviceID, opID)]
	if !ok {
		return nil, nil
	}

	cp := row

	return &cp, nil
}

func (l *fakeLedger) Record(_ context.Context, row syncdomain.LedgerRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := ledgerKey(row.UserID, row.DeviceID, row.OpID)
	if _, exists := l.rows[key]; exists {
		return nil
	}

	l.rows[key] = row

	return nil
}

// fakeAuth resolves any token present in its table, matching device_id
// exactly, mirroring the real devicetoken adapter's collapsed error.
type fakeAuth struct {
	tokens map[string]struct{ userID, deviceID string }
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{tokens: map[string]struct{ userID, deviceID string }{}}
}

func (a *fakeAuth) issue(token, userID, deviceID string) {
	a.tokens[token] = struct{ userID, deviceID string }{userID, deviceID}
}

func (a *fakeAuth) Resolve(_ context.Context, bearerToken, deviceID string) (string, error) {
	bound, ok := a.tokens[bearerToken]
	if !ok || bound.deviceID != deviceID {
		return "", cn.ErrUnauthorized
	}

	return bound.userID, nil
}

// fakeAcl is an in-memory ports.WalletAcl.
type fakeAcl struct {
	members map[string]string // "userID|walletID" -> role
}

func newFakeAcl() *fakeAcl {
	return &fakeAcl{members: map[string]string{}}
}

func (a *fakeAcl) add(userID, walletID, role string) {
	a.members[userID+"|"+walletID] = role
}

func (a *fakeAcl) IsMember(_ context.Context, userID, walletID string) (bool, error) {
	_, ok := a.members[userID+"|"+walletID]
	return ok, nil
}

func (a *fakeAcl) Role(_ context.Context, userID, walletID string) (string, error) {
	return a.members[userID+"|"+walletID], nil
}

// fakeEvents records every publish call without doing anything with it.
type fakeEvents struct {
	mu        sync.Mutex
	published []syncdomain.ItemResult
}

func (e *fakeEvents) PublishMutation(_ context.Context, _ syncdomain.Scope, result syncdomain.ItemResult) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.published = append(e.published, result)

	return nil
}
