package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
)

func TestPullOrchestrator_RunReturnsItemsAndServerTime(t *testing.T) {
	storage := newFakeStorage()
	clock := newFakeClock()
	ctx := context.Background()

	modified, err := clock.Next(ctx, "w1")
	require.NoError(t, err)
	require.NoError(t, storage.Put(ctx, &syncdomain.Entity{
		WalletID: "w1", EntityType: EntityCategory, EntityID: "c1", ServerModified: modified, DocVersion: 1, Payload: map[string]any{"name": "Groceries"},
	}))

	pull := NewPullOrchestrator(NewDeltaProducer(storage), clock)

	resp, err := pull.Run(ctx, syncdomain.Scope{WalletID: "w1"}, PullRequest{DeviceID: "d1", WalletID: "w1"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "c1", resp.Items[0].EntityID)
	assert.Equal(t, modified, resp.ServerTime)
}

func TestPullOrchestrator_InvalidCursorIsRejected(t *testing.T) {
	pull := NewPullOrchestrator(NewDeltaProducer(newFakeStorage()), newFakeClock())

	_, err := pull.Run(context.Background(), syncdomain.Scope{WalletID: "w1"}, PullRequest{Cursor: "garbage"})
	assert.Error(t, err)
}

func TestPullOrchestrator_CursorTakesPriorityOverSince(t *testing.T) {
	storage := newFakeStorage()
	ctx := context.Background()

	require.NoError(t, storage.Put(ctx, &syncdomain.Entity{
		WalletID: "w1", EntityType: EntityCategory, EntityID: "c1", ServerModified: 10, DocVersion: 1, Payload: map[string]any{},
	}))

	pull := NewPullOrchestrator(NewDeltaProducer(storage), newFakeClock())

	resp, err := pull.Run(ctx, syncdomain.Scope{WalletID: "w1"}, PullRequest{Cursor: "10", Since: "0"})
	require.NoError(t, err)
	assert.Empty(t, resp.Items, "cursor=10 must win over since=0 and exclude the row at server_modified=10")
}
