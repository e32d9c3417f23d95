package sync

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	cn "github.com/alaalsalam/hisabi-backend/common/constant"
	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
	"github.com/alaalsalam/hisabi-backend/internal/ports"
)

// maxPullLimit is the hard ceiling enforced on a single pull page,
// regardless of what the client requests.
const maxPullLimit = 500

// DeltaProducer implements the pull side's delta production: cursor parsing plus the
// ascending (server_modified, entity_id) range scan projected to the wire
// shape.
type DeltaProducer struct {
	storage ports.Storage
}

func NewDeltaProducer(storage ports.Storage) *DeltaProducer {
	return &DeltaProducer{storage: storage}
}

// ParseCursor accepts ISO-8601, epoch millis, or an opaque numeric
// next_cursor, and returns the server_modified value to scan strictly after.
func ParseCursor(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}

	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ms, nil
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UnixMilli(), nil
	}

	return 0, fmt.Errorf("%w: %s", cn.ErrInvalidCursor, raw)
}

// Pull returns items strictly after sinceServerModified, capped at
// min(limit, 500), ascending by (server_modified, entity_id), plus the
// opaque next_cursor and has_more flag.
func (d *DeltaProducer) Pull(ctx context.Context, scope syncdomain.Scope, sinceServerModified int64, limit int) ([]syncdomain.PullItem, string, bool, error) {
	if limit <= 0 || limit > maxPullLimit {
		limit = maxPullLimit
	}

	// Fetch one extra row to detect has_more without a second round trip.
	rows, err := d.storage.ScanSince(ctx, scope.WalletID, sinceServerModified, limit+1)
	if err != nil {
		return nil, "", false, err
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	items := make([]syncdomain.PullItem, 0, len(rows))

	var nextCursor string

	for _, e := range rows {
		item := syncdomain.PullItem{
			EntityType:     e.EntityType,
			EntityID:       e.EntityID,
			ClientID:       e.EntityID,
			DocVersion:     e.DocVersion,
			ServerModified: e.ServerModified,
			IsDeleted:      e.IsDeleted,
		}

		if !e.IsDeleted {
			item.Payload = e.Payload
		}

		if e.DeletedAt != nil {
			ms := e.DeletedAt.UnixMilli()
			item.DeletedAt = &ms
		}

		items = append(items, item)
		nextCursor = formatCursor(e.ServerModified)
	}

	if nextCursor == "" {
		nextCursor = formatCursor(sinceServerModified)
	}

	return items, nextCursor, hasMore, nil
}

// formatCursor renders a server_modified value as the canonical next_cursor:
// input parsing stays permissive (epoch millis or ISO-8601), output is
// always ISO-8601 with millisecond precision.
func formatCursor(serverModified int64) string {
	return time.UnixMilli(serverModified).UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// normalizeCursorInput picks cursor over since when both are supplied,
// trimming surrounding whitespace the HTTP layer may have left in.
func normalizeCursorInput(cursor, since string) string {
	if strings.TrimSpace(cursor) != "" {
		return strings.TrimSpace(cursor)
	}

	return strings.TrimSpace(since)
}
