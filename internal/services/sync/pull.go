package sync

import (
	"context"

	syncdomain "github.com/alaalsalam/hisabi-backend/internal/domain/sync"
	"github.com/alaalsalam/hisabi-backend/internal/ports"
)

// PullRequest is the decoded pull envelope; Cursor takes priority over Since
// when both are present.
type PullRequest struct {
	DeviceID string `json:"device_id"`
	WalletID string `json:"wallet_id"`
	Cursor   string `json:"cursor"`
	Since    string `json:"since"`
	Limit    int    `json:"limit"`
}

// PullResponse is the wire shape of a pull reply's message field.
type PullResponse struct {
	Items      []syncdomain.PullItem `json:"items"`
	NextCursor string                `json:"next_cursor"`
	HasMore    bool                  `json:"has_more"`
	ServerTime int64                 `json:"server_time"`
}

// PullOrchestrator runs the pull side of the sync protocol.
type PullOrchestrator struct {
	producer *DeltaProducer
	clock    ports.Clock
}

func NewPullOrchestrator(producer *DeltaProducer, clock ports.Clock) *PullOrchestrator {
	return &PullOrchestrator{producer: producer, clock: clock}
}

// Run parses the cursor, runs the range scan, and attaches server_time.
func (p *PullOrchestrator) Run(ctx context.Context, scope syncdomain.Scope, req PullRequest) (PullResponse, error) {
	raw := normalizeCursorInput(req.Cursor, req.Since)

	since, err := ParseCursor(raw)
	if err != nil {
		return PullResponse{}, err
	}

	items, nextCursor, hasMore, err := p.producer.Pull(ctx, scope, since, req.Limit)
	if err != nil {
		return PullResponse{}, err
	}

	serverTime, err := p.clock.Now(ctx, scope.WalletID)
	if err != nil {
		serverTime = since
	}

	return PullResponse{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
		ServerTime: serverTime,
	}, nil
}
