package in

import (
	"strconv"

	netHTTP "github.com/alaalsalam/hisabi-backend/common/net/http"
	syncsvc "github.com/alaalsalam/hisabi-backend/internal/services/sync"
	"github.com/gofiber/fiber/v2"
)

const defaultPullLimit = 200

// PullHandler wraps the PullOrchestrator and ScopeResolver behind the wire
// protocol's GET /v1/sync/pull endpoint.
type PullHandler struct {
	pull  *syncsvc.PullOrchestrator
	scope *syncsvc.ScopeResolver
}

func NewPullHandler(pull *syncsvc.PullOrchestrator, scope *syncsvc.ScopeResolver) *PullHandler {
	return &PullHandler{pull: pull, scope: scope}
}

// Pull handles GET /v1/sync/pull.
func (h *PullHandler) Pull(c *fiber.Ctx) error {
	req := syncsvc.PullRequest{
		DeviceID: c.Query("device_id"),
		WalletID: c.Query("wallet_id"),
		Cursor:   c.Query("cursor"),
		Since:    c.Query("since"),
		Limit:    defaultPullLimit,
	}

	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			req.Limit = n
		}
	}

	if req.DeviceID == "" {
		return netHTTP.BadRequest(c, fiber.Map{"message": "device_id is required"})
	}

	if req.WalletID == "" {
		return netHTTP.BadRequest(c, fiber.Map{"message": "wallet_id is required"})
	}

	bearerToken := bearerTokenFrom(c)

	resolvedScope, err := h.scope.Resolve(c.UserContext(), bearerToken, req.DeviceID, req.WalletID)
	if err != nil {
		return respondError(c, err)
	}

	resp, err := h.pull.Run(c.UserContext(), resolvedScope, req)
	if err != nil {
		return respondError(c, err)
	}

	return netHTTP.OK(c, fiber.Map{"message": resp})
}
