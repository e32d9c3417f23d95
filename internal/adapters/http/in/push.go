package in

import (
	"strings"

	netHTTP "github.com/alaalsalam/hisabi-backend/common/net/http"
	syncsvc "github.com/alaalsalam/hisabi-backend/internal/services/sync"
	"github.com/gofiber/fiber/v2"
)

// PushHandler wraps the PushOrchestrator and ScopeResolver behind the wire
// protocol's POST /v1/sync/push endpoint.
type PushHandler struct {
	push  *syncsvc.PushOrchestrator
	scope *syncsvc.ScopeResolver
}

func NewPushHandler(push *syncsvc.PushOrchestrator, scope *syncsvc.ScopeResolver) *PushHandler {
	return &PushHandler{push: push, scope: scope}
}

// PushDecoded handles POST /v1/sync/push, invoked by netHTTP.WithBody once
// the request body has been decoded into a *syncsvc.PushRequest and checked
// for fields the wire protocol doesn't recognize.
func (h *PushHandler) PushDecoded(p any, c *fiber.Ctx) error {
	req := *p.(*syncsvc.PushRequest)

	if err := h.push.ValidateRequest(req); err != nil {
		return respondError(c, err)
	}

	bearerToken := bearerTokenFrom(c)

	resolvedScope, err := h.scope.Resolve(c.UserContext(), bearerToken, req.DeviceID, req.WalletID)
	if err != nil {
		return respondError(c, err)
	}

	resp := h.push.Run(c.UserContext(), resolvedScope, req.Items)

	return netHTTP.OK(c, fiber.Map{"message": resp})
}

// bearerTokenFrom strips the "Bearer " prefix from the Authorization header,
// tolerating its absence so downstream auth resolution returns the stable
// unauthorized error rather than a generic parsing failure.
func bearerTokenFrom(c *fiber.Ctx) string {
	header := c.Get("Authorization")

	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimPrefix(header, prefix)
	}

	return header
}
