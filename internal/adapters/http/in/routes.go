package in

import (
	netHTTP "github.com/alaalsalam/hisabi-backend/common/net/http"
	syncsvc "github.com/alaalsalam/hisabi-backend/internal/services/sync"
	"github.com/gofiber/fiber/v2"
)

// RouteRegistrar wires the sync protocol's two endpoints onto a Fiber app.
type RouteRegistrar struct {
	push *PushHandler
	pull *PullHandler
}

func NewRouteRegistrar(push *PushHandler, pull *PullHandler) *RouteRegistrar {
	return &RouteRegistrar{push: push, pull: pull}
}

// Register mounts /v1/sync/push and /v1/sync/pull plus the ambient /health,
// /version and API documentation endpoints on app.
func (rr *RouteRegistrar) Register(app *fiber.App, version string) {
	app.Get("/health", netHTTP.Ping)
	app.Get("/version", netHTTP.Version(version))

	netHTTP.DocAPI("sync", "Hisabi Sync API", app)

	decodePush := netHTTP.WithBody(&syncsvc.PushRequest{}, rr.push.PushDecoded)

	v1 := app.Group("/v1/sync")
	v1.Post("/push", func(c *fiber.Ctx) error {
		if err := decodePush(c); err != nil {
			return netHTTP.BadRequest(c, fiber.Map{"message": "request body must be valid JSON"})
		}

		return nil
	})
	v1.Get("/pull", rr.pull.Pull)
}
