package in

import (
	"github.com/alaalsalam/hisabi-backend/common"
	netHTTP "github.com/alaalsalam/hisabi-backend/common/net/http"
	"github.com/gofiber/fiber/v2"
)

// respondError translates a sentinel error from common/constant (as produced
// by request validation, scope resolution, cursor parsing, and normalization)
// into its structured HTTP response.
func respondError(c *fiber.Ctx, err error) error {
	return netHTTP.WithError(c, common.ValidateBusinessError(err, "sync"))
}
