package http

import (
	"fmt"

	fiberSwagger "github.com/swaggo/fiber-swagger"

	"github.com/gofiber/fiber/v2"
)

// DocAPI adds the default documentation route to the API.
// Ex: /{serviceName}/docs
// And adds the swagger UI route too, at /v1/swagger/*.
func DocAPI(serviceName, title string, app *fiber.App) {
	docURL := fmt.Sprintf("/%s/docs", serviceName)

	app.Get(docURL, func(c *fiber.Ctx) error {
		return c.SendFile("./api/v1.yml")
	})

	app.Get("/v1/swagger/*", fiberSwagger.WrapHandler)
}
