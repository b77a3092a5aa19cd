package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/etag"
)

// CatalogCache makes clients revalidate catalog reads on every use: private,
// no-cache plus an ETag, so an unchanged body comes back as 304.
func CatalogCache() []fiber.Handler {
	revalidate := func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() == fiber.MethodGet && c.Response().StatusCode() == fiber.StatusOK {
			c.Set(fiber.HeaderCacheControl, "private, no-cache")
		}

		return err
	}
	return []fiber.Handler{etag.New(), revalidate}
}

// NoCacheHeaders sets no-cache headers. Loan and fine data changes with every request.
func NoCacheHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate")
		c.Set(fiber.HeaderPragma, "no-cache")
		c.Set(fiber.HeaderExpires, "0")
		return c.Next()
	}
}
