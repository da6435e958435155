package serverutils

import (
	"github.com/gofiber/fiber/v2"
)

// Header names for identity and caller-supplied upstream credentials.
// When both credential headers are present the request runs on the
// caller's own keys and is exempt from quota accounting.
const (
	HeaderUserID    = "x-user-id"
	HeaderUserEmail = "x-user-email"
	HeaderGoogleKey = "x-user-google-key"
	HeaderCohereKey = "x-user-cohere-key"
)

// IdentityMiddleware requires x-user-id and stashes identity plus any
// caller credentials in locals for the controllers.
func IdentityMiddleware(ctx *fiber.Ctx) error {
	identityID := ctx.Get(HeaderUserID)
	if identityID == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing x-user-id header"})
	}

	ctx.Locals("identity_id", identityID)
	ctx.Locals("google_key", ctx.Get(HeaderGoogleKey))
	ctx.Locals("cohere_key", ctx.Get(HeaderCohereKey))
	return ctx.Next()
}

// AdminMiddleware gates admin routes on a configured administrator email.
func AdminMiddleware(adminEmail string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if ctx.Get(HeaderUserID) == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing x-user-id header"})
		}
		email := ctx.Get(HeaderUserEmail)
		if adminEmail == "" || email != adminEmail {
			return ctx.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access denied"})
		}
		return ctx.Next()
	}
}
