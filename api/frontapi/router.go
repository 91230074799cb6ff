// Package frontapi implements the API used by the main ordering page
package frontapi

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/data-lunch/dlunch/api"
	"github.com/data-lunch/dlunch/auth/provider"
)

// databaseError is the only detail shown to users on persistence errors
const databaseError = "database error"

// Register mounts the front API routes under the provided group
func Register(r fiber.Router, p *provider.Provider) {
	r.Use(requireUser(p))
	registerMe(r, p)
	registerGuestPassword(r, p)
	registerOrderGate(r, p)
}

// requireUser rejects anonymous requests if authentication is active
func requireUser(p *provider.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if p.AuthContext().IsAuthActive() && provider.User(c) == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(api.ErrorUnauthorized("login required"))
		}
		return c.Next()
	}
}

func serverError(c *fiber.Ctx, err error) error {
	log.WithError(err).WithField("user", provider.User(c)).Error("front api request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(api.ErrorServerError(databaseError))
}
