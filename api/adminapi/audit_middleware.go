package adminapi

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// auditMiddleware logs requests that successfully modify state.
// It should be attached only to non-GET routes.
func auditMiddleware(c *fiber.Ctx) error {
	if err := c.Next(); err != nil {
		return err
	}
	status := c.Response().StatusCode()
	if status >= 200 && status < 400 {
		log.WithFields(
			log.Fields{
				"admin":  adminUser(c),
				"method": c.Method(),
				"path":   c.Path(),
			},
		).Info("admin change")
	}
	return nil
}
