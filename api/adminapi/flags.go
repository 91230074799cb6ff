package adminapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/data-lunch/dlunch/api"
	"github.com/data-lunch/dlunch/auth"
	"github.com/data-lunch/dlunch/auth/provider"
)

// registerFlags wires the handlers for flags and the guest password
func registerFlags(r fiber.Router, p *provider.Provider) {
	ac := p.AuthContext()

	r.Get(
		"/flags", func(c *fiber.Ctx) error {
			flags, err := ac.ListFlags()
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(api.ErrorServerError(err.Error()))
			}
			return c.JSON(flags)
		},
	)

	r.Delete(
		"/flags/guest_override", adminOnly(p), auditMiddleware, func(c *fiber.Ctx) error {
			deleted, err := ac.ClearGuestOverrides()
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(api.ErrorServerError(err.Error()))
			}
			return c.JSON(fiber.Map{"deleted": deleted})
		},
	)

	r.Post(
		"/guest_password/reset", adminOnly(p), auditMiddleware, func(c *fiber.Ctx) error {
			sess := &auth.Notifications{}
			password, err := ac.ResetGuestUserPassword(sess)
			if err != nil {
				if errors.Is(err, auth.ErrGuestUserDisabled) {
					return c.Status(fiber.StatusConflict).JSON(api.ErrorInvalidRequest(err.Error()))
				}
				return c.Status(fiber.StatusInternalServerError).JSON(api.ErrorServerError(err.Error()))
			}
			return c.JSON(
				fiber.Map{
					"password":      password,
					"notifications": sess.Messages,
				},
			)
		},
	)
}
