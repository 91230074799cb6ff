package frontapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/data-lunch/dlunch/api"
	"github.com/data-lunch/dlunch/auth"
	"github.com/data-lunch/dlunch/auth/provider"
)

// registerGuestPassword wires the handler showing the guest password to
// privileged users
func registerGuestPassword(r fiber.Router, p *provider.Provider) {
	ac := p.AuthContext()

	r.Get(
		"/guest_password", func(c *fiber.Ctx) error {
			isGuest, err := p.AuthUser(c).IsGuest(false)
			if err != nil {
				return serverError(c, err)
			}
			if isGuest {
				return c.Status(fiber.StatusForbidden).JSON(api.ErrorForbidden("privileged user required"))
			}
			sess := &auth.Notifications{}
			password, err := ac.SetGuestUserPassword(sess)
			if err != nil {
				return serverError(c, err)
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
