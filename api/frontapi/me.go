package frontapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/data-lunch/dlunch/api"
	"github.com/data-lunch/dlunch/auth"
	"github.com/data-lunch/dlunch/auth/provider"
)

type meRes struct {
	User          string `json:"user"`
	AuthType      string `json:"auth_type,omitempty"`
	IsGuest       bool   `json:"is_guest"`
	IsAdmin       bool   `json:"is_admin"`
	GuestOverride bool   `json:"guest_override"`
	CanPlaceOrder bool   `json:"can_place_order"`
}

type passwordRes struct {
	Notifications []auth.Notification `json:"notifications"`
	Reason        auth.Reason         `json:"reason,omitempty"`
	LogoutAfter   float64             `json:"logout_after,omitempty"`
}

func registerMe(r fiber.Router, p *provider.Provider) {
	ac := p.AuthContext()

	r.Get(
		"/me", func(c *fiber.Ctx) error {
			user := p.AuthUser(c)
			if err := user.EnsureGuestOverrideFlag(); err != nil {
				return serverError(c, err)
			}
			res := meRes{
				User:     user.Name(),
				AuthType: ac.AuthType(),
			}
			var err error
			if res.IsGuest, err = user.IsGuest(true); err != nil {
				return serverError(c, err)
			}
			if res.IsAdmin, err = user.IsAdmin(); err != nil {
				return serverError(c, err)
			}
			if res.GuestOverride, err = user.GuestOverride(); err != nil {
				return serverError(c, err)
			}
			if res.CanPlaceOrder, err = ac.CanPlaceOrder(user); err != nil {
				return serverError(c, err)
			}
			return c.JSON(res)
		},
	)

	r.Post(
		"/me/password", func(c *fiber.Ctx) error {
			if !ac.IsBasicAuthActive() {
				return c.Status(fiber.StatusBadRequest).JSON(api.ErrorInvalidRequest("basic authentication is not active"))
			}
			var form auth.PasswordForm
			if err := c.BodyParser(&form); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(api.ErrorInvalidRequest("invalid body"))
			}
			sess := &auth.Notifications{}
			ok, err := ac.SubmitPassword(sess, p.AuthUser(c), form)
			if err != nil {
				return serverError(c, err)
			}
			res := passwordRes{Notifications: sess.Messages}
			if !ok {
				res.Reason = sess.Reason()
				return c.Status(fiber.StatusBadRequest).JSON(res)
			}
			if sess.LogoutAfter != nil {
				p.ClearSession(c)
				res.LogoutAfter = sess.LogoutAfter.Seconds()
			}
			return c.JSON(res)
		},
	)

	type overrideReq struct {
		Value bool `json:"value"`
	}
	r.Put(
		"/me/guest_override", func(c *fiber.Ctx) error {
			var req overrideReq
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(api.ErrorInvalidRequest("invalid body"))
			}
			if err := p.AuthUser(c).SetGuestOverride(req.Value); err != nil {
				if errors.Is(err, auth.ErrNotPrivileged) {
					return c.Status(fiber.StatusForbidden).JSON(api.ErrorForbidden("only privileged users can act as guests"))
				}
				return serverError(c, err)
			}
			return c.JSON(fiber.Map{"guest_override": req.Value})
		},
	)
}
