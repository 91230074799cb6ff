package frontapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/data-lunch/dlunch/api"
	"github.com/data-lunch/dlunch/auth/provider"
)

type gateRes struct {
	NoMoreOrders  bool `json:"no_more_orders"`
	CanPlaceOrder bool `json:"can_place_order"`
}

// registerOrderGate wires the handlers for the global "no more orders" switch
func registerOrderGate(r fiber.Router, p *provider.Provider) {
	ac := p.AuthContext()

	gate := func(c *fiber.Ctx) error {
		var res gateRes
		var err error
		if res.NoMoreOrders, err = ac.NoMoreOrders(); err != nil {
			return serverError(c, err)
		}
		if res.CanPlaceOrder, err = ac.CanPlaceOrder(p.AuthUser(c)); err != nil {
			return serverError(c, err)
		}
		return c.JSON(res)
	}

	r.Get("/orders/gate", gate)

	type gateReq struct {
		NoMoreOrders bool `json:"no_more_orders"`
	}
	r.Put(
		"/orders/gate", func(c *fiber.Ctx) error {
			if ac.IsAuthActive() {
				isAdmin, err := p.AuthUser(c).IsAdmin()
				if err != nil {
					return serverError(c, err)
				}
				if !isAdmin {
					return c.Status(fiber.StatusForbidden).JSON(api.ErrorForbidden("admin required"))
				}
			}
			var req gateReq
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(api.ErrorInvalidRequest("invalid body"))
			}
			if err := ac.SetNoMoreOrders(req.NoMoreOrders); err != nil {
				return serverError(c, err)
			}
			return gate(c)
		},
	)
}
