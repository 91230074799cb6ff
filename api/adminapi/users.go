package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/data-lunch/dlunch/api"
	"github.com/data-lunch/dlunch/auth"
	"github.com/data-lunch/dlunch/auth/provider"
)

type credentialsReq struct {
	User              string `json:"user"`
	NewPassword       string `json:"new_password"`
	RepeatNewPassword string `json:"repeat_new_password"`
	IsGuest           *bool  `json:"is_guest"`
	IsAdmin           *bool  `json:"is_admin"`
}

// registerUsers wires the user management handlers
func registerUsers(r fiber.Router, p *provider.Provider) {
	ac := p.AuthContext()

	r.Get(
		"/users", func(c *fiber.Ctx) error {
			list, err := ac.ListUsersGuestsAndPrivileges()
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(api.ErrorServerError(err.Error()))
			}
			return c.JSON(list)
		},
	)

	r.Post(
		"/credentials", adminOnly(p), auditMiddleware, func(c *fiber.Ctx) error {
			if !ac.IsBasicAuthActive() {
				return c.Status(fiber.StatusBadRequest).JSON(api.ErrorInvalidRequest("basic authentication is not active"))
			}
			var req credentialsReq
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(api.ErrorInvalidRequest("invalid body"))
			}
			if req.IsGuest != nil && *req.IsGuest && req.IsAdmin != nil && *req.IsAdmin {
				return c.Status(fiber.StatusBadRequest).JSON(api.ErrorInvalidRequest("a guest cannot be admin"))
			}
			sess := &auth.Notifications{}
			ok, err := ac.BackendSubmitPassword(
				sess, auth.PasswordForm{
					User:              req.User,
					NewPassword:       req.NewPassword,
					RepeatNewPassword: req.RepeatNewPassword,
				}, auth.SubmitOptions{
					IsGuest: req.IsGuest,
					IsAdmin: req.IsAdmin,
				},
			)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(api.ErrorServerError(err.Error()))
			}
			if !ok {
				return c.Status(fiber.StatusBadRequest).JSON(
					fiber.Map{
						"error":         api.ErrorCodeInvalidRequest,
						"reason":        sess.Reason(),
						"notifications": sess.Messages,
					},
				)
			}
			return c.JSON(sess)
		},
	)

	r.Delete(
		"/users/:username", adminOnly(p), auditMiddleware, func(c *fiber.Ctx) error {
			removed, err := auth.NewAuthUser(ac, c.Params("username")).RemoveUser()
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(api.ErrorServerError(err.Error()))
			}
			if removed == (auth.RemovedRows{}) {
				return c.Status(fiber.StatusNotFound).JSON(api.ErrorNotFound("user does not exist"))
			}
			return c.JSON(removed)
		},
	)
}
