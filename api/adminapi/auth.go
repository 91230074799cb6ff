package adminapi

import (
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/data-lunch/dlunch/api"
	"github.com/data-lunch/dlunch/auth"
	"github.com/data-lunch/dlunch/auth/provider"
)

// BackendPath is the path the admin API is authorized against
const BackendPath = "/backend"

const localsAdminUser = "dlunch_admin_user"

// authMiddleware enforces authorization for admin API routes.
// The identity comes from the session or, for scripted clients, from HTTP
// Basic authentication validated against the credentials store. Only
// privileged users are allowed.
func authMiddleware(p *provider.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ac := p.AuthContext()
		if !ac.IsAuthActive() {
			return c.Next()
		}
		user := provider.User(c)
		if username, password, ok := parseBasicAuth(c); ok && ac.IsBasicAuthActive() {
			valid, err := p.Validate(username, password)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(api.ErrorServerError(err.Error()))
			}
			if !valid {
				c.Set("WWW-Authenticate", "Basic realm=admin")
				return c.Status(fiber.StatusUnauthorized).JSON(api.ErrorUnauthorized("invalid credentials"))
			}
			user = username
		}
		if user == "" {
			if ac.IsBasicAuthActive() {
				c.Set("WWW-Authenticate", "Basic realm=admin")
			}
			return c.Status(fiber.StatusUnauthorized).JSON(api.ErrorUnauthorized("missing credentials"))
		}
		if !auth.NewAuthCallback(ac, false).Authorize(user, BackendPath) {
			log.WithField("user", user).Info("denied access to admin api")
			return c.Status(fiber.StatusForbidden).JSON(api.ErrorForbidden("privileged user required"))
		}
		c.Locals(localsAdminUser, user)
		return c.Next()
	}
}

// adminOnly restricts a route to admins
func adminOnly(p *provider.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ac := p.AuthContext()
		if !ac.IsAuthActive() {
			return c.Next()
		}
		isAdmin, err := auth.NewAuthUser(ac, adminUser(c)).IsAdmin()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(api.ErrorServerError(err.Error()))
		}
		if !isAdmin {
			return c.Status(fiber.StatusForbidden).JSON(api.ErrorForbidden("admin required"))
		}
		return c.Next()
	}
}

func adminUser(c *fiber.Ctx) string {
	user, _ := c.Locals(localsAdminUser).(string)
	return user
}

// parseBasicAuth extracts Basic auth credentials from request headers
func parseBasicAuth(c *fiber.Ctx) (username, password string, ok bool) {
	authHeader := string(c.Request().Header.Peek(fiber.HeaderAuthorization))
	const prefix = "Basic "
	if !strings.HasPrefix(authHeader, prefix) {
		return "", "", false
	}
	b, err := base64.StdEncoding.DecodeString(authHeader[len(prefix):])
	if err != nil {
		return "", "", false
	}
	return strings.Cut(string(b), ":")
}
