package provider

import (
	"bytes"
	"crypto/rand"
	_ "embed"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/data-lunch/dlunch/auth"
)

// Paths handled by the provider
const (
	LoginPath  = "/login"
	LogoutPath = "/logout"
)

const (
	localsUser          = "dlunch_user"
	invalidLoginMessage = "Invalid username or password!"
	databaseErrorMsg    = "Database error, try again later"
)

//go:embed login.html
var loginHTML string

var loginTemplate = template.Must(template.New("login").Parse(loginHTML))

// Provider authenticates users with a login form (basic auth) or a trusted
// identity header (OAuth proxy) and keeps the identity in signed cookies
type Provider struct {
	ac       *auth.AuthContext
	callback *auth.AuthCallback
	signer   cookieSigner
	cookies  auth.CookieConf
	header   string
}

// New creates a new Provider
func New(ac *auth.AuthContext) (*Provider, error) {
	conf := ac.Config()
	secret := []byte(conf.Auth.CookieSecret)
	if len(secret) == 0 {
		log.Warn(
			"no cookie secret configured, using a random secret; sessions will not survive a restart. " +
				"Set DATA_LUNCH_COOKIE_SECRET to keep them",
		)
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, errors.Wrap(err, "failed to generate cookie secret")
		}
	}
	header := conf.Auth.IdentityHeader
	if header == "" {
		header = auth.DefaultIdentityHeader
	}
	authorizeGuests := conf.BasicAuth == nil || conf.BasicAuth.AuthorizeGuestUsers
	return &Provider{
		ac:       ac,
		callback: auth.NewAuthCallback(ac, authorizeGuests),
		signer: cookieSigner{
			secret:    secret,
			encrypter: ac.Encrypter(),
			expiry:    ac.CookieExpiry(),
		},
		cookies: conf.Auth.CookieKwargs,
		header:  header,
	}, nil
}

// Register mounts the login and logout handlers
func (p *Provider) Register(r fiber.Router) {
	if p.ac.IsBasicAuthActive() {
		r.Get(LoginPath, p.loginPage)
		r.Post(LoginPath, p.login)
	}
	r.Get(LogoutPath, p.logout)
}

// Session resolves the identity of the request and stores it for User
func (p *Provider) Session() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(localsUser, p.resolveUser(c))
		return c.Next()
	}
}

// RequireAuthorization protects page routes. Anonymous users are sent to
// the login page; users that are not authorized are logged out.
func (p *Provider) RequireAuthorization() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := User(c)
		if p.callback.Authorize(user, c.Path()) {
			return c.Next()
		}
		if !p.ac.IsBasicAuthActive() {
			return fiber.NewError(fiber.StatusForbidden, "not authorized")
		}
		if user == "" {
			return c.Redirect(LoginPath)
		}
		return c.Redirect(LogoutPath)
	}
}

// Authorize checks if the user of the request can access path
func (p *Provider) Authorize(c *fiber.Ctx, path string) bool {
	return p.callback.Authorize(User(c), path)
}

// AuthContext returns the AuthContext used by the provider
func (p *Provider) AuthContext() *auth.AuthContext {
	return p.ac
}

// User returns the username resolved by the Session middleware
func User(c *fiber.Ctx) string {
	user, _ := c.Locals(localsUser).(string)
	return user
}

// AuthUser returns the identity of the request
func (p *Provider) AuthUser(c *fiber.Ctx) *auth.AuthUser {
	return auth.NewAuthUser(p.ac, User(c))
}

func (p *Provider) resolveUser(c *fiber.Ctx) string {
	if !p.ac.IsAuthActive() {
		return ""
	}
	if !p.ac.IsBasicAuthActive() {
		if !c.IsProxyTrusted() {
			log.WithField("ip", c.IP()).Debug("ignoring identity header from untrusted proxy")
			return ""
		}
		return p.ac.ResolveUsername(strings.TrimSpace(c.Get(p.header)))
	}
	value := c.Cookies(UserCookie)
	if value == "" {
		return ""
	}
	user, err := p.signer.parseUserCookie(value)
	if err != nil {
		log.WithError(err).Debug("ignoring session cookie")
		return ""
	}
	if idToken := c.Cookies(IDTokenCookie); idToken != "" {
		idUser, err := p.signer.parseIDTokenCookie(idToken)
		if err != nil || idUser != user {
			log.WithError(err).WithField("user", user).Debug("id_token does not match user cookie")
			return ""
		}
	}
	return user
}

func (p *Provider) loginPage(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := loginTemplate.Execute(
		&buf, struct {
			Action string
			Error  string
		}{
			Action: LoginPath,
			Error:  c.Query("error"),
		},
	); err != nil {
		return errors.WithStack(err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

func (p *Provider) login(c *fiber.Ctx) error {
	user := p.ac.ResolveUsername(c.FormValue("username"))
	password := c.FormValue("password")
	ok, err := p.Validate(user, password)
	if err != nil {
		log.WithError(err).WithField("user", user).Error("login failed")
		return c.Redirect(LoginPath + "?error=" + url.QueryEscape(databaseErrorMsg))
	}
	if !ok {
		log.WithField("user", user).Info("invalid login attempt")
		return c.Redirect(LoginPath + "?error=" + url.QueryEscape(invalidLoginMessage))
	}
	if err = p.SetCurrentUser(c, user); err != nil {
		return err
	}
	if err = p.AuthUser(c).EnsureGuestOverrideFlag(); err != nil {
		log.WithError(err).WithField("user", user).Error("failed to initialize guest override flag")
	}
	log.WithField("user", user).Info("user logged in")
	return c.Redirect(auth.MainPath)
}

// Validate checks the password of user and upgrades an outdated hash
func (p *Provider) Validate(user, password string) (bool, error) {
	if user == "" {
		return false, nil
	}
	authUser := auth.NewAuthUser(p.ac, user)
	hash, err := authUser.PasswordHash()
	if err != nil || hash == nil {
		return false, err
	}
	valid, newHash := hash.VerifyAndUpdate(password)
	if !valid {
		return false, nil
	}
	if newHash != "" {
		if err = authUser.AddUserHashedPassword(password); err != nil {
			return false, err
		}
		log.WithField("user", user).Info("upgraded password hash")
	}
	return true, nil
}

// SetCurrentUser sets the session cookies for user. An empty user clears
// them.
func (p *Provider) SetCurrentUser(c *fiber.Ctx, user string) error {
	if user == "" {
		p.ClearSession(c)
		return nil
	}
	userValue, err := p.signer.userCookie(user)
	if err != nil {
		return err
	}
	idToken, err := p.signer.idTokenCookie(user)
	if err != nil {
		return err
	}
	expires := time.Now().Add(p.signer.expiry)
	c.Cookie(p.cookie(UserCookie, userValue, expires))
	c.Cookie(p.cookie(IDTokenCookie, idToken, expires))
	c.Locals(localsUser, user)
	return nil
}

// ClearSession removes the session cookies
func (p *Provider) ClearSession(c *fiber.Ctx) {
	expired := time.Unix(0, 0)
	for _, name := range []string{UserCookie, IDTokenCookie} {
		cookie := p.cookie(name, "", expired)
		cookie.MaxAge = -1
		c.Cookie(cookie)
	}
	c.Locals(localsUser, "")
}

func (p *Provider) logout(c *fiber.Ctx) error {
	if user := User(c); user != "" {
		log.WithField("user", user).Info("user logged out")
	}
	p.ClearSession(c)
	if p.ac.IsBasicAuthActive() {
		return c.Redirect(LoginPath)
	}
	return c.Redirect(auth.MainPath)
}

func (p *Provider) cookie(name, value string, expires time.Time) *fiber.Cookie {
	path := p.cookies.Path
	if path == "" {
		path = "/"
	}
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   p.cookies.Domain,
		Expires:  expires,
		Secure:   p.cookies.Secure,
		HTTPOnly: p.cookies.HTTPOnly,
		SameSite: p.cookies.SameSite,
	}
}
