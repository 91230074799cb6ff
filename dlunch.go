// Package dlunch wires the authentication provider and the APIs into a http
// server
package dlunch

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	log "github.com/sirupsen/logrus"

	"github.com/data-lunch/dlunch/api"
	"github.com/data-lunch/dlunch/api/adminapi"
	"github.com/data-lunch/dlunch/api/frontapi"
	"github.com/data-lunch/dlunch/auth"
	"github.com/data-lunch/dlunch/auth/provider"
	"github.com/data-lunch/dlunch/internal/version"
)

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:    3 * time.Second,
	WriteTimeout:   20 * time.Second,
	IdleTimeout:    150 * time.Second,
	ReadBufferSize: 8192,
	ErrorHandler:   handleError,
	Network:        "tcp",
}

//go:embed page.html
var pageHTML string

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

// Server serves the login provider, the pages and the APIs
type Server struct {
	server     *fiber.App
	serverConf ServerConf
	provider   *provider.Provider
}

// NewServer creates a new Server. Access logs are written to accessLog; nil
// disables them.
func NewServer(serverConf ServerConf, p *provider.Provider, accessLog io.Writer) (*Server, error) {
	if tps := serverConf.TrustedProxies; len(tps) > 0 {
		FiberServerConfig.TrustedProxies = serverConf.TrustedProxies
		FiberServerConfig.EnableTrustedProxyCheck = true
	}
	FiberServerConfig.ProxyHeader = serverConf.ForwardedIPHeader
	server := fiber.New(FiberServerConfig)
	server.Use(recover.New())
	server.Use(compress.New())
	if accessLog != nil {
		server.Use(logger.New(logger.Config{Output: accessLog}))
	}
	server.Use(requestid.New())
	server.Use(p.Session())

	s := &Server{
		server:     server,
		serverConf: serverConf,
		provider:   p,
	}
	p.Register(server)
	server.Get(auth.MainPath, p.RequireAuthorization(), s.page("Lunch"))
	server.Get(adminapi.BackendPath, p.RequireAuthorization(), s.page("Backend"))

	// the admin api authenticates on its own, so it must be matched before
	// the front api middleware
	if err := adminapi.Register(server.Group("/api/v1/admin"), serverConf.ExternalURL, p); err != nil {
		return nil, err
	}
	frontapi.Register(server.Group("/api/v1"), p)
	return s, nil
}

func (s *Server) page(title string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := s.provider.AuthUser(c)
		isGuest, err := user.IsGuest(true)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err = pageTemplate.Execute(
			&buf, struct {
				Title    string
				User     string
				IsGuest  bool
				Backend  bool
				AuthType string
				Version  string
			}{
				Title:    title,
				User:     user.Name(),
				IsGuest:  isGuest,
				Backend:  s.provider.Authorize(c, adminapi.BackendPath),
				AuthType: s.provider.AuthContext().AuthType(),
				Version:  version.VERSION,
			},
		); err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(buf.Bytes())
	}
}

// HttpHandlerFunc returns an http.HandlerFunc for serving all the necessary endpoints
func (s Server) HttpHandlerFunc() http.HandlerFunc {
	return adaptor.FiberApp(s.server)
}

// App returns the underlying fiber.App
func (s Server) App() *fiber.App {
	return s.server
}

// Listen starts an http server at the specific address for serving all the
// necessary endpoints
func (s Server) Listen(addr string) error {
	return s.server.Listen(addr)
}

// Start starts the server as configured and blocks
func (s Server) Start() {
	conf := s.serverConf
	if !conf.TLS.Enabled {
		log.WithField("port", conf.Port).Info("TLS is disabled starting http server")
		log.WithError(s.server.Listen(fmt.Sprintf("%s:%d", conf.IPListen, conf.Port))).Fatal()
	}
	// TLS enabled
	if conf.TLS.RedirectHTTP {
		httpServer := fiber.New(FiberServerConfig)
		httpServer.All(
			"*", func(ctx *fiber.Ctx) error {
				//goland:noinspection HttpUrlsUsage
				return ctx.Redirect(
					strings.Replace(ctx.Request().URI().String(), "http://", "https://", 1),
					fiber.StatusPermanentRedirect,
				)
			},
		)
		log.Info("TLS and http redirect enabled, starting redirect server on port 80")
		go func() {
			log.WithError(httpServer.Listen(conf.IPListen + ":80")).Fatal()
		}()
	}
	time.Sleep(time.Millisecond) // This is just for a more pretty output with the tls header printed after the http one
	log.Info("TLS enabled, starting https server on port 443")
	log.WithError(s.server.ListenTLS(conf.IPListen+":443", conf.TLS.Cert, conf.TLS.Key)).Fatal()
}

func handleError(ctx *fiber.Ctx, err error) error {
	var e *fiber.Error
	if !errors.As(err, &e) {
		log.WithError(err).WithField("path", ctx.Path()).Error("request failed")
		e = fiber.ErrInternalServerError
	}
	return ctx.Status(e.Code).JSON(api.ErrorFromFiber(e))
}
