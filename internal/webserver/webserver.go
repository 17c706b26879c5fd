package webserver

import (
	"fmt"
	"net/http"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/milkrunhq/milkrun/config"
)

// WebServer hosts the admin API. Routes under /api require a bearer
// token; login and webhook endpoints are registered on the public
// group.
type WebServer struct {
	root *echo.Echo
	api  *echo.Group
	pub  *echo.Group
	cfg  *config.AppConfig
	db   *gorm.DB
}

var server *WebServer

// Init builds the singleton server. Must be called before any route
// registration.
func Init(cfg *config.AppConfig, db *gorm.DB) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("db", db)
			start := time.Now()
			err := next(c)
			zap.L().Debug("http request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Duration("elapsed", time.Since(start)))
			return err
		}
	})

	pub := e.Group("/api/public")
	api := e.Group("/api")
	api.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(cfg.Web.Secret),
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, map[string]interface{}{
				"code":    "UNAUTHORIZED",
				"message": "missing or invalid token",
			})
		},
	}))

	server = &WebServer{root: e, api: api, pub: pub, cfg: cfg, db: db}
	return server
}

// Listen blocks serving HTTP (or HTTPS when a cert pair is configured).
func Listen() error {
	addr := fmt.Sprintf("%s:%d", server.cfg.Web.Host, server.cfg.Web.Port)
	zap.S().Infof("admin api listening on %s", addr)
	if server.cfg.Web.TlsCert != "" && server.cfg.Web.TlsKey != "" {
		return server.root.StartTLS(addr, server.cfg.Web.TlsCert, server.cfg.Web.TlsKey)
	}
	return server.root.Start(addr)
}

// Echo exposes the underlying engine (tests).
func Echo() *echo.Echo {
	return server.root
}

func ApiGET(path string, h echo.HandlerFunc) {
	server.api.GET(path, h)
}

func ApiPOST(path string, h echo.HandlerFunc) {
	server.api.POST(path, h)
}

func ApiPUT(path string, h echo.HandlerFunc) {
	server.api.PUT(path, h)
}

func ApiDELETE(path string, h echo.HandlerFunc) {
	server.api.DELETE(path, h)
}

// PubPOST registers an unauthenticated endpoint (logins, payment
// webhook).
func PubPOST(path string, h echo.HandlerFunc) {
	server.pub.POST(path, h)
}

func PubGET(path string, h echo.HandlerFunc) {
	server.pub.GET(path, h)
}
