// Package fakeapi is an in-memory stand-in for the GiveHub HTTP API, used by the client tests.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/givehub/console/core/association"
	"github.com/givehub/console/core/auth"
	"github.com/givehub/console/core/user"
)

// BasePath is the prefix every API route is mounted under.
const BasePath = "/api"

type (
	Options struct {
		Secret     []byte
		SessionTTL time.Duration
		Debug      bool
	}

	// Server is an http.Handler serving the fake API. It records every routed request so tests can
	// assert what reached the wire.
	Server struct {
		app      *echo.Echo
		db       *store
		sessions *sessions

		mutex  sync.Mutex
		calls  map[string]int
		bodies map[string][]map[string]interface{}
	}
)

var _ http.Handler = (*Server)(nil)

func New(opts *Options) *Server {
	if opts == nil {
		opts = &Options{}
	}
	if len(opts.Secret) == 0 {
		opts.Secret = []byte("secret")
	}
	if opts.SessionTTL == 0 {
		opts.SessionTTL = time.Hour
	}
	s := &Server{
		app:      echo.New(),
		db:       newStore(),
		sessions: newSessions(opts.Secret, opts.SessionTTL),
		calls:    make(map[string]int),
		bodies:   make(map[string][]map[string]interface{}),
	}
	s.setup(opts.Debug)
	return s
}

func (s *Server) setup(debug bool) {
	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.Debug = debug
	s.app.Logger.SetLevel(log.OFF)
	if debug {
		s.app.Logger.SetLevel(log.DEBUG)
		s.app.Use(middleware.Logger())
	}
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(s.recordMiddleware)
	s.app.HTTPErrorHandler = appHTTPErrorHandler

	api := s.app.Group(BasePath)
	userSession := s.sessions.middleware(kindUser)
	admin := adminMiddleware(s.db)

	api.POST("/auth/login", s.login)
	api.POST("/auth/logout", s.logout)

	api.GET("/users/profile", s.userProfile, userSession)
	api.POST("/users/profile", s.createUser)
	api.GET("/users/admin/all", s.queryUsers, userSession, admin)
	api.GET("/users/admin/:id", s.getUser, userSession, admin)
	api.PUT("/users/admin/:id", s.updateUser, userSession, admin)
	api.DELETE("/users/admin/:id", s.deleteUser, userSession, admin)

	api.GET("/associations", s.publicAssociations)
	api.GET("/associations/profile", s.associationProfile, s.sessions.middleware(kindAssociation))
	api.GET("/associations/:id", s.getAssociation)
	api.GET("/associations/admin/all", s.queryAssociations, userSession, admin)
	api.POST("/associations/admin", s.createAssociation, userSession, admin)
	api.PUT("/associations/admin/:id", s.updateAssociation, userSession, admin)
	api.DELETE("/associations/admin/:id", s.deleteAssociation, userSession, admin)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

// recordMiddleware counts requests per route (eg. "DELETE /users/admin/:id") before any auth runs,
// and keeps a copy of JSON bodies.
func (s *Server) recordMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		key := routeKey(ctx.Request().Method, strings.TrimPrefix(ctx.Path(), BasePath))

		var body map[string]interface{}
		if req := ctx.Request(); req.Body != nil && req.ContentLength != 0 {
			raw, err := readBody(req)
			if err != nil {
				return err
			}
			_ = json.Unmarshal(raw, &body)
		}

		s.mutex.Lock()
		s.calls[key]++
		if body != nil {
			s.bodies[key] = append(s.bodies[key], body)
		}
		s.mutex.Unlock()
		return next(ctx)
	}
}

func routeKey(method, path string) string {
	return method + " " + path
}

// Calls returns how many requests reached route, eg. Calls("GET", "/users/admin/all").
func (s *Server) Calls(method, route string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.calls[routeKey(method, route)]
}

// TotalCalls returns the number of requests received on all routes.
func (s *Server) TotalCalls() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// Bodies returns the decoded JSON bodies received on route, in order.
func (s *Server) Bodies(method, route string) []map[string]interface{} {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	bodies := s.bodies[routeKey(method, route)]
	out := make([]map[string]interface{}, len(bodies))
	copy(out, bodies)
	return out
}

// ResetCalls forgets the recorded requests.
func (s *Server) ResetCalls() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.calls = make(map[string]int)
	s.bodies = make(map[string][]map[string]interface{})
}

// ExpireSessions invalidates every session issued so far; the next authenticated call gets a 401.
func (s *Server) ExpireSessions() {
	s.sessions.expireAll()
}

// AddUser seeds a user account.
func (s *Server) AddUser(usr user.User, password string) (user.User, error) {
	return s.db.createUser(usr, password)
}

// AddAssociation seeds an association account.
func (s *Server) AddAssociation(assoc association.Association, password string) (association.Association, error) {
	return s.db.createAssociation(assoc, password)
}

// adminMiddleware lets only ADMIN users through. It must run after the user session middleware.
func adminMiddleware(db *store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := contextSession(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context session")
			}
			usr, err := db.getUser(claims.accountID())
			if err != nil {
				return errUnauthorized
			}
			if usr.UserType != auth.RoleAdmin {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
