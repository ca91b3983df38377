package fakeapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	SessionCookie = "givehub_session"

	kindUser        = "user"
	kindAssociation = "association"

	ctxSessionKey = "session"
)

type sessionClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

func (c sessionClaims) accountID() int {
	id, _ := strconv.Atoi(c.Subject)
	return id
}

// sessions issues and verifies signed session cookies.
type sessions struct {
	secret []byte
	ttl    time.Duration

	mutex   sync.Mutex
	issued  []string
	revoked map[string]bool
}

func newSessions(secret []byte, ttl time.Duration) *sessions {
	return &sessions{secret: secret, ttl: ttl, revoked: make(map[string]bool)}
}

func (s *sessions) issue(kind string, accountID int) (*http.Cookie, error) {
	now := time.Now()
	claims := sessionClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.Itoa(accountID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, errors.Wrap(err, "signing session")
	}
	s.mutex.Lock()
	s.issued = append(s.issued, claims.ID)
	s.mutex.Unlock()
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(s.ttl),
	}, nil
}

func (s *sessions) verify(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Wrap(err, "parsing session")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.revoked[claims.ID] {
		return nil, errors.New("session revoked")
	}
	return claims, nil
}

func (s *sessions) revoke(id string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.revoked[id] = true
}

// expireAll invalidates every session issued so far.
func (s *sessions) expireAll() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, id := range s.issued {
		s.revoked[id] = true
	}
}

func expiredCookie() *http.Cookie {
	return &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1}
}

// sessionMiddleware rejects requests without a valid session of the given kind.
func (s *sessions) middleware(kind string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ck, err := ctx.Cookie(SessionCookie)
			if err != nil || ck.Value == "" {
				return errUnauthorized
			}
			claims, err := s.verify(ck.Value)
			if err != nil || claims.Kind != kind {
				return errUnauthorized
			}
			ctx.Set(ctxSessionKey, claims)
			return next(ctx)
		}
	}
}

func contextSession(ctx echo.Context) (*sessionClaims, error) {
	if claims, ok := ctx.Get(ctxSessionKey).(*sessionClaims); ok {
		return claims, nil
	}
	return nil, errors.New("no session in context")
}
