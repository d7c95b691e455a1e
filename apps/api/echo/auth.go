package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

const (
	contextTokenKey    = "userToken"
	contextIdentityKey = "identity"
	bearerScheme       = "Bearer"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Roles []string `json:"roles,omitempty"`
}

func jwtConfig(secret []byte) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    secret,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// GenerateToken signs an HS256 token for ident. It is what the login service issues in jwt mode.
func GenerateToken(secret []byte, issuer string, ident core.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    issuer,
			Subject:   ident.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
		Roles: ident.Roles,
	}
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// jwtIdentityMiddleware turns the claims parsed by echo's JWT middleware into a core.Identity.
func jwtIdentityMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token, ok := ctx.Get(contextTokenKey).(*jwt.Token)
		if !ok {
			return errUnauthorized
		}
		claims, ok := token.Claims.(*Claims)
		if !ok || claims.Subject == "" {
			return errUnauthorized
		}
		roles := claims.Roles
		if len(roles) == 0 {
			roles = []string{core.RoleGuest}
		}
		ctx.Set(contextIdentityKey, core.Identity{ID: claims.Subject, Roles: roles})
		return next(ctx)
	}
}

// remoteAuthMiddleware delegates token verification to the external login service.
func remoteAuthMiddleware(verifier core.IdentityVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, err := bearerToken(ctx.Request())
			if err != nil {
				return err
			}
			ident, err := verifier.Verify(ctx.Request().Context(), token)
			if err != nil {
				if errors.Is(err, core.ErrUnauthenticated) {
					return errUnauthorized
				}
				return errors.Wrap(err, "verifying identity")
			}
			ctx.Set(contextIdentityKey, ident)
			return next(ctx)
		}
	}
}

func bearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get(echo.HeaderAuthorization)
	l := len(bearerScheme)
	if len(auth) > l+1 && strings.EqualFold(auth[:l], bearerScheme) {
		return strings.TrimSpace(auth[l+1:]), nil
	}
	return "", middleware.ErrJWTMissing
}

// newAuthMiddleware picks the identity source: the remote login service when a verifier is given, local JWTs otherwise.
func newAuthMiddleware(secret []byte, verifier core.IdentityVerifier) echo.MiddlewareFunc {
	if verifier != nil {
		return remoteAuthMiddleware(verifier)
	}
	jwtMw := middleware.JWTWithConfig(jwtConfig(secret))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMw(jwtIdentityMiddleware(next))
	}
}

func getContextIdentity(ctx echo.Context) (core.Identity, error) {
	if ident, ok := ctx.Get(contextIdentityKey).(core.Identity); ok {
		return ident, nil
	}
	return core.Identity{}, errUnauthorized
}
