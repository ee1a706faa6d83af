package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/menamiji/info-class/core/auth"
)

const contextClaimsKey = "sessionClaims"

// sessionMiddleware authenticates requests with a bearer session token and
// stores the verified claims in the request context.
func sessionMiddleware(svc *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			raw, err := extractBearerToken(ctx)
			if err != nil {
				return err
			}
			claims, err := svc.VerifyToken(raw)
			if err != nil {
				return err
			}
			ctx.Set(contextClaimsKey, *claims)
			return next(ctx)
		}
	}
}

func extractBearerToken(ctx echo.Context) (string, error) {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", auth.ErrNoToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", auth.ErrNoToken
	}
	return parts[1], nil
}

func getContextClaims(ctx echo.Context) (auth.Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(auth.Claims); ok {
		return claims, nil
	}
	return auth.Claims{}, auth.ErrNoToken
}
