package echoapi

import (
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/academiahq/academia/core/account"
)

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin() {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// guardMiddleware enforces the account lifecycle rules on every dashboard
// request. Anonymous callers on a protected path are sent to login; everyone
// else gets the Authorize verdict: pages are redirected with a 302 while /api
// paths receive the verdict as JSON.
func guardMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			path := ctx.Request().URL.Path

			claims, ok := requestClaims(ctx)
			if !ok {
				// anonymous sessions only reach public paths
				anon := account.Identity{IsActive: true}
				if account.Authorize(anon, path).Decision == account.Allow {
					return next(ctx)
				}
				return guardRedirect(ctx, path, account.PathLogin)
			}

			ctx.Set(contextTokenKey, &jwt.Token{Claims: claims, Valid: true})

			verdict := account.Authorize(claims.Identity(), path)
			switch verdict.Decision {
			case account.Allow:
				return next(ctx)
			case account.Redirect:
				return guardRedirect(ctx, path, verdict.Location)
			default:
				return errHttpForbidden
			}
		}
	}
}

func guardRedirect(ctx echo.Context, path, location string) error {
	if isAPIPath(path) {
		return ctx.JSON(http.StatusForbidden, echo.Map{
			"error":    "not allowed here",
			"location": location,
		})
	}
	return ctx.Redirect(http.StatusFound, location)
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
