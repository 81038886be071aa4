// reporting/echo.go
package reporting

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"

	"github.com/pbdna/pbdna_backend/middleware"
)

// Middleware binds a reporting hub to each request so captured events carry
// the request context.
func Middleware() echo.MiddlewareFunc {
	return sentryecho.New(sentryecho.Options{Repanic: true})
}

// ErrorHandler wraps Echo's default error handler: server errors are
// captured with the authenticated user attached to the event. Expected
// 4xx responses are not reported.
func ErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if hub := sentryecho.GetHubFromContext(c); hub != nil {
			if claims := middleware.GetUserFromToken(c); claims != nil {
				hub.Scope().SetUser(sentry.User{
					ID:    claims.UserID,
					Email: claims.Email,
				})
				if claims.SubscriptionTier != "" {
					hub.Scope().SetTag("subscription_tier", claims.SubscriptionTier)
				}
			}

			var httpErr *echo.HTTPError
			if !errors.As(err, &httpErr) || httpErr.Code >= http.StatusInternalServerError {
				hub.CaptureException(err)
			}
		}

		e.DefaultHTTPErrorHandler(err, c)
	}
}
