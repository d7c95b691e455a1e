package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

var kindStatus = map[core.Kind]int{
	core.KindNotFound:          http.StatusNotFound,
	core.KindForbidden:         http.StatusForbidden,
	core.KindValidation:        http.StatusBadRequest,
	core.KindConflict:          http.StatusConflict,
	core.KindDependencyFailure: http.StatusBadGateway,
}

func fieldsMessage(flds []core.FieldError) echo.Map {
	m := make(echo.Map, len(flds))
	for _, f := range flds {
		m[f.Field] = f.Error
	}
	return m
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		var (
			httpErr *echo.HTTPError
			verrs   validator.ValidationErrors
			valErr  *core.ValidationError
			kindErr *core.Error
		)
		switch {
		case errors.As(err, &httpErr):
			if httpErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = httpErr.Message
				break
			}
			if httpErr.Internal != nil {
				if herr, ok := httpErr.Internal.(*echo.HTTPError); ok {
					httpErr = herr
				}
			}
			code = httpErr.Code
			message = httpErr.Message
		case errors.As(err, &verrs):
			code = http.StatusBadRequest
			message = fieldsMessage(core.TranslateErrors(verrs))
		case errors.As(err, &valErr):
			code = http.StatusBadRequest
			if len(valErr.Fields) > 0 {
				message = fieldsMessage(valErr.Fields)
			} else {
				message = valErr.Error()
			}
		case errors.As(err, &kindErr):
			code = kindStatus[kindErr.Kind]
			message = echo.Map{"error": kindErr.Error(), "kind": kindErr.Kind}
			if kindErr.Kind == core.KindDependencyFailure {
				logger.Error("dependency failure", "path", ctx.Path(), "method", ctx.Request().Method, identityArg(ctx), err)
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			logger.Error(msg, "path", ctx.Path(), "method", ctx.Request().Method, identityArg(ctx), errors.Wrap(err, msg))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}
		if code == 0 {
			code = http.StatusInternalServerError
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// identityArg is the caller, or an anonymous identity, for log entries.
func identityArg(ctx echo.Context) core.Identity {
	ident, _ := getContextIdentity(ctx)
	return ident
}
