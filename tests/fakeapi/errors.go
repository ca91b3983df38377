package fakeapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

type fieldErrors map[string]string

func (fe fieldErrors) Error() string { return "invalid input" }

// appHTTPErrorHandler renders every error as {"message": ...}, plus per-field errors on 400s.
func appHTTPErrorHandler(err error, ctx echo.Context) {
	var (
		code = http.StatusInternalServerError
		body = echo.Map{"message": http.StatusText(http.StatusInternalServerError)}
	)

	switch origErr := errors.Cause(err).(type) {
	case *echo.HTTPError:
		code = origErr.Code
		body = echo.Map{"message": origErr.Message}
	case fieldErrors:
		code = http.StatusBadRequest
		body = echo.Map{"message": origErr.Error(), "fields": map[string]string(origErr)}
	default:
		switch errors.Cause(err) {
		case errNotFound:
			code = http.StatusNotFound
			body = echo.Map{"message": errNotFound.Error()}
		case errEmailExists:
			code = http.StatusConflict
			body = echo.Map{"message": errEmailExists.Error()}
		default:
			ctx.Echo().Logger.Error(err)
		}
	}

	if !ctx.Response().Committed {
		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, body)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
