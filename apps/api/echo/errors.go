package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/menamiji/info-class/core"
	"github.com/menamiji/info-class/core/auth"
)

// machine-readable error codes of the response envelope
const (
	codeInvalidAssertion = "INVALID_ASSERTION"
	codeDomainNotAllowed = "DOMAIN_NOT_ALLOWED"
	codeNoToken          = "NO_TOKEN"
	codeTokenExpired     = "TOKEN_EXPIRED"
	codeTokenInvalid     = "TOKEN_INVALID"
	codeValidation       = "VALIDATION_ERROR"
	codeUnknown          = "UNKNOWN_ERROR"
)

type (
	successResponse struct {
		OK   bool        `json:"ok"`
		Data interface{} `json:"data"`
	}

	errorBody struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}

	errorResponse struct {
		OK    bool      `json:"ok"`
		Error errorBody `json:"error"`
	}
)

func jsonOK(ctx echo.Context, data interface{}) error {
	return ctx.JSON(http.StatusOK, successResponse{OK: true, Data: data})
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that maps our errors
// to the response envelope. signalShutdown is called in order to gracefully shutdown
// the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(deps ServerDeps, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var status int
		var body errorBody

		cause := errors.Cause(err)
		switch cause {
		case auth.ErrInvalidAssertion:
			status = http.StatusBadRequest
			body = errorBody{Code: codeInvalidAssertion, Message: cause.Error()}
		case auth.ErrEmailNotVerified:
			status = http.StatusUnauthorized
			body = errorBody{Code: codeInvalidAssertion, Message: cause.Error()}
		case auth.ErrDomainNotAllowed:
			status = http.StatusUnauthorized
			body = errorBody{Code: codeDomainNotAllowed, Message: cause.Error()}
		case auth.ErrNoToken:
			status = http.StatusUnauthorized
			body = errorBody{Code: codeNoToken, Message: cause.Error()}
		case auth.ErrTokenExpired:
			status = http.StatusUnauthorized
			body = errorBody{Code: codeTokenExpired, Message: cause.Error()}
		case auth.ErrTokenInvalid:
			status = http.StatusForbidden
			body = errorBody{Code: codeTokenInvalid, Message: cause.Error()}
		default:
			status, body = errorDetails(err, cause, ctx, deps, signalShutdown)
		}

		if ctx.Echo().Debug && body.Details == nil {
			body.Details = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(status)
			} else {
				err = ctx.JSON(status, errorResponse{Error: body})
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func errorDetails(
	err, cause error,
	ctx echo.Context,
	deps ServerDeps,
	signalShutdown func(),
) (int, errorBody) {
	switch origErr := cause.(type) {
	case *echo.HTTPError:
		if origErr.Internal != nil {
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
		}
		return origErr.Code, errorBody{
			Code:    fmt.Sprintf("HTTP_%d", origErr.Code),
			Message: fmt.Sprintf("%v", origErr.Message),
		}
	case validator.ValidationErrors:
		fldErrs := make(map[string]string, len(origErr))
		for _, vErr := range origErr {
			fldErrs[vErr.Field()] = vErr.Translate(deps.Translator)
		}
		return http.StatusBadRequest, errorBody{Code: codeValidation, Message: "validation failed", Details: fldErrs}
	case *core.ValidationError:
		body := errorBody{Code: codeValidation, Message: "validation failed"}
		if origErr.Fields != nil {
			body.Details = origErr.FieldMap()
		} else {
			body.Message = origErr.Error()
		}
		return http.StatusBadRequest, body
	default: // any other error is a server error
		msg := http.StatusText(http.StatusInternalServerError)

		var usr auth.User
		if claims, cErr := getContextClaims(ctx); cErr == nil {
			usr = auth.UserFromClaims(claims)
		}
		deps.Logger.Error(msg, errors.Wrap(err, msg), usr)

		// shutting down...
		if core.IsShutdown(err) {
			signalShutdown()
		}
		return http.StatusInternalServerError, errorBody{Code: codeUnknown, Message: msg}
	}
}
