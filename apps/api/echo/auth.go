package echoapi

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/menamiji/info-class/core"
	"github.com/menamiji/info-class/core/auth"
)

type authApi struct {
	svc        *auth.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAuthAPI(g *echo.Group, deps ServerDeps) {
	api := authApi{
		svc:        deps.AuthSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	// un-authed endpoints
	g.POST("/exchange", api.exchange)

	// authed endpoints
	ag := g.Group("", sessionMiddleware(api.svc))
	ag.GET("/me", api.me)
	ag.POST("/refresh", api.refresh)
}

// Handlers

func (api *authApi) exchange(ctx echo.Context) error {
	var data ExchangeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ExchangeRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	session, err := api.svc.Exchange(ctx.Request().Context(), data.Assertion)
	if err != nil {
		return errors.Wrap(err, "exchanging assertion")
	}
	return jsonOK(ctx, session)
}

func (api *authApi) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	return jsonOK(ctx, auth.UserFromClaims(claims))
}

func (api *authApi) refresh(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	session, err := api.svc.Refresh(claims)
	if err != nil {
		return errors.Wrap(err, "refreshing session")
	}
	return jsonOK(ctx, session)
}

type ExchangeRequest struct {
	Assertion string `json:"assertion" validate:"required"`
}

func (er *ExchangeRequest) Validate(validate *validator.Validate) error {
	er.Assertion = core.CleanString(er.Assertion)
	return validate.Struct(er)
}
