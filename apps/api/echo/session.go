package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/schoolier/backend/core"
	"github.com/schoolier/backend/core/identity"
	"github.com/schoolier/backend/core/session"
)

type sessionApi struct {
	store      *session.Store
	validate   *validator.Validate
	translator ut.Translator
}

func registerSessionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	store *session.Store,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := sessionApi{
		store:      store,
		validate:   validate,
		translator: translator,
	}

	ag := g.Group("/auth")

	// un-authed endpoints
	// TODO: rate limit `/login` & `/password-reset`
	ag.POST("/login", api.login)
	ag.POST("/login-demo", api.loginDemo)
	ag.POST("/register", api.register)
	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	jg := ag.Group("", jwt)
	jg.POST("/logout", api.logout)
	jg.POST("/token-refresh", api.refreshToken)
	jg.GET("/me", api.me)
	jg.GET("/dashboard", api.dashboard)
	jg.GET("/roles", api.queryRoles, adminMiddleware())
}

// Handlers

func (api *sessionApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ident, err := api.store.Login(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return sessionError(err, "signing in")
	}
	return api.loginResponse(ctx, http.StatusOK, ident)
}

func (api *sessionApi) loginDemo(ctx echo.Context) error {
	var data DemoLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DemoLoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	acct, ok := identity.DemoAccountByEmail(data.Email)
	if !ok {
		return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "unknown demo account"})
	}

	ident, err := api.store.LoginDemo(ctx.Request().Context(), acct)
	if err != nil {
		return sessionError(err, "signing in demo account")
	}
	return api.loginResponse(ctx, http.StatusOK, ident)
}

func (api *sessionApi) register(ctx echo.Context) error {
	var data session.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ident, err := api.store.Register(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == session.ErrEmailExists {
			return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "a user with this email already exists"})
		}
		return sessionError(err, "registering")
	}
	return api.loginResponse(ctx, http.StatusCreated, ident)
}

func (api *sessionApi) logout(ctx echo.Context) error {
	if err := api.store.Logout(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "signing out")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Signed out."})
}

func (api *sessionApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.store.ResetPassword(ctx.Request().Context(), data.Email); err != nil {
		// do not return errors to attackers; transport failures excepted
		cause := errors.Cause(err)
		if cause == session.ErrTransport || cause == session.ErrTimeout {
			return sessionError(err, "requesting password reset")
		}
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *sessionApi) confirmPasswordReset(ctx echo.Context) error {
	var data session.ResetAccountPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetAccountPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.store.ConfirmResetPassword(ctx.Request().Context(), data.UID, data.Token, data.Password); err != nil {
		return core.NewValidationError(errors.New("invalid or expired reset link"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *sessionApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *sessionApi) me(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	// prefer the live session over claims when they describe the same account
	if current := api.store.Current(); current != nil && current.ID == claims.Subject {
		return ctx.JSON(http.StatusOK, current)
	}
	return ctx.JSON(http.StatusOK, claimsIdentity(claims))
}

func (api *sessionApi) dashboard(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	ident := api.store.Current()
	if ident == nil || ident.ID != claims.Subject {
		ident = claimsIdentity(claims)
	}
	return ctx.JSON(http.StatusOK, DashboardResponse{Dashboard: identity.Dashboard(ident)})
}

func (api *sessionApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, identity.Roles)
}

func (api *sessionApi) loginResponse(ctx echo.Context, code int, ident *identity.Identity) error {
	token, err := GenerateToken(GetIdentityClaims(ident))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(code, LoginResponse{
		Token:     token,
		Identity:  ident,
		Dashboard: identity.Dashboard(ident),
	})
}

// sessionError maps credential-exchange sentinels onto HTTP semantics.
func sessionError(err error, msg string) error {
	switch errors.Cause(err) {
	case session.ErrInvalidCredentials:
		return core.NewValidationError(errors.New("invalid credentials"))
	case session.ErrUnknownDemoAccount:
		return core.NewValidationError(nil, core.FieldError{Field: "email", Error: "unknown demo account"})
	case session.ErrTimeout:
		return errGatewayTimeout
	case session.ErrBusy:
		return errBusy
	case session.ErrProfileUnavailable, session.ErrTransport:
		return errBadGateway
	default:
		return errors.Wrap(err, msg)
	}
}
