package echoapi

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/academiahq/academia/core"
	"github.com/academiahq/academia/core/account"
)

var errAcctNotFoundInCtx = errors.New("account object not found in echo.Context")

type accountApi struct {
	svc account.Service
}

func registerAccountAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc account.Service) {
	api := accountApi{svc: svc}

	ag := g.Group("/accounts")

	// un-authed endpoints
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/password-reset", api.resetPassword)
	ag.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	auth := ag.Group("", jwt)
	auth.POST("/token-refresh", api.refreshToken)
	auth.GET("/me", api.me)
	auth.POST("/select-role", api.selectRole)
	auth.GET("/roles", api.queryRoles)

	// admin endpoints
	auth.GET("", api.query, adminMiddleware())
	auth.DELETE("", api.destroyMultiple, adminMiddleware())

	// detail endpoints
	dg := auth.Group("/:id", ctxAccountOrAdminMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/approval", api.decideApproval, adminMiddleware())
}

// Handlers

func (api *accountApi) register(ctx echo.Context) error {
	var data account.NewAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAccount")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	acct, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, acct)
}

func (api *accountApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := authenticate(ctx, data.Username, data.Password, api.svc)
	if err != nil {
		return err
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *accountApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); err != nil {
		// do not leak account existence to attackers
		if _, ok := errors.Cause(err).(*core.NotFoundError); !ok {
			ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
		}
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *accountApi) confirmPasswordReset(ctx echo.Context) error {
	var data account.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.ConfirmPasswordReset(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *accountApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *accountApi) me(ctx echo.Context) error {
	acct, err := getContextAccount(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *accountApi) selectRole(ctx echo.Context) error {
	var data SelectRoleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SelectRoleRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	acct, err := api.svc.SelectRole(ctx.Request().Context(), claims.Subject, data.Role)
	if err != nil {
		return err
	}
	// the issued token now carries stale claims; clients should refresh
	return ctx.JSON(http.StatusOK, acct)
}

func (api *accountApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, account.AssignableRoles)
}

func (api *accountApi) query(ctx echo.Context) error {
	filter := new(account.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []account.Account{})
	}

	var accts []account.Account
	var err error
	if filter.IsEmpty() {
		accts, err = api.svc.QueryAll(ctx.Request().Context())
	} else {
		accts, err = api.svc.Filter(ctx.Request().Context(), *filter)
	}
	if err != nil {
		return errors.Wrap(err, "querying accounts")
	}
	if accts == nil {
		accts = []account.Account{}
	}
	return ctx.JSON(http.StatusOK, accts)
}

func (api *accountApi) retrieve(ctx echo.Context) error {
	acct, ok := ctx.Get("object").(account.Account)
	if !ok {
		return errors.Wrap(errAcctNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *accountApi) update(ctx echo.Context) error {
	acct, ok := ctx.Get("object").(account.Account)
	if !ok {
		return errors.Wrap(errAcctNotFoundInCtx, "retrieving object from context")
	}

	var data account.UpdateAccount
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAccount")
	}
	if err := data.Validate(ctx.Request().Context(), acct, api.svc); err != nil {
		return err
	}

	acct, err := api.svc.Update(ctx.Request().Context(), acct, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *accountApi) decideApproval(ctx echo.Context) error {
	acct, ok := ctx.Get("object").(account.Account)
	if !ok {
		return errors.Wrap(errAcctNotFoundInCtx, "retrieving object from context")
	}

	var data DecideApprovalRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DecideApprovalRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	acct, err := api.svc.DecideApproval(ctx.Request().Context(), acct.ID, data.Decision)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, acct)
}

func (api *accountApi) destroy(ctx echo.Context) error {
	acct, ok := ctx.Get("object").(account.Account)
	if !ok {
		return errors.Wrap(errAcctNotFoundInCtx, "retrieving object from context")
	}

	// ctxAccount cannot delete themselves
	ctxAcct, err := getContextAccount(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}
	if acct.ID == ctxAcct.ID {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), acct.ID); err != nil {
		return errors.Wrap(err, "deleting account")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *accountApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	// ctxAccount cannot delete themselves
	ctxAcct, err := getContextAccount(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}
	sort.Strings(query.IDs)
	if i := sort.SearchStrings(query.IDs, ctxAcct.ID); i < len(query.IDs) {
		if match := query.IDs[i]; ctxAcct.ID == match {
			return errHttpForbidden
		}
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting accounts")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func ctxAccountOrAdminMiddleware(svc account.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxAcct, err := getContextAccount(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context account")
			}

			if ctx.Param("id") == ctxAcct.ID || ctxAcct.IsAdmin() {
				if acct, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set("object", acct)
					return next(ctx)
				} else if _, ok := errors.Cause(err).(*core.NotFoundError); !ok {
					return errors.Wrap(err, "finding account by ID")
				}
			}
			return errHttpNotFound
		}
	}
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SelectRoleRequest struct {
		Role string `json:"role" validate:"required"`
	}

	DecideApprovalRequest struct {
		Decision string `json:"decision" validate:"required"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return core.Validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate() error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return core.Validate.Struct(pr)
}

func (sr *SelectRoleRequest) Validate() error {
	sr.Role = core.CleanString(sr.Role, true /* lower */)
	return core.Validate.Struct(sr)
}

func (dr *DecideApprovalRequest) Validate() error {
	dr.Decision = core.CleanString(dr.Decision, true /* lower */)
	return core.Validate.Struct(dr)
}
