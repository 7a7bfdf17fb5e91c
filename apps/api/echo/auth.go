package echoapi

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/academiahq/academia/core"
	"github.com/academiahq/academia/core/account"
)

const (
	contextTokenKey   = "accountToken"
	contextAccountKey = "account"
	authCookieName    = "token"
)

// appJWTConfig returns the JWT auth middleware config. Built on demand so the
// signing key is read after the configuration has been loaded.
func appJWTConfig() middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(core.Conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt   int64  `json:"oriat,omitempty"`
	Username       string `json:"username,omitempty"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role,omitempty"`
	ApprovalStatus string `json:"approval_status,omitempty"`
	IsActive       bool   `json:"is_active,omitempty"`
	ProfileID      string `json:"profile_id,omitempty"`
}

// Identity maps the claims onto the guard's caller state.
func (c Claims) Identity() account.Identity {
	return account.Identity{
		AccountID:      c.Subject,
		Role:           account.Role(c.Role),
		ApprovalStatus: account.ApprovalStatus(c.ApprovalStatus),
		IsActive:       c.IsActive,
	}
}

func (c Claims) IsAdmin() bool { return account.Role(c.Role) == account.RoleAdmin }

func GetAccountClaims(acct account.Account, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   acct.ID,
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt:   oriat,
		Username:       acct.Username,
		Email:          acct.Email,
		Role:           string(acct.Role),
		ApprovalStatus: string(acct.ApprovalStatus),
		IsActive:       acct.IsActive,
		ProfileID:      acct.ProfileID,
	}
}

func authenticate(ctx echo.Context, uname, pwd string, svc account.Service) (*Claims, error) {
	acct, err := svc.Authenticate(ctx.Request().Context(), uname, pwd)
	if err != nil {
		switch errors.Cause(err) {
		case account.ErrAuthenticationFailed:
			return nil, errAuthenticationFailed
		case account.ErrAccountDeactivated:
			return nil, errAccountDeactivated
		}
		return nil, errors.Wrap(err, "authenticating")
	}
	return GetAccountClaims(acct), nil
}

// GenerateToken generates a signed JWT token string representing the account Claims.
func GenerateToken(claims *Claims) (string, error) {
	conf := appJWTConfig()
	method := jwt.GetSigningMethod(conf.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(conf.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextAccount(ctx echo.Context, svc account.Service, clms ...Claims) (account.Account, error) {
	if acct, ok := ctx.Get(contextAccountKey).(account.Account); ok {
		return acct, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return account.Account{}, errors.Wrap(err, "getting context claims")
		}
	}

	acct, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return account.Account{}, errors.Wrap(err, "finding account by ID")
	}
	ctx.Set(contextAccountKey, acct)
	return acct, nil
}

func refreshToken(ctx echo.Context, svc account.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	acct, err := getContextAccount(ctx, svc, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context account")
	}

	// check if account is still active
	if !acct.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(core.Conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	newClaims := GetAccountClaims(acct, claims.OrigIssuedAt)
	token, err := GenerateToken(newClaims)
	return token, errors.Wrap(err, "generating token")
}

// requestClaims parses the bearer token (or auth cookie) on a request without
// requiring one; it returns (nil, false) when absent or invalid. The guard
// middleware uses it on page routes where anonymous traffic is expected.
func requestClaims(ctx echo.Context) (*Claims, bool) {
	var raw string
	if auth := ctx.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		raw = strings.TrimPrefix(auth, "Bearer ")
	} else if cookie, err := ctx.Cookie(authCookieName); err == nil {
		raw = cookie.Value
	}
	if raw == "" {
		return nil, false
	}

	conf := appJWTConfig()
	token, err := jwt.ParseWithClaims(raw, new(Claims), func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != conf.SigningMethod {
			return nil, errors.Errorf("unexpected signing method: %v", t.Method.Alg())
		}
		return conf.SigningKey, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(*Claims)
	return claims, ok
}
