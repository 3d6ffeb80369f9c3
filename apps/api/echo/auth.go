package echoapi

import (
	"sort"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/schoolier/backend/core"
	"github.com/schoolier/backend/core/identity"
)

var (
	// appJWTConfig is the default JWT auth middleware config. The signing
	// key is filled in by NewServer once the config is loaded.
	appJWTConfig = middleware.JWTConfig{
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "identityToken",
		Claims:        new(Claims),
	}
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt    int64    `json:"oriat,omitempty"`
	Name            string   `json:"name,omitempty"`
	Email           string   `json:"email,omitempty"`
	IsStudent       bool     `json:"is_student,omitempty"`        // -> STUDENT DASHBOARD
	IsInstructor    bool     `json:"is_instructor,omitempty"`     // -> INSTRUCTOR DASHBOARD
	IsAdmin         bool     `json:"is_admin,omitempty"`          // -> ADMIN DASHBOARD
	IsBusinessAdmin bool     `json:"is_business_admin,omitempty"` // -> BUSINESS DASHBOARD
	IsEmployee      bool     `json:"is_employee,omitempty"`       // -> EMPLOYEE DASHBOARD
	IsDemo          bool     `json:"is_demo,omitempty"`
	Roles           []string `json:"roles,omitempty"`
	Dashboard       string   `json:"dashboard,omitempty"`
}

func GetIdentityClaims(ident *identity.Identity, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	roles := make([]string, 0, len(ident.Roles))
	for _, role := range ident.Roles {
		roles = append(roles, string(role))
	}

	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   ident.ID,
			Audience:  "Schoolier",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt:    oriat,
		Name:            ident.Name,
		Email:           ident.Email,
		IsStudent:       ident.IsStudent(),
		IsInstructor:    ident.IsInstructor(),
		IsAdmin:         ident.IsAdmin(),
		IsBusinessAdmin: ident.IsBusinessAdmin(),
		IsEmployee:      ident.IsEmployee(),
		IsDemo:          ident.IsDemo,
		Roles:           roles,
		Dashboard:       identity.Dashboard(ident),
	}
	return claims
}

// GenerateToken generates a signed JWT token string representing the identity Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// claimsIdentity rebuilds an Identity from transmitted claims; good enough
// for read paths that do not need a fresh profile resolution.
func claimsIdentity(claims Claims) *identity.Identity {
	roles := make([]identity.Role, 0, len(claims.Roles))
	for _, role := range claims.Roles {
		roles = append(roles, identity.Role(role))
	}
	role := identity.RoleStudent
	if len(roles) > 0 {
		role = roles[0]
	}
	return &identity.Identity{
		ID:        claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		AvatarURL: identity.AvatarURLFor(claims.Name),
		Role:      role,
		Roles:     roles,
		IsDemo:    claims.IsDemo,
	}
}

func contextHasAnyRole(ctx echo.Context, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	if claims, err := getContextClaims(ctx); err == nil {
		sort.Strings(claims.Roles)
		for _, role := range roles {
			if i := sort.SearchStrings(claims.Roles, role); i < len(claims.Roles) {
				if match := claims.Roles[i]; role == match {
					return true
				}
			}
		}
	}
	return false
}

func refreshToken(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(core.Conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	newClaims := GetIdentityClaims(claimsIdentity(claims), claims.OrigIssuedAt)
	token, err := GenerateToken(newClaims)
	return token, errors.Wrap(err, "generating token")
}
