package echoapi

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/gregoryekhator/debonairkent/core"
	"github.com/gregoryekhator/debonairkent/core/user"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
)

var NowFunc = time.Now // mockable

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64    `json:"oriat,omitempty"`
	Username     string   `json:"username,omitempty"`
	Email        string   `json:"email,omitempty"`
	IsAdmin      bool     `json:"is_admin,omitempty"`
	Roles        []string `json:"roles,omitempty"`
}

// UserID returns the id of the user the claims were issued for.
func (c Claims) UserID() int {
	id, _ := strconv.Atoi(c.Subject)
	return id
}

// Tokens issues and checks the tokens of the API.
type Tokens struct {
	conf   *core.Config
	config middleware.JWTConfig
}

func NewTokens(conf *core.Config) *Tokens {
	return &Tokens{
		conf: conf,
		config: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
	}
}

// Middleware requires a valid bearer token.
func (t *Tokens) Middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(t.config)
}

// Optional reads the bearer token when one is sent; requests without a valid token go through
// unauthenticated.
func (t *Tokens) Optional() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if raw := strings.TrimPrefix(auth, "Bearer "); raw != auth && raw != "" {
				if token, err := t.Parse(raw); err == nil {
					ctx.Set(contextTokenKey, token)
				}
			}
			return next(ctx)
		}
	}
}

// Parse checks a signed token.
func (t *Tokens) Parse(raw string) (*jwt.Token, error) {
	token, err := jwt.ParseWithClaims(raw, new(Claims), func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != t.config.SigningMethod {
			return nil, errors.Errorf("unexpected jwt signing method %v", token.Header["alg"])
		}
		return t.config.SigningKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return token, nil
}

func (t *Tokens) Claims(usr user.User, origIat ...int64) *Claims {
	now := NowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    t.conf.AppName,
			Subject:   strconv.Itoa(usr.ID),
			Audience:  t.conf.Component(),
			ExpiresAt: now.Add(t.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     usr.Username,
		Email:        usr.Email,
		IsAdmin:      usr.IsAdmin(),
		Roles:        usr.Roles,
	}
}

// Generate returns the signed JWT of the claims.
func (t *Tokens) Generate(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(t.config.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(t.config.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// UserToken returns a fresh token of usr.
func (t *Tokens) UserToken(usr user.User) (string, error) {
	return t.Generate(t.Claims(usr))
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc *user.Service) (*user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(*user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil, err
	}
	usr, err := svc.GetByID(ctx.Request().Context(), claims.UserID())
	if err != nil {
		if core.IsNotFound(err) {
			return nil, errUnauthorized
		}
		return nil, errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsValid() {
		return nil, errUnauthorized
	}
	ctx.Set(contextUserKey, &usr)
	return &usr, nil
}

func contextHasAnyRole(ctx echo.Context, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	if claims, err := getContextClaims(ctx); err == nil {
		sort.Strings(claims.Roles)
		for _, role := range roles {
			if i := sort.SearchStrings(claims.Roles, role); i < len(claims.Roles) && claims.Roles[i] == role {
				return true
			}
		}
	}
	return false
}

func (t *Tokens) refresh(ctx echo.Context, svc *user.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}
	usr, err := getContextUser(ctx, svc)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}

	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(t.conf.Server.JWTRefreshExpirationDelta)
	if NowFunc().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := t.Generate(t.Claims(*usr, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}
