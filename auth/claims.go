package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"photostore/apierr"
	"photostore/models"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const jwksRefreshInterval = time.Hour

// Authenticator turns identity-provider claims into a models.User.
// Without a keyfunc the token is assumed to be verified upstream (API gateway)
// and is only decoded; with one the signature is checked as well.
type Authenticator struct {
	keyfunc     func(ctx context.Context) jwt.Keyfunc
	methods     []string
	issuer      string
	groupsClaim string
}

func NewAuthenticator(groupsClaim string) *Authenticator {
	return &Authenticator{groupsClaim: groupsClaim}
}

// NewJWKSAuthenticator verifies RS256/ES256 signatures against a remote JWKS, refreshed in the background
func NewJWKSAuthenticator(jwksURL, issuer, groupsClaim string) (*Authenticator, error) {
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           jwksRefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			log.WithError(err).WithField("url", jwksURL).Error("JWKS refresh failed")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("jwks storage: %w", err)
	}
	k, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("jwks keyfunc: %w", err)
	}
	return &Authenticator{
		keyfunc:     k.KeyfuncCtx,
		methods:     []string{"RS256", "ES256"},
		issuer:      issuer,
		groupsClaim: groupsClaim,
	}, nil
}

// NewAuthenticatorWithKeyfunc verifies tokens with the given key function
func NewAuthenticatorWithKeyfunc(kf jwt.Keyfunc, issuer, groupsClaim string, methods ...string) *Authenticator {
	return &Authenticator{
		keyfunc:     func(context.Context) jwt.Keyfunc { return kf },
		methods:     methods,
		issuer:      issuer,
		groupsClaim: groupsClaim,
	}
}

// Authenticate extracts the caller from the Authorization header and attaches it to the request
func (a *Authenticator) Authenticate(c *gin.Context) (*models.User, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, apierr.Unauthorized("No auth token provided")
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, apierr.Unauthorized("Invalid token")
	}
	user, err := a.ParseToken(c.Request.Context(), strings.TrimSpace(token))
	if err != nil {
		log.WithError(err).WithField("client_ip", c.ClientIP()).Debug("Token rejected")
		return nil, apierr.Unauthorized("Invalid token")
	}
	SetUser(c, user)
	return user, nil
}

func (a *Authenticator) ParseToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims := jwt.MapClaims{}
	if a.keyfunc == nil {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
			return nil, err
		}
	} else {
		opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
		if len(a.methods) > 0 {
			opts = append(opts, jwt.WithValidMethods(a.methods))
		}
		if a.issuer != "" {
			opts = append(opts, jwt.WithIssuer(a.issuer))
		}
		if _, err := jwt.ParseWithClaims(tokenString, claims, a.keyfunc(ctx), opts...); err != nil {
			return nil, err
		}
	}
	return a.userFromClaims(claims)
}

func (a *Authenticator) userFromClaims(claims jwt.MapClaims) (*models.User, error) {
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, err
	}
	if sub == "" {
		return nil, errors.New("missing sub claim")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("sub is not a UUID: %w", err)
	}
	email, _ := claims["email"].(string)
	return &models.User{
		ID:     id,
		Email:  email,
		Groups: groupsFromClaim(claims[a.groupsClaim]),
	}, nil
}

// groupsFromClaim accepts a JSON array or a single string ("admin,basic", "[admin basic]"),
// the latter being how API Gateway forwards Cognito groups
func groupsFromClaim(raw any) []models.Group {
	groups := []models.Group{}
	switch v := raw.(type) {
	case []any:
		for _, g := range v {
			if s, ok := g.(string); ok && s != "" {
				groups = append(groups, models.Group(s))
			}
		}
	case []string:
		for _, s := range v {
			if s != "" {
				groups = append(groups, models.Group(s))
			}
		}
	case string:
		fields := strings.FieldsFunc(strings.Trim(v, "[]"), func(r rune) bool {
			return r == ',' || r == ' '
		})
		for _, s := range fields {
			groups = append(groups, models.Group(s))
		}
	}
	return groups
}
