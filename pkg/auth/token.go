package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gocart/storefront/pkg/config"
)

// Clock skew tolerated between the identity provider and this service.
const clockLeeway = 30 * time.Second

var signingMethod = jwt.SigningMethodHS256

var (
	ErrTokenExpired = errors.New("access token expired")
	ErrTokenInvalid = errors.New("access token invalid")
)

func signingKey(cfg config.JWTConfig) ([]byte, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return []byte(cfg.Secret), nil
}

// MintAccessToken signs a consumer or vendor token valid for
// cfg.ExpirationMinutes from now. Used by tests and local tooling; production
// tokens come from the identity provider sharing the same secret.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	key, err := signingKey(cfg)
	if err != nil {
		return "", err
	}
	switch {
	case cfg.Issuer == "":
		return "", fmt.Errorf("jwt issuer is required")
	case cfg.ExpirationMinutes <= 0:
		return "", fmt.Errorf("jwt expiration minutes must be positive")
	}

	accountID := strings.TrimSpace(payload.AccountID)
	if accountID == "" {
		return "", fmt.Errorf("account id is required")
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("invalid role %q", payload.Role)
	}
	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := AccessTokenClaims{
		AccountID: accountID,
		Role:      payload.Role,
		Name:      strings.TrimSpace(payload.Name),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature, issuer and expiry and returns the
// claims. Failures wrap ErrTokenExpired or ErrTokenInvalid.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	key, err := signingKey(cfg)
	if err != nil {
		return nil, err
	}

	claims := &AccessTokenClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockLeeway),
	)
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return key, nil }); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims.AccountID = strings.TrimSpace(claims.AccountID)
	switch {
	case !claims.Role.IsValid():
		return nil, fmt.Errorf("%w: role %q", ErrTokenInvalid, claims.Role)
	case claims.AccountID == "":
		return nil, fmt.Errorf("%w: account id missing", ErrTokenInvalid)
	case claims.Subject != "" && claims.Subject != claims.AccountID:
		return nil, fmt.Errorf("%w: subject does not match account", ErrTokenInvalid)
	}
	return claims, nil
}
