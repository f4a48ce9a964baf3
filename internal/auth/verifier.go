package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/laneboard/laneboard/internal/apperr"
	"github.com/laneboard/laneboard/internal/config"
)

// TokenVerifier verifies a bearer token and returns the external
// identity (subject claim) it carries.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Verifier checks RS256 tokens against the identity provider's JWKS
// document, falling back to HS256 with a shared secret. Expiry and
// issued-at are validated; the audience check is deliberately disabled.
type Verifier struct {
	jwks           *JWKSClient
	jwksURL        string
	issuerInstance string
	hsSecret       []byte
}

func NewVerifier(cfg config.Config) *Verifier {
	return &Verifier{
		jwks:           NewJWKSClient(),
		jwksURL:        cfg.JWKSURL,
		issuerInstance: cfg.IssuerInstance,
		hsSecret:       []byte(cfg.HSSecret),
	}
}

func (v *Verifier) Verify(ctx context.Context, tokenString string) (string, error) {
	// Peek at header/claims without verifying to pick the key source.
	unverified, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return "", apperr.Unauthorized(fmt.Sprintf("invalid token: %v", err))
	}
	alg, _ := unverified.Header["alg"].(string)

	var token *jwt.Token
	switch {
	case alg == "RS256":
		jwksURL := v.resolveJWKSURL(unverified)
		if jwksURL == "" {
			return "", apperr.Unauthorized("token verification failed: no JWKS source configured")
		}
		token, err = jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
			kid, _ := t.Header["kid"].(string)
			return v.jwks.SigningKey(ctx, jwksURL, kid)
		}, jwt.WithValidMethods([]string{"RS256"}), jwt.WithIssuedAt())
	case len(v.hsSecret) > 0:
		token, err = jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
			return v.hsSecret, nil
		}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuedAt())
	default:
		return "", apperr.Unauthorized(fmt.Sprintf("unable to verify token signature, algorithm: %s", alg))
	}
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperr.Unauthorized("token has expired")
		}
		return "", apperr.Unauthorized(fmt.Sprintf("token verification failed: %v", err))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", apperr.Unauthorized("invalid token")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		if uid, ok := claims["user_id"].(string); ok {
			sub = uid
		}
	}
	if sub == "" {
		return "", apperr.Unauthorized("unable to extract user ID from token")
	}
	return sub, nil
}

// resolveJWKSURL prefers the configured URL, then the token's issuer
// (https://<instance>.clerk.accounts.dev), then the configured instance.
func (v *Verifier) resolveJWKSURL(unverified *jwt.Token) string {
	if v.jwksURL != "" {
		return v.jwksURL
	}
	if claims, ok := unverified.Claims.(jwt.MapClaims); ok {
		if iss, _ := claims["iss"].(string); iss != "" {
			if instance := instanceFromIssuer(iss); instance != "" {
				return jwksURLForInstance(instance)
			}
		}
	}
	if v.issuerInstance != "" {
		return jwksURLForInstance(v.issuerInstance)
	}
	return ""
}

func jwksURLForInstance(instance string) string {
	return fmt.Sprintf("https://%s.clerk.accounts.dev/.well-known/jwks.json", instance)
}

func instanceFromIssuer(iss string) string {
	switch {
	case strings.Contains(iss, ".clerk.accounts.dev"):
		rest := strings.TrimPrefix(strings.TrimPrefix(iss, "https://"), "http://")
		if i := strings.Index(rest, "."); i > 0 {
			return rest[:i]
		}
	case strings.Contains(iss, ".lcl.dev") && strings.Contains(iss, "clerk."):
		rest := iss[strings.Index(iss, "clerk.")+len("clerk."):]
		if i := strings.Index(rest, "."); i > 0 {
			return rest[:i]
		}
	}
	return ""
}
