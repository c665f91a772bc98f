package local

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/traveloop/traveloop/internal/db/models"
)

const (
	issuer   = "traveloop-local"
	audience = "authenticated"
)

// Claims of an access token.
type Claims struct {
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

func (b *Backend) sign(account *models.Account, sessionID string, now, expires time.Time) (string, error) {
	claims := Claims{
		Email:     account.Email,
		SessionID: sessionID,
		Role:      audience,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   account.ID,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.cfg.JWTSecret) //nolint:wrapcheck
}

// parse verifies signature, issuer, audience and expiry of an access token.
func (b *Backend) parse(accessToken string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(t *jwt.Token) (any, error) {
		return b.cfg.JWTSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(b.now),
	)
	if err != nil {
		return nil, invalidToken("invalid JWT: " + err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" || claims.SessionID == "" {
		return nil, invalidToken("invalid JWT: missing claims")
	}

	return claims, nil
}
