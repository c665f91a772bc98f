package identity

import (
	"github.com/golang-jwt/jwt/v5"
)

// ExpiryFromToken reads the exp claim of an access token without verifying it.
// The identity service verifies the token, this only decides when to refresh.
func ExpiryFromToken(accessToken string) int64 {
	if accessToken == "" {
		return 0
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return 0
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}

	return exp.Unix()
}
