package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer mints and verifies the stateless session credential: an HS256
// JWT whose payload is exactly {"id": userID}. Tokens carry no expiry and
// stay valid until the signing secret rotates or the client discards them.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret []byte) *TokenIssuer {
	return &TokenIssuer{secret: secret}
}

func (t *TokenIssuer) Issue(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": userID})
	return token.SignedString(t.secret)
}

// Verify returns the embedded user id, or ErrMalformedToken when the
// signature does not validate or the payload lacks a string "id" claim.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrMalformedToken
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrMalformedToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrMalformedToken
	}
	id, ok := claims["id"].(string)
	if !ok || id == "" {
		return "", ErrMalformedToken
	}
	return id, nil
}
