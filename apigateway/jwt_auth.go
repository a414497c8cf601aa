package gateway

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// JWTAuth provides an encapsulation for jwt auth
type JWTAuth struct {
	Key []byte
}

// Init initializes jwt auth with a random key unless one was injected from
// configuration.
func (j *JWTAuth) Init() {
	if len(j.Key) != 0 {
		return
	}
	key, _ := GenerateSecretKey(50)
	j.Key = key
}

// GenerateJWT generates a signed token for the given user.
func (j *JWTAuth) GenerateJWT(userID uint, username string) (string, error) {
	if len(j.Key) == 0 {
		return "", errors.New("empty jwt key")
	}

	claims := TokenClaims{}.Default(userID, username)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Key)
}

// VerifyJWT validates tokenString against our key and claims shape.
func (j *JWTAuth) VerifyJWT(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Don't forget to validate the alg is what you expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Key, nil
	})
	if err != nil {
		// a nil token means the string never parsed in the first place
		return nil, err
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// TokenClaims timerd standard claim
type TokenClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.StandardClaims
}

// Default populate token claims with default values
func (t TokenClaims) Default(userID uint, username string) jwt.Claims {
	n := time.Now().Unix()
	n3h := time.Now().Add(3 * time.Hour).Unix()
	t.StandardClaims = jwt.StandardClaims{
		IssuedAt:  n,
		ExpiresAt: n3h,
		Issuer:    "timerd",
	}
	t.UserID = userID
	t.Username = username
	return t
}
