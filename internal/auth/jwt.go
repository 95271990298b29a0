package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"estatehub/marketplace/internal/utils"
)

// Role values carried in the token. Agents manage properties, users express interest.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// Claims defines the structure of the JWT claims.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// CallerID parses the user id carried in the claims.
func (c *Claims) CallerID() (utils.SixID, error) {
	id, err := utils.ParseSixID(c.UserID)
	if err != nil {
		return utils.SixID{}, fmt.Errorf("invalid user id in token: %w", err)
	}
	if id.IsZero() {
		return utils.SixID{}, fmt.Errorf("token carries no user id")
	}
	return id, nil
}

// GenerateJWT creates a new JWT for a given user.
func GenerateJWT(userID utils.SixID, role string, secretKey string, ttl time.Duration) (string, error) {
	expirationTime := time.Now().Add(ttl)
	claims := &Claims{
		UserID: userID.String(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT verifies a JWT string and returns the claims if valid.
func ValidateJWT(tokenString string, secretKey string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid JWT")
	}

	return claims, nil
}
