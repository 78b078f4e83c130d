package auth

import (
	"errors"
	"fmt"
	"time"

	"seribro_backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims - стандартные claims плюс пользователь и роль.
// ID (jti) нужен для отзыва токена при logout.
type Claims struct {
	jwt.RegisteredClaims
	UserID string          `json:"userId"`
	Role   models.UserRole `json:"role"`
}

// IssuedToken - подписанный токен и его метаданные
type IssuedToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

func GenerateToken(userID string, role models.UserRole, secretKey []byte, validityDuration time.Duration) (*IssuedToken, error) {
	now := time.Now()
	expiresAt := now.Add(validityDuration)
	jti := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
		Role:   role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &IssuedToken{Token: tokenString, JTI: jti, ExpiresAt: expiresAt}, nil
}

// ParseToken проверяет подпись и срок жизни токена
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
