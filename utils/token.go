package utils

import (
	"errors"
	"fmt"
	"time"

	config "github.com/anjiri1684/studyhub/configs"
	"github.com/anjiri1684/studyhub/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const PurposePasswordReset = "password_reset"

var ErrInvalidClaims = errors.New("invalid token claims")

func signingKey() []byte {
	return []byte(config.Config("JWT_SECRET"))
}

func userClaims(user *models.User, ttl time.Duration) jwt.MapClaims {
	return jwt.MapClaims{
		"userId":   user.ID.String(),
		"email":    user.Email,
		"fullName": user.FullName,
		"role":     user.Role,
		"jti":      uuid.NewString(),
		"exp":      time.Now().Add(ttl).Unix(),
	}
}

func sign(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey())
}

// GenerateToken signs an HS256 session token for the user.
func GenerateToken(user *models.User, ttl time.Duration) (string, error) {
	return sign(userClaims(user, ttl))
}

// GenerateResetToken signs a token that is only accepted by the password reset flow.
func GenerateResetToken(user *models.User, ttl time.Duration) (string, error) {
	claims := userClaims(user, ttl)
	claims["purpose"] = PurposePasswordReset
	return sign(claims)
}

func ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return signingKey(), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func UserIDFromClaims(claims jwt.MapClaims) (uuid.UUID, error) {
	raw, _ := claims["userId"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrInvalidClaims
	}
	return id, nil
}

func Purpose(claims jwt.MapClaims) string {
	p, _ := claims["purpose"].(string)
	return p
}
