package utils

import (
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

type (
	// JWTClaims is the compact on-wire form of the session claims
	JWTClaims struct {
		UserID      int64  `json:"ui"`
		Identifiant string `json:"id"`
		Role        string `json:"ro"`
		jwt.RegisteredClaims
	}

	// JWTMessage is the decoded session identity handed to handlers
	JWTMessage struct {
		UserID      int64  `json:"userID"`
		Identifiant string `json:"identifiant"`
		Role        string `json:"role"`
	}
)

// TokenManager signs and verifies the HS256 session tokens
type TokenManager struct {
	secretKey       string
	accessTokenTTL  int
	refreshTokenTTL int
}

// NewTokenManager creates a TokenManager. TTLs are in hours.
func NewTokenManager(secretKey string, accessTokenTTL, refreshTokenTTL int) *TokenManager {
	return &TokenManager{
		secretKey:       secretKey,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

func (tm *TokenManager) createToken(msg *JWTMessage, ttl int) (string, error) {
	expiresAt := time.Now().Add(time.Hour * time.Duration(ttl))

	claims := &JWTClaims{
		UserID:      msg.UserID,
		Identifiant: msg.Identifiant,
		Role:        msg.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(tm.secretKey))
}

// CreateTokens creates a new access token and a new refresh token
func (tm *TokenManager) CreateTokens(msg *JWTMessage) (accessToken string, refreshToken string, err error) {
	accessToken, err = tm.createToken(msg, tm.accessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = tm.createToken(msg, tm.refreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// CheckToken verifies the signature and expiry and returns the decoded identity
func (tm *TokenManager) CheckToken(requestToken string) (JWTMessage, error) {
	claims := JWTClaims{}
	_, err := jwt.ParseWithClaims(requestToken, &claims, func(_ *jwt.Token) (any, error) {
		return []byte(tm.secretKey), nil
	})
	return JWTMessage{
		UserID:      claims.UserID,
		Identifiant: claims.Identifiant,
		Role:        claims.Role,
	}, err
}
