// ABOUTME: HS256 access and refresh tokens for the in-memory backend
// ABOUTME: Tokens carry the user id, a token type and a unique jti for revocation

package fakeapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/markalston/placement-cli/internal/model"
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

var errTokenType = errors.New("wrong token type")

type claims struct {
	UserID    int    `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func (s *Server) issue(userID int) (model.Credentials, error) {
	access, err := s.sign(userID, tokenAccess, s.accessTTL)
	if err != nil {
		return model.Credentials{}, err
	}
	refresh, err := s.sign(userID, tokenRefresh, s.refreshTTL)
	if err != nil {
		return model.Credentials{}, err
	}
	return model.Credentials{Access: access, Refresh: refresh}, nil
}

func (s *Server) sign(userID int, kind string, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	c := claims{
		UserID:    userID,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(s.secret)
}

func (s *Server) parse(tokenString, kind string) (*claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if c.TokenType != kind {
		return nil, errTokenType
	}
	return c, nil
}
