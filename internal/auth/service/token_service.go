// Package service verifies the bearer tokens presented to the card API.
// Tokens are issued elsewhere; this service only checks them.
package service

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	authDomain "github.com/allisson/cardledger/internal/auth/domain"
	apperrors "github.com/allisson/cardledger/internal/errors"
)

// TokenService turns a bearer token into the caller's principal.
type TokenService interface {
	ParseToken(token string) (*authDomain.Principal, error)
}

// Claims are the JWT claims understood by the API. The subject holds the user ID.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// jwtTokenService verifies HS256 tokens signed with a shared secret.
type jwtTokenService struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenService creates a TokenService for HS256 tokens. An empty issuer disables
// the issuer check.
func NewTokenService(secret []byte, issuer string) TokenService {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	return &jwtTokenService{
		secret: secret,
		parser: jwt.NewParser(opts...),
	}
}

// ParseToken validates the signature, expiry and issuer and returns the principal.
func (s *jwtTokenService) ParseToken(token string) (*authDomain.Principal, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, apperrors.Wrap(authDomain.ErrInvalidToken, err.Error())
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, apperrors.Wrap(authDomain.ErrInvalidToken, "subject is not a user id")
	}

	role := authDomain.Role(claims.Role)
	if !role.IsValid() {
		return nil, apperrors.Wrap(authDomain.ErrInvalidToken, "unknown role")
	}

	return &authDomain.Principal{UserID: userID, Role: role}, nil
}
