// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, code generation,
// JWT signing) from the domain logic. Domain packages consume it through
// small interfaces so tests can substitute fakes.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dripside-in/dripside-backend/pkg/uuid"
)

// # Token Kinds

// TokenKind names one of the independently keyed token families.
type TokenKind string

const (
	AccessToken     TokenKind = "access"
	RefreshToken    TokenKind = "refresh"
	ActivationToken TokenKind = "activation"
	ResetToken      TokenKind = "reset"
)

var allKinds = []TokenKind{AccessToken, RefreshToken, ActivationToken, ResetToken}

var (
	// ErrTokenExpired is returned when a token's exp claim is in the past.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrTokenInvalid covers malformed tokens, bad signatures, foreign kinds
	// and issuer mismatches.
	ErrTokenInvalid = errors.New("sec: invalid token")
)

// # Claims

// Claims is the payload embedded inside every token kind.
type Claims struct {
	jwt.RegisteredClaims

	PrincipalID string    `json:"id"`
	Role        Role      `json:"role"`
	Kind        TokenKind `json:"kind"`
}

// IssuedToken is a signed token plus the metadata callers persist or deliver.
type IssuedToken struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// KeyConfig is the secret and lifetime of one token kind.
type KeyConfig struct {
	Secret []byte
	TTL    time.Duration
}

// # Service

// TokenService issues and verifies HS256 tokens, one secret per [TokenKind].
type TokenService struct {
	issuer string
	keys   map[TokenKind]KeyConfig
	now    func() time.Time
}

// NewTokenService creates a new TokenService. Every kind must have a
// non-empty secret and a positive TTL.
func NewTokenService(issuer string, keys map[TokenKind]KeyConfig) (*TokenService, error) {
	for _, kind := range allKinds {
		key, ok := keys[kind]
		if !ok || len(key.Secret) == 0 {
			return nil, fmt.Errorf("sec: missing secret for %s tokens", kind)
		}
		if key.TTL <= 0 {
			return nil, fmt.Errorf("sec: non-positive ttl for %s tokens", kind)
		}
	}

	return &TokenService{
		issuer: issuer,
		keys:   keys,
		now:    time.Now,
	}, nil
}

// WithClock returns a copy of the service that reads time from now.
func (service *TokenService) WithClock(now func() time.Time) *TokenService {
	clone := *service
	clone.now = now
	return &clone
}

// TTL returns the configured lifetime of kind.
func (service *TokenService) TTL(kind TokenKind) time.Duration {
	return service.keys[kind].TTL
}

/*
Issue signs a token of the given kind for a principal.

The audience carries the principal's display name and the issuer is the
configured service issuer. Each token gets a UUIDv7 jti so refresh tokens
can be tracked server-side.
*/
func (service *TokenService) Issue(principalID, displayName string, role Role, kind TokenKind) (*IssuedToken, error) {
	key, ok := service.keys[kind]
	if !ok {
		return nil, fmt.Errorf("sec: unknown token kind %q", kind)
	}

	currentTime := service.now()
	expiresAt := currentTime.Add(key.TTL)
	tokenID := uuid.New()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   principalID,
			Issuer:    service.issuer,
			Audience:  jwt.ClaimStrings{displayName},
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		PrincipalID: principalID,
		Role:        role,
		Kind:        kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(key.Secret)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to sign %s token: %w", kind, err)
	}

	return &IssuedToken{Value: signedToken, ID: tokenID, ExpiresAt: expiresAt}, nil
}

// Verify checks the signature against the kind's secret and validates the
// standard claims. Failures are reported as [ErrTokenExpired] or [ErrTokenInvalid].
func (service *TokenService) Verify(tokenString string, kind TokenKind) (*Claims, error) {
	key, ok := service.keys[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrTokenInvalid, kind)
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(service.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return key.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.Kind != kind || claims.PrincipalID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
