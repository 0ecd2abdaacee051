// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer. The [Engine] is deliberately business-logic-free: it
// signs and verifies claim maps and knows nothing about principals, tenants,
// or revocation.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taibuivan/tessera/internal/platform/apperr"
)

// VerifyPolicy controls which claim checks [Engine.Decode] performs.
//
// Signature verification is always on; everything else is individually
// togglable so operational tooling can inspect tokens it cannot fully
// validate (e.g. expired-token forensics).
type VerifyPolicy struct {
	VerifyExpiry   bool
	VerifyAudience bool
	VerifyIssuer   bool
	RequireIAT     bool
	RequireNBF     bool
	RequireJTI     bool
	Leeway         time.Duration
}

// DefaultVerifyPolicy enables every check with zero leeway.
func DefaultVerifyPolicy() VerifyPolicy {
	return VerifyPolicy{
		VerifyExpiry:   true,
		VerifyAudience: true,
		VerifyIssuer:   true,
		RequireIAT:     true,
		RequireNBF:     true,
		RequireJTI:     true,
	}
}

// Engine handles encoding and decoding of JWT claim maps.
type Engine struct {
	keys     *KeyManager
	issuer   string
	audience string
	policy   VerifyPolicy
	clock    func() time.Time
}

// EngineOption customizes an [Engine].
type EngineOption func(*Engine)

// WithClock overrides the engine's time source. Tests use this to pin
// iat/nbf and drive expiry deterministically.
func WithClock(clock func() time.Time) EngineOption {
	return func(engine *Engine) { engine.clock = clock }
}

// NewEngine creates a new token engine bound to the given key material,
// issuer/audience identity, and verification policy.
func NewEngine(keys *KeyManager, issuer, audience string, policy VerifyPolicy, options ...EngineOption) *Engine {
	engine := &Engine{
		keys:     keys,
		issuer:   issuer,
		audience: audience,
		policy:   policy,
		clock:    time.Now,
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

// Issuer returns the configured 'iss' claim value.
func (engine *Engine) Issuer() string { return engine.issuer }

// Audience returns the configured 'aud' claim value.
func (engine *Engine) Audience() string { return engine.audience }

// # Encoding

// Encode signs the caller-supplied claims after stamping the standard
// registered set on top: iss, aud, iat, nbf, and a unique jti.
//
// The input map is not mutated. The result is deterministic except for jti
// (random) and iat/nbf (current time).
func (engine *Engine) Encode(payload map[string]any) (string, error) {
	currentTime := engine.clock()

	claims := jwt.MapClaims{}
	for key, value := range payload {
		claims[key] = value
	}

	claims["iss"] = engine.issuer
	claims["aud"] = engine.audience
	claims["iat"] = jwt.NewNumericDate(currentTime)
	claims["nbf"] = jwt.NewNumericDate(currentTime)
	claims["jti"] = uuid.NewString()

	token := jwt.NewWithClaims(engine.keys.Method(), claims)
	signedToken, err := token.SignedString(engine.keys.SigningKey())
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// # Decoding

// Decode verifies the token signature and the claim checks enabled by the
// [VerifyPolicy], then returns the claim map.
//
// Failure taxonomy:
//   - [apperr.TokenExpired] when the expiry claim is in the past.
//   - [apperr.TokenInvalid] for every other verification failure: bad
//     signature, malformed token, wrong issuer/audience, missing required claim.
func (engine *Engine) Decode(tokenString string) (map[string]any, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{engine.keys.Method().Alg()}),
		jwt.WithLeeway(engine.policy.Leeway),
	}
	if engine.policy.VerifyAudience {
		options = append(options, jwt.WithAudience(engine.audience))
	}
	if engine.policy.VerifyIssuer {
		options = append(options, jwt.WithIssuer(engine.issuer))
	}
	if !engine.policy.VerifyExpiry {
		// Signature is still checked; claim validation is redone manually below.
		options = append(options, jwt.WithoutClaimsValidation())
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return engine.keys.VerificationKey(), nil
	}, options...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			expired := apperr.TokenExpired()
			expired.Cause = err
			return nil, expired
		}
		invalid := apperr.TokenInvalid("Token verification failed")
		invalid.Cause = err
		return nil, invalid
	}

	if !token.Valid && engine.policy.VerifyExpiry {
		return nil, apperr.TokenInvalid("Token verification failed")
	}

	// When expiry verification is disabled the parser skipped all claim
	// validation, so issuer/audience are re-checked here if still required.
	if !engine.policy.VerifyExpiry {
		if err := engine.recheckIdentityClaims(claims); err != nil {
			return nil, err
		}
	}

	if err := engine.checkRequiredClaims(claims); err != nil {
		return nil, err
	}

	return claims, nil
}

// recheckIdentityClaims validates iss/aud when the parser ran without claim
// validation.
func (engine *Engine) recheckIdentityClaims(claims jwt.MapClaims) error {
	if engine.policy.VerifyIssuer {
		issuer, err := claims.GetIssuer()
		if err != nil || issuer != engine.issuer {
			return apperr.TokenInvalid("Token has an unexpected issuer")
		}
	}
	if engine.policy.VerifyAudience {
		audience, err := claims.GetAudience()
		if err != nil || !containsAudience(audience, engine.audience) {
			return apperr.TokenInvalid("Token has an unexpected audience")
		}
	}
	return nil
}

// checkRequiredClaims enforces the presence toggles for iat/nbf/jti.
func (engine *Engine) checkRequiredClaims(claims jwt.MapClaims) error {
	if engine.policy.RequireIAT {
		if _, ok := claims["iat"]; !ok {
			return apperr.TokenInvalid("Token is missing the iat claim")
		}
	}
	if engine.policy.RequireNBF {
		if _, ok := claims["nbf"]; !ok {
			return apperr.TokenInvalid("Token is missing the nbf claim")
		}
	}
	if engine.policy.RequireJTI {
		if jti, ok := claims["jti"].(string); !ok || jti == "" {
			return apperr.TokenInvalid("Token is missing the jti claim")
		}
	}
	return nil
}

func containsAudience(audience jwt.ClaimStrings, expected string) bool {
	for _, value := range audience {
		if value == expected {
			return true
		}
	}
	return false
}

// # Unverified Inspection

// DecodeUnverified extracts claims WITHOUT verifying the signature.
// Only for non-security-critical introspection (logging, forensics).
// Never use the result for an authorization decision.
func (engine *Engine) DecodeUnverified(tokenString string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		invalid := apperr.TokenInvalid("Token is malformed")
		invalid.Cause = err
		return nil, invalid
	}
	return claims, nil
}

// IsExpired reports whether the token's own expiry claim has passed,
// without verifying the signature. Malformed tokens count as expired.
func (engine *Engine) IsExpired(tokenString string) bool {
	claims, err := engine.DecodeUnverified(tokenString)
	if err != nil {
		return true
	}
	expiry, err := jwt.MapClaims(claims).GetExpirationTime()
	if err != nil || expiry == nil {
		return true
	}
	return engine.clock().After(expiry.Time)
}

// # Expiry Helpers

// ExpiryIn computes an absolute expiry instant from a relative lifetime,
// using the engine's clock so tests stay deterministic.
func (engine *Engine) ExpiryIn(lifetime time.Duration) time.Time {
	return engine.clock().Add(lifetime)
}

// Now exposes the engine's clock for callers that stamp issuance metadata.
func (engine *Engine) Now() time.Time {
	return engine.clock()
}
