// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/tessera/internal/platform/apperr"
	"github.com/taibuivan/tessera/internal/platform/sec"
)

func newTestEngine(t *testing.T, policy sec.VerifyPolicy, options ...sec.EngineOption) *sec.Engine {
	t.Helper()

	keys, err := sec.NewKeyManager(sec.KeyConfig{
		Algorithm: "HS256",
		Secret:    "unit-test-secret-key",
	})
	require.NoError(t, err)

	return sec.NewEngine(keys, "tessera.app", "tessera.app", policy, options...)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	engine := newTestEngine(t, sec.DefaultVerifyPolicy())

	signed, err := engine.Encode(map[string]any{
		"sub":        "7f9c24e5-0001-7000-8000-000000000001",
		"email":      "alice@acme.test",
		"token_type": "access",
		"exp":        time.Now().Add(30 * time.Minute).Unix(),
	})
	require.NoError(t, err)

	claims, err := engine.Decode(signed)
	require.NoError(t, err)

	// Caller-supplied claims survive the round trip.
	assert.Equal(t, "7f9c24e5-0001-7000-8000-000000000001", claims["sub"])
	assert.Equal(t, "alice@acme.test", claims["email"])
	assert.Equal(t, "access", claims["token_type"])

	// Registered claims were injected.
	assert.Equal(t, "tessera.app", claims["iss"])
	assert.Equal(t, "tessera.app", claims["aud"])
	assert.NotEmpty(t, claims["jti"])
	assert.NotNil(t, claims["iat"])
	assert.NotNil(t, claims["nbf"])
}

func TestEncodeGeneratesUniqueTokenIDs(t *testing.T) {
	engine := newTestEngine(t, sec.DefaultVerifyPolicy())
	payload := map[string]any{
		"sub": "same-subject",
		"exp": time.Now().Add(time.Hour).Unix(),
	}

	first, err := engine.Encode(payload)
	require.NoError(t, err)
	second, err := engine.Encode(payload)
	require.NoError(t, err)

	firstClaims, err := engine.Decode(first)
	require.NoError(t, err)
	secondClaims, err := engine.Decode(second)
	require.NoError(t, err)

	assert.NotEqual(t, firstClaims["jti"], secondClaims["jti"])
}

func TestDecodeExpiredToken(t *testing.T) {
	// Freeze issuance one hour in the past so the token is already expired.
	past := time.Now().Add(-1 * time.Hour)
	issuingEngine := newTestEngine(t, sec.DefaultVerifyPolicy(), sec.WithClock(func() time.Time { return past }))

	signed, err := issuingEngine.Encode(map[string]any{
		"sub": "expired-subject",
		"exp": past.Add(5 * time.Minute).Unix(),
	})
	require.NoError(t, err)

	verifyingEngine := newTestEngine(t, sec.DefaultVerifyPolicy())
	_, err = verifyingEngine.Decode(signed)
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "TOKEN_EXPIRED", appError.Code)

	// The unverified quick check agrees.
	assert.True(t, verifyingEngine.IsExpired(signed))
}

func TestDecodeExpiredTokenWithExpiryCheckDisabled(t *testing.T) {
	past := time.Now().Add(-1 * time.Hour)
	issuingEngine := newTestEngine(t, sec.DefaultVerifyPolicy(), sec.WithClock(func() time.Time { return past }))

	signed, err := issuingEngine.Encode(map[string]any{
		"sub": "expired-subject",
		"exp": past.Add(5 * time.Minute).Unix(),
	})
	require.NoError(t, err)

	relaxed := sec.DefaultVerifyPolicy()
	relaxed.VerifyExpiry = false

	verifyingEngine := newTestEngine(t, relaxed)
	claims, err := verifyingEngine.Decode(signed)
	require.NoError(t, err)
	assert.Equal(t, "expired-subject", claims["sub"])
}

func TestDecodeTamperedToken(t *testing.T) {
	engine := newTestEngine(t, sec.DefaultVerifyPolicy())

	signed, err := engine.Encode(map[string]any{
		"sub": "victim",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	tampered := signed[:len(signed)-4] + "AAAA"
	_, err = engine.Decode(tampered)
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "TOKEN_INVALID", appError.Code)
}

func TestDecodeRejectsForeignIssuer(t *testing.T) {
	keys, err := sec.NewKeyManager(sec.KeyConfig{Algorithm: "HS256", Secret: "unit-test-secret-key"})
	require.NoError(t, err)

	foreign := sec.NewEngine(keys, "intruder.example", "tessera.app", sec.DefaultVerifyPolicy())
	signed, err := foreign.Encode(map[string]any{
		"sub": "spoofed",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	engine := newTestEngine(t, sec.DefaultVerifyPolicy())
	_, err = engine.Decode(signed)
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "TOKEN_INVALID", appError.Code)
}

func TestKeyManagerRejectsUnknownAlgorithm(t *testing.T) {
	_, err := sec.NewKeyManager(sec.KeyConfig{Algorithm: "XX512", Secret: "whatever"})
	require.Error(t, err)
}

func TestExpiryIn(t *testing.T) {
	frozen := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	engine := newTestEngine(t, sec.DefaultVerifyPolicy(), sec.WithClock(func() time.Time { return frozen }))

	assert.Equal(t, frozen.Add(30*time.Minute), engine.ExpiryIn(30*time.Minute))
	assert.Equal(t, frozen.Add(7*24*time.Hour), engine.ExpiryIn(7*24*time.Hour))
}
