// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// KeyManager centralizes signing-key material and algorithm selection so that
// RS256 vs HS256 is a pure configuration switch. Call sites never branch on
// the algorithm family; they ask for the signing or verification key and the
// manager returns whichever the configured method needs.
type KeyManager struct {
	method     jwt.SigningMethod
	signingKey any
	verifyKey  any
}

// KeyConfig describes where key material comes from.
type KeyConfig struct {
	// Algorithm is the JOSE algorithm name, e.g. "RS256" or "HS256".
	Algorithm string

	// Secret is the shared HMAC secret (HS* family only).
	Secret string

	// PrivateKeyPath / PublicKeyPath locate the RSA PEM pair (RS* family only).
	PrivateKeyPath string
	PublicKeyPath  string
}

// NewKeyManager loads key material for the configured algorithm.
func NewKeyManager(cfg KeyConfig) (*KeyManager, error) {
	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		return nil, fmt.Errorf("sec: unknown signing algorithm %q", cfg.Algorithm)
	}

	switch {
	case strings.HasPrefix(cfg.Algorithm, "HS"):
		if cfg.Secret == "" {
			return nil, fmt.Errorf("sec: empty HMAC secret for %s", cfg.Algorithm)
		}
		secret := []byte(cfg.Secret)
		return &KeyManager{method: method, signingKey: secret, verifyKey: secret}, nil

	case strings.HasPrefix(cfg.Algorithm, "RS"):
		privateKeyData, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("sec: failed to read private key from %s: %w", cfg.PrivateKeyPath, err)
		}
		privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyData)
		if err != nil {
			return nil, fmt.Errorf("sec: failed to parse private key: %w", err)
		}

		publicKeyData, err := os.ReadFile(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("sec: failed to read public key from %s: %w", cfg.PublicKeyPath, err)
		}
		publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
		if err != nil {
			return nil, fmt.Errorf("sec: failed to parse public key: %w", err)
		}

		return &KeyManager{method: method, signingKey: privateKey, verifyKey: publicKey}, nil

	default:
		return nil, fmt.Errorf("sec: unsupported algorithm family %q", cfg.Algorithm)
	}
}

// Method returns the configured [jwt.SigningMethod].
func (m *KeyManager) Method() jwt.SigningMethod { return m.method }

// SigningKey returns the key used to sign tokens.
func (m *KeyManager) SigningKey() any { return m.signingKey }

// VerificationKey returns the key used to verify token signatures.
func (m *KeyManager) VerificationKey() any { return m.verifyKey }
