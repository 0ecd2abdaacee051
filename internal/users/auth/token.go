// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"time"

	"github.com/taibuivan/tessera/internal/platform/constants"
)

// # Token Pair

// TokenPair is an access/refresh token couple minted in one issuance.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	issuedAt         time.Time
}

// TokenPairResponse is the wire shape of a freshly minted token pair.
type TokenPairResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
}

// Response converts the pair to its external representation. Lifetimes are
// reported in whole seconds relative to issuance.
func (pair TokenPair) Response() TokenPairResponse {
	return TokenPairResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		TokenType:        constants.TokenTypeBearer,
		ExpiresIn:        int64(pair.AccessExpiresAt.Sub(pair.issuedAt).Seconds()),
		RefreshExpiresIn: int64(pair.RefreshExpiresAt.Sub(pair.issuedAt).Seconds()),
	}
}

// # Claim Construction

// accessClaims builds the full claim set embedded in access tokens.
// The user_version claim snapshots the principal's revocation watermark at
// issuance time; validation compares it against the live watermark.
func accessClaims(principal Principal, roles, permissions, scope []string, expiresAt time.Time) map[string]any {
	claims := map[string]any{
		constants.ClaimSubject:     principal.ID(),
		constants.ClaimEmail:       principal.Email(),
		constants.ClaimUserType:    principal.Kind(),
		constants.ClaimRoles:       roles,
		constants.ClaimPermissions: permissions,
		constants.ClaimScope:       scope,
		constants.ClaimTokenType:   constants.TokenTypeAccess,
		constants.ClaimUserVersion: principal.Watermark(),
		constants.ClaimExpiry:      expiresAt.Unix(),
	}
	if tenantID := principal.TenantID(); tenantID != "" {
		claims[constants.ClaimTenantID] = tenantID
	}
	return claims
}

// refreshClaims builds the deliberately minimal refresh claim set. Refresh
// tokens carry no authorization payload and no watermark snapshot; the
// principal is re-resolved on every rotation.
func refreshClaims(principal Principal, expiresAt time.Time) map[string]any {
	claims := map[string]any{
		constants.ClaimSubject:   principal.ID(),
		constants.ClaimUserType:  principal.Kind(),
		constants.ClaimTokenType: constants.TokenTypeRefresh,
		constants.ClaimExpiry:    expiresAt.Unix(),
	}
	if tenantID := principal.TenantID(); tenantID != "" {
		claims[constants.ClaimTenantID] = tenantID
	}
	return claims
}

// # Claim Extraction

// claimString reads a string claim, returning "" when absent or mistyped.
func claimString(claims map[string]any, name string) string {
	if value, ok := claims[name].(string); ok {
		return value
	}
	return ""
}

// claimFloat reads a numeric claim. JSON round-trips put every number back
// as float64, which is exactly the watermark representation.
func claimFloat(claims map[string]any, name string) (float64, bool) {
	value, ok := claims[name].(float64)
	return value, ok
}

// claimStrings reads a string-array claim, tolerating the []any shape that
// JSON decoding produces.
func claimStrings(claims map[string]any, name string) []string {
	switch typed := claims[name].(type) {
	case []string:
		return typed
	case []any:
		values := make([]string, 0, len(typed))
		for _, entry := range typed {
			if text, ok := entry.(string); ok {
				values = append(values, text)
			}
		}
		return values
	default:
		return nil
	}
}
