package auth

import (
	"crypto/rsa"
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// DefaultAudience is used when no token audience is configured.
var DefaultAudience = []string{"fastapi-users:auth"}

// Claims describes the signed JWT payload.
type Claims struct {
	UserID     string `json:"id"`
	Role       string `json:"role"`
	CustomerID *int64 `json:"customer_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies RS256 tokens. Verification failures of any
// kind (malformed token, bad signature, expiry, audience mismatch) collapse
// to a nil result so callers cannot distinguish why a token was rejected.
type TokenCodec struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	audience   []string
}

// NewTokenCodec parses the PEM key material. The public key may be omitted,
// in which case it is derived from the private key. Key misconfiguration is
// fatal at startup, never surfaced to request handlers.
func NewTokenCodec(privatePEM, publicPEM string, audience []string) (*TokenCodec, error) {
	if privatePEM == "" {
		return nil, errors.New("signing key not configured")
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privatePEM))
	if err != nil {
		return nil, err
	}

	publicKey := &privateKey.PublicKey
	if publicPEM != "" {
		publicKey, err = jwt.ParseRSAPublicKeyFromPEM([]byte(publicPEM))
		if err != nil {
			return nil, err
		}
	}

	if len(audience) == 0 {
		audience = DefaultAudience
	}

	return &TokenCodec{privateKey: privateKey, publicKey: publicKey, audience: audience}, nil
}

// Audience returns the audience embedded in issued tokens.
func (c *TokenCodec) Audience() []string {
	return c.audience
}

// Encode signs the claims with the configured lifetime applied.
func (c *TokenCodec) Encode(claims Claims, lifetime time.Duration) (string, error) {
	now := time.Now()
	claims.Audience = jwt.ClaimStrings(c.audience)
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(lifetime))

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, &claims)
	return token.SignedString(c.privateKey)
}

// Decode verifies the token signature, expiry and audience. It returns nil
// on any failure.
func (c *TokenCodec) Decode(tokenStr string) *Claims {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodRS256 {
			return nil, errors.New("unexpected signing method")
		}
		return c.publicKey, nil
	})
	if err != nil {
		return nil
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil
	}
	if !audienceMatches(claims.Audience, c.audience) {
		return nil
	}
	return claims
}

// audienceMatches reports whether any expected audience is present in the
// token's audience list.
func audienceMatches(got jwt.ClaimStrings, expected []string) bool {
	for _, want := range expected {
		for _, aud := range got {
			if aud == want {
				return true
			}
		}
	}
	return false
}
