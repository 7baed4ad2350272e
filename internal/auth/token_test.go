package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
	"time"
)

func testKeyPair(t *testing.T) (string, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	return string(privPEM), string(pubPEM)
}

func newTestCodec(t *testing.T, audience []string) *TokenCodec {
	t.Helper()
	privPEM, pubPEM := testKeyPair(t)
	codec, err := NewTokenCodec(privPEM, pubPEM, audience)
	if err != nil {
		t.Fatalf("NewTokenCodec returned error: %v", err)
	}
	return codec
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t, nil)

	customerID := int64(42)
	token, err := codec.Encode(Claims{
		UserID:     "7b7e3f0e-9a1e-4a93-a3b8-6a3de9e9a111",
		Role:       "customer",
		CustomerID: &customerID,
	}, time.Hour)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	claims := codec.Decode(token)
	if claims == nil {
		t.Fatalf("Decode returned nil for a valid token")
	}
	if claims.UserID != "7b7e3f0e-9a1e-4a93-a3b8-6a3de9e9a111" {
		t.Errorf("unexpected user id: %s", claims.UserID)
	}
	if claims.Role != "customer" {
		t.Errorf("unexpected role: %s", claims.Role)
	}
	if claims.CustomerID == nil || *claims.CustomerID != 42 {
		t.Errorf("unexpected customer id: %v", claims.CustomerID)
	}
}

func TestTokenCodec_RoundTripWithoutCustomerID(t *testing.T) {
	codec := newTestCodec(t, nil)

	token, err := codec.Encode(Claims{UserID: "user-1", Role: "admin"}, time.Hour)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	claims := codec.Decode(token)
	if claims == nil {
		t.Fatalf("Decode returned nil for a valid token")
	}
	if claims.CustomerID != nil {
		t.Errorf("expected no customer id, got %d", *claims.CustomerID)
	}
}

func TestTokenCodec_DecodeRejections(t *testing.T) {
	codec := newTestCodec(t, nil)

	valid, err := codec.Encode(Claims{UserID: "user-1", Role: "customer"}, time.Hour)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	tampered := tamperSignature(t, valid)

	expired, err := codec.Encode(Claims{UserID: "user-1", Role: "customer"}, -time.Minute)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	// Signed with the same key so only the audience differs.
	sameKeyWrongAud := newCodecSameKeyDifferentAudience(t, codec)
	wrongAudienceToken, err := sameKeyWrongAud.Encode(Claims{UserID: "user-1", Role: "customer"}, time.Hour)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	otherKey := newTestCodec(t, nil)
	foreignToken, err := otherKey.Encode(Claims{UserID: "user-1", Role: "customer"}, time.Hour)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	cases := map[string]string{
		"tampered signature": tampered,
		"expired":            expired,
		"wrong audience":     wrongAudienceToken,
		"foreign key":        foreignToken,
		"malformed":          "definitely-not-a-jwt",
		"empty":              "",
	}
	for name, token := range cases {
		if claims := codec.Decode(token); claims != nil {
			t.Errorf("%s: expected nil claims, got %+v", name, claims)
		}
	}
}

// newCodecSameKeyDifferentAudience copies the codec's keys under a different
// audience so signature verification passes but audience checking fails.
func newCodecSameKeyDifferentAudience(t *testing.T, codec *TokenCodec) *TokenCodec {
	t.Helper()
	return &TokenCodec{
		privateKey: codec.privateKey,
		publicKey:  codec.publicKey,
		audience:   []string{"some-other-service"},
	}
}

func tamperSignature(t *testing.T, token string) string {
	t.Helper()
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %s", token)
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	parts[2] = string(sig)
	return strings.Join(parts, ".")
}

func TestNewTokenCodec_MissingKey(t *testing.T) {
	if _, err := NewTokenCodec("", "", nil); err == nil {
		t.Fatal("expected error for missing signing key")
	}
	if _, err := NewTokenCodec("not a pem", "", nil); err == nil {
		t.Fatal("expected error for malformed signing key")
	}
}

func TestNewTokenCodec_DerivesPublicKey(t *testing.T) {
	privPEM, _ := testKeyPair(t)
	codec, err := NewTokenCodec(privPEM, "", nil)
	if err != nil {
		t.Fatalf("NewTokenCodec returned error: %v", err)
	}

	token, err := codec.Encode(Claims{UserID: "user-1", Role: "admin"}, time.Hour)
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if codec.Decode(token) == nil {
		t.Fatal("expected token signed and verified with derived public key")
	}
}
