// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const hmacTestKey = "correct horse battery staple"

func signHMAC(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func validClaims(extra map[string]any) jwt.MapClaims {
	claims := jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}
	for k, v := range extra {
		claims[k] = v
	}
	return claims
}

func TestHMACBearerAuth(t *testing.T) {
	j := JWTAuthConfig{
		Enabled: true,
		Tokens: []JWTAuthTokenConfig{{
			Algorithm:     "HMAC",
			KeyString:     hmacTestKey,
			SubjectClaims: []string{"preferred_username", "sub"},
		}},
	}
	if err := j.Postprocess(); err != nil {
		t.Fatal(err)
	}

	subject, err := j.Validate(signHMAC(t, hmacTestKey, validClaims(map[string]any{"sub": "deploy-bot"})))
	if err != nil || subject != "deploy-bot" {
		t.Errorf("expected deploy-bot, got %q (%v)", subject, err)
	}

	// claims are tried in order
	subject, err = j.Validate(signHMAC(t, hmacTestKey, validClaims(map[string]any{"sub": "x", "preferred_username": "editor"})))
	if err != nil || subject != "editor" {
		t.Errorf("expected editor, got %q (%v)", subject, err)
	}

	if _, err := j.Validate(signHMAC(t, hmacTestKey, validClaims(nil))); err != ErrNoValidSubjectClaim {
		t.Errorf("expected ErrNoValidSubjectClaim, got %v", err)
	}

	if _, err := j.Validate(signHMAC(t, "wrong key", validClaims(map[string]any{"sub": "x"}))); err == nil {
		t.Error("token signed with the wrong key was accepted")
	}

	expired := jwt.MapClaims{"sub": "x", "exp": time.Now().Add(-time.Hour).Unix()}
	if _, err := j.Validate(signHMAC(t, hmacTestKey, expired)); err == nil {
		t.Error("expired token was accepted")
	}

	if _, err := j.Validate(signHMAC(t, hmacTestKey, jwt.MapClaims{"sub": "x"})); err == nil {
		t.Error("token without an expiry was accepted")
	}
}

func TestEdDSAKeyFile(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		t.Fatal(err)
	}
	keyFile := filepath.Join(t.TempDir(), "api.pub")
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0600); err != nil {
		t.Fatal(err)
	}

	j := JWTAuthConfig{
		Enabled: true,
		Tokens: []JWTAuthTokenConfig{
			{Algorithm: "hmac", KeyString: hmacTestKey},
			{Algorithm: "eddsa", KeyFile: keyFile},
		},
	}
	if err := j.Postprocess(); err != nil {
		t.Fatal(err)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, validClaims(map[string]any{"sub": "ci"})).SignedString(priv)
	if err != nil {
		t.Fatal(err)
	}
	// the hmac key rejects it, the eddsa key accepts
	subject, err := j.Validate(token)
	if err != nil || subject != "ci" {
		t.Errorf("expected ci, got %q (%v)", subject, err)
	}
}

func TestPostprocessErrors(t *testing.T) {
	cases := map[string]JWTAuthConfig{
		"no tokens":     {Enabled: true},
		"no key":        {Enabled: true, Tokens: []JWTAuthTokenConfig{{Algorithm: "hmac"}}},
		"bad algorithm": {Enabled: true, Tokens: []JWTAuthTokenConfig{{Algorithm: "none", KeyString: "k"}}},
		"bad rsa key":   {Enabled: true, Tokens: []JWTAuthTokenConfig{{Algorithm: "rsa", KeyString: "not pem"}}},
	}
	for name, conf := range cases {
		if err := conf.Postprocess(); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}

	disabled := JWTAuthConfig{}
	if err := disabled.Postprocess(); err != nil {
		t.Errorf("disabled config should not be validated: %v", err)
	}
	if _, err := disabled.Validate("anything"); err != ErrAuthDisabled {
		t.Errorf("expected ErrAuthDisabled, got %v", err)
	}
}
