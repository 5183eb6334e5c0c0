// Copyright (c) 2024 Shivaram Lingamneni <slingamn@cs.stanford.edu>
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package jwt

import (
	"errors"
	"fmt"
	"os"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	ErrAuthDisabled        = errors.New("JWT authentication is disabled")
	ErrNoValidSubjectClaim = errors.New("JWT token did not contain an acceptable subject claim")
)

// JWTAuthConfig is the config for the API to accept JWTs as bearer tokens.
type JWTAuthConfig struct {
	Enabled bool                 `yaml:"enabled"`
	Tokens  []JWTAuthTokenConfig `yaml:"tokens"`
}

// JWTAuthTokenConfig is one accepted signing key. A token is accepted if it
// verifies against the key and carries a string in one of SubjectClaims.
type JWTAuthTokenConfig struct {
	Algorithm     string `yaml:"algorithm"`
	KeyString     string `yaml:"key"`
	KeyFile       string `yaml:"key-file"`
	key           any
	parser        *jwt.Parser
	SubjectClaims []string `yaml:"subject-claims"`
}

func (j *JWTAuthConfig) Postprocess() error {
	if !j.Enabled {
		return nil
	}

	if len(j.Tokens) == 0 {
		return errors.New("JWT authentication enabled, but no valid tokens defined")
	}

	for i := range j.Tokens {
		if err := j.Tokens[i].Postprocess(); err != nil {
			return fmt.Errorf("jwt token %d: %w", i, err)
		}
	}

	return nil
}

func (j *JWTAuthTokenConfig) Postprocess() error {
	keyBytes, err := j.keyBytes()
	if err != nil {
		return err
	}

	j.Algorithm = strings.ToLower(j.Algorithm)

	var methods []string
	switch j.Algorithm {
	case "hmac":
		j.key = keyBytes
		methods = []string{"HS256", "HS384", "HS512"}
	case "rsa":
		rsaKey, err := jwt.ParseRSAPublicKeyFromPEM(keyBytes)
		if err != nil {
			return err
		}
		j.key = rsaKey
		methods = []string{"RS256", "RS384", "RS512"}
	case "eddsa":
		eddsaKey, err := jwt.ParseEdPublicKeyFromPEM(keyBytes)
		if err != nil {
			return err
		}
		j.key = eddsaKey
		methods = []string{"EdDSA"}
	default:
		return fmt.Errorf("invalid jwt algorithm: %s", j.Algorithm)
	}
	j.parser = jwt.NewParser(jwt.WithValidMethods(methods), jwt.WithExpirationRequired())

	if len(j.SubjectClaims) == 0 {
		j.SubjectClaims = []string{"sub"}
	}
	return nil
}

// Validate returns the subject of the first configured key that accepts t.
func (j *JWTAuthConfig) Validate(t string) (subject string, err error) {
	if !j.Enabled || len(j.Tokens) == 0 {
		return "", ErrAuthDisabled
	}

	for i := range j.Tokens {
		subject, err = j.Tokens[i].Validate(t)
		if err == nil {
			return
		}
	}
	return
}

func (j *JWTAuthTokenConfig) keyBytes() (result []byte, err error) {
	if j.KeyFile != "" {
		return os.ReadFile(j.KeyFile)
	}
	if j.KeyString != "" {
		return []byte(j.KeyString), nil
	}
	return nil, errors.New("JWT auth enabled, but no JWT key specified")
}

// implements jwt.Keyfunc
func (j *JWTAuthTokenConfig) keyFunc(_ *jwt.Token) (interface{}, error) {
	return j.key, nil
}

func (j *JWTAuthTokenConfig) Validate(t string) (subject string, err error) {
	token, err := j.parser.Parse(t, j.keyFunc)
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		// impossible with Parse (as opposed to ParseWithClaims)
		return "", fmt.Errorf("unexpected type from parsed token claims: %T", claims)
	}

	for _, c := range j.SubjectClaims {
		if v, ok := claims[c].(string); ok && v != "" {
			return v, nil
		}
	}

	return "", ErrNoValidSubjectClaim
}
