// Copyright (c) 2018 Shivaram Lingamneni
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package passwd

import (
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/sha3"
)

const (
	MinCost     = bcrypt.MinCost
	DefaultCost = 12 // ballpark: 250 msec on a modern Intel CPU
)

// API bearer tokens get a SHA3-512 pass before bcrypt, so tokens longer
// than bcrypt's 72-byte input limit are still compared in full.

func GenerateFromPassword(password []byte, cost int) (result []byte, err error) {
	sum := sha3.Sum512(password)
	return bcrypt.GenerateFromPassword(sum[:], cost)
}

func CompareHashAndPassword(hashedPassword, password []byte) error {
	sum := sha3.Sum512(password)
	return bcrypt.CompareHashAndPassword(hashedPassword, sum[:])
}

// IsHash reports whether hash looks like something GenerateFromPassword
// produced.
func IsHash(hash []byte) bool {
	_, err := bcrypt.Cost(hash)
	return err == nil
}
